package model

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/idsync/internal/ir"
)

// loadCUE builds the CUE package in dir and extracts the entity struct.
func loadCUE(dir string) (*ir.Model, []error) {
	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{fromCUE(ErrCodeLoadFailed, inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{fromCUE(ErrCodeBuildFailed, err)}
	}
	return FromCUE(value)
}

// FromCUE extracts a model from a built CUE value. Entities are read from
// the top-level entity struct in field order.
func FromCUE(value cue.Value) (*ir.Model, []error) {
	m := &ir.Model{}
	entitiesVal := value.LookupPath(cue.ParsePath("entity"))
	if !entitiesVal.Exists() {
		return m, nil
	}

	iter, err := entitiesVal.Fields()
	if err != nil {
		return nil, []error{fromCUE(ErrCodeInvalidFieldValue, err)}
	}

	var errs []error
	for iter.Next() {
		e, entityErrs := compileEntity(iter.Label(), iter.Value())
		errs = append(errs, entityErrs...)
		m.Entities = append(m.Entities, e)
	}
	return m, errs
}

func compileEntity(name string, v cue.Value) (ir.ModelEntity, []error) {
	e := ir.ModelEntity{Name: name}
	var errs []error

	if uid, err := cueUID(v); err != nil {
		errs = append(errs, err)
	} else {
		e.UID = uid
	}

	propsVal := v.LookupPath(cue.ParsePath("properties"))
	if propsVal.Exists() {
		list, err := propsVal.List()
		if err != nil {
			errs = append(errs, errorAt(ErrCodeInvalidFieldValue, propsVal.Pos(), "entity %s: properties must be a list", name))
		} else {
			for list.Next() {
				p, err := compileProperty(name, list.Value())
				if err != nil {
					errs = append(errs, err)
					continue
				}
				e.Properties = append(e.Properties, p)
			}
		}
	}

	relsVal := v.LookupPath(cue.ParsePath("relations"))
	if relsVal.Exists() {
		list, err := relsVal.List()
		if err != nil {
			errs = append(errs, errorAt(ErrCodeInvalidFieldValue, relsVal.Pos(), "entity %s: relations must be a list", name))
		} else {
			for list.Next() {
				r, err := compileRelation(name, list.Value())
				if err != nil {
					errs = append(errs, err)
					continue
				}
				e.Relations = append(e.Relations, r)
			}
		}
	}
	return e, errs
}

func compileProperty(entity string, v cue.Value) (ir.ModelProperty, error) {
	var p ir.ModelProperty
	var err error

	if p.Name, err = cueString(v, "name", true); err != nil {
		return p, err
	}
	if p.UID, err = cueUID(v); err != nil {
		return p, err
	}
	if p.Target, err = cueString(v, "target", false); err != nil {
		return p, err
	}
	if indexVal := v.LookupPath(cue.ParsePath("index")); indexVal.Exists() {
		if p.Indexed, err = indexVal.Bool(); err != nil {
			return p, errorAt(ErrCodeInvalidFieldValue, indexVal.Pos(), "%s.%s: index must be a bool", entity, p.Name)
		}
	}
	return p, nil
}

func compileRelation(entity string, v cue.Value) (ir.ModelRelation, error) {
	var r ir.ModelRelation
	var err error

	if r.Name, err = cueString(v, "name", true); err != nil {
		return r, err
	}
	if r.UID, err = cueUID(v); err != nil {
		return r, err
	}
	if r.Target, err = cueString(v, "target", false); err != nil {
		return r, err
	}
	if r.Target == "" {
		return r, errorAt(ErrCodeMissingTarget, v.Pos(), "relation %s.%s has no target", entity, r.Name)
	}
	return r, nil
}

func cueString(v cue.Value, field string, required bool) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		if required {
			return "", errorAt(ErrCodeMissingName, v.Pos(), "%s is required", field)
		}
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", errorAt(ErrCodeInvalidFieldValue, fv.Pos(), "%s must be a string", field)
	}
	return s, nil
}

const invalidUIDMessage = `uid must be an integer or "new"`

// cueUID reads the optional uid field: an integer or the string "new".
func cueUID(v cue.Value) (ir.RequestedUID, error) {
	fv := v.LookupPath(cue.ParsePath("uid"))
	if !fv.Exists() {
		return ir.UIDAuto, nil
	}
	if n, err := fv.Int64(); err == nil {
		return ir.RequestedUID(n), nil
	}
	if s, err := fv.String(); err == nil {
		if uid, ok := parseUID(s); ok {
			return uid, nil
		}
	}
	return 0, invalidUID(fv.Pos())
}

func invalidUID(pos token.Pos) *LoadError {
	return errorAt(ErrCodeInvalidUID, pos, "%s", invalidUIDMessage)
}
