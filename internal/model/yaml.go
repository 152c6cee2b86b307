package model

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/roach88/idsync/internal/ir"
)

// yamlDocument is one YAML model document.
type yamlDocument struct {
	Entities []yamlEntity `yaml:"entities" validate:"dive"`
}

type yamlEntity struct {
	Name       string         `yaml:"name" validate:"required"`
	UID        yamlUID        `yaml:"uid"`
	Properties []yamlProperty `yaml:"properties" validate:"dive"`
	Relations  []yamlRelation `yaml:"relations" validate:"dive"`

	line int
}

type yamlProperty struct {
	Name   string  `yaml:"name" validate:"required"`
	UID    yamlUID `yaml:"uid"`
	Index  bool    `yaml:"index"`
	Target string  `yaml:"target"`
}

type yamlRelation struct {
	Name   string  `yaml:"name" validate:"required"`
	UID    yamlUID `yaml:"uid"`
	Target string  `yaml:"target" validate:"required"`
}

// yamlUID accepts an integer or the string "new".
type yamlUID ir.RequestedUID

func (u *yamlUID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: uid must be a scalar", node.Line)
	}
	if n, err := strconv.ParseInt(node.Value, 10, 64); err == nil {
		*u = yamlUID(n)
		return nil
	}
	if uid, ok := parseUID(node.Value); ok {
		*u = yamlUID(uid)
		return nil
	}
	return fmt.Errorf("line %d: %s", node.Line, invalidUIDMessage)
}

func (e *yamlEntity) UnmarshalYAML(node *yaml.Node) error {
	type plain yamlEntity
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*e = yamlEntity(p)
	e.line = node.Line
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// loadYAML decodes every document of every file, in order.
func loadYAML(paths []string) (*ir.Model, []error) {
	m := &ir.Model{}
	var errs []error

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeLoadFailed, File: path, Message: err.Error()})
			continue
		}
		entities, fileErrs := decodeEntities(path, data)
		m.Entities = append(m.Entities, entities...)
		errs = append(errs, fileErrs...)
	}
	return m, errs
}

// FromYAML decodes a single YAML stream into a model.
func FromYAML(data []byte) (*ir.Model, error) {
	entities, errs := decodeEntities("", data)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &ir.Model{Entities: entities}, nil
}

func decodeEntities(path string, data []byte) ([]ir.ModelEntity, []error) {
	docs, err := decodeYAML(data)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, File: path, Message: err.Error()}}
	}

	var (
		out  []ir.ModelEntity
		errs []error
	)
	for _, doc := range docs {
		if err := validate.Struct(doc); err != nil {
			errs = append(errs, validationErrors(path, doc, err)...)
			continue
		}
		for _, e := range doc.Entities {
			out = append(out, e.model())
		}
	}
	return out, errs
}

func decodeYAML(data []byte) ([]yamlDocument, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var docs []yamlDocument
	for {
		var doc yamlDocument
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
}

// validationErrors maps validator failures to LoadErrors naming the entity.
func validationErrors(path string, doc yamlDocument, err error) []error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []error{&LoadError{Code: ErrCodeGeneric, File: path, Message: err.Error()}}
	}

	out := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		code := ErrCodeMissingName
		if fe.Field() == "Target" {
			code = ErrCodeMissingTarget
		}
		le := &LoadError{
			Code:    code,
			File:    path,
			Message: fmt.Sprintf("%s is required", fe.Namespace()),
		}
		if i, ok := entityIndex(fe.Namespace()); ok && i < len(doc.Entities) {
			le.Line = doc.Entities[i].line
			le.Column = 1
		}
		out = append(out, le)
	}
	return out
}

// entityIndex extracts i from a namespace like "yamlDocument.Entities[i]...".
func entityIndex(ns string) (int, bool) {
	const marker = "Entities["
	start := strings.Index(ns, marker)
	if start < 0 {
		return 0, false
	}
	rest := ns[start+len(marker):]
	end := strings.IndexByte(rest, ']')
	if end < 0 {
		return 0, false
	}
	i, err := strconv.Atoi(rest[:end])
	return i, err == nil
}

func (e yamlEntity) model() ir.ModelEntity {
	out := ir.ModelEntity{Name: e.Name, UID: ir.RequestedUID(e.UID)}
	for _, p := range e.Properties {
		out.Properties = append(out.Properties, ir.ModelProperty{
			Name:    p.Name,
			UID:     ir.RequestedUID(p.UID),
			Indexed: p.Index,
			Target:  p.Target,
		})
	}
	for _, r := range e.Relations {
		out.Relations = append(out.Relations, ir.ModelRelation{
			Name:   r.Name,
			UID:    ir.RequestedUID(r.UID),
			Target: r.Target,
		})
	}
	return out
}
