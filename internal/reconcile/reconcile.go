package reconcile

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"

	"github.com/roach88/idsync/internal/ir"
	"github.com/roach88/idsync/internal/uid"
)

// Result is the outcome of a successful reconciliation.
type Result struct {
	Ledger     *ir.Ledger
	Resolution Resolution
	Retired    Retired
	Stats      Stats
}

type config struct {
	genOpts []uid.Option
	logger  *slog.Logger
}

// Option configures Reconcile.
type Option func(*config)

// WithSeed makes uid generation deterministic. Use only in tests.
func WithSeed(seed uint64) Option {
	return func(c *config) { c.genOpts = append(c.genOpts, uid.WithSeed(seed)) }
}

// WithStrictChecksum rejects ledger uids without a valid embedded checksum.
func WithStrictChecksum(strict bool) Option {
	return func(c *config) { c.genOpts = append(c.genOpts, uid.WithStrictChecksum(strict)) }
}

// WithLogger sets the logger for allocation and summary messages.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// pendingEntity carries pass-1 state into pass 2.
type pendingEntity struct {
	index int
	prior *ir.Entity // matched previous record; nil when new or forced new
	out   *ir.Entity
}

// reconciler holds the working state of one Reconcile call.
type reconciler struct {
	prev   *ir.Ledger
	model  *ir.Model
	gen    *uid.Generator
	logger *slog.Logger

	lastEntity   ir.IdUid
	lastIndex    ir.IdUid
	lastRelation ir.IdUid

	// claimed maps every previous uid matched this run to the element that
	// claimed it, so no two model elements resolve to one record.
	claimed map[int64]string

	// reserved holds every uid the model requests explicitly. Name matching
	// never takes a reserved record.
	reserved map[int64]bool

	// failed holds name keys of entities that could not be resolved, so
	// relations pointing at them do not add a second, misleading error.
	failed map[string]bool

	res   Resolution
	stats Stats
	errs  []error
}

// Reconcile resolves ids for every element of m against prev (nil on the
// first run) and returns the next ledger. m is not modified; apply
// Result.Resolution to write the ids back.
func Reconcile(prev *ir.Ledger, m *ir.Model, opts ...Option) (*Result, error) {
	cfg := config{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}
	if m == nil {
		m = &ir.Model{}
	}
	if prev == nil {
		prev = ir.NewLedger()
	}

	r := &reconciler{
		prev:         prev,
		model:        m,
		gen:          uid.New(append(cfg.genOpts, uid.WithPool(prev.NewUIDPool))...),
		logger:       cfg.logger,
		lastEntity:   prev.LastEntityID,
		lastIndex:    prev.LastIndexID,
		lastRelation: prev.LastRelationID,
		claimed:      make(map[int64]string),
		reserved:     make(map[int64]bool),
		failed:       make(map[string]bool),
		res:          make(Resolution),
	}

	if err := r.registerPrevious(); err != nil {
		return nil, err
	}
	r.reserveRequested()

	pending := make([]pendingEntity, 0, len(m.Entities))
	for i := range m.Entities {
		if p, ok := r.resolveEntity(i); ok {
			pending = append(pending, p)
		} else {
			r.failed[ir.NameKey(m.Entities[i].Name)] = true
		}
	}
	r.resolveRelations(pending)

	if len(r.errs) > 0 {
		return nil, errors.Join(r.errs...)
	}

	next := r.assemble(pending)
	retired := Retire(r.prev, next)
	retired.AppendTo(next)
	r.stats.Retired = retired.Len()
	r.stats.Entities = len(next.Entities)

	r.logger.Info("reconciled model",
		"entities", r.stats.Entities,
		"new_entities", r.stats.NewEntities,
		"new_properties", r.stats.NewProperties,
		"new_indexes", r.stats.NewIndexes,
		"new_relations", r.stats.NewRelations,
		"renamed", r.stats.Renamed,
		"retired", r.stats.Retired,
	)

	return &Result{
		Ledger:     next,
		Resolution: r.res,
		Retired:    retired,
		Stats:      r.stats,
	}, nil
}

// registerPrevious adds every uid of the previous ledger to the generator's
// used-set. A duplicate here means the ledger was corrupted, typically by a
// VCS merge.
func (r *reconciler) registerPrevious() error {
	var errs []error
	register := func(u int64, element string) {
		if err := r.gen.RegisterExisting(u); err != nil {
			var e *ir.Error
			if errors.As(err, &e) {
				c := *e
				c.Element = element
				err = &c
			}
			errs = append(errs, err)
		}
	}

	for _, e := range r.prev.Entities {
		register(e.ID.UID, e.Name)
		for _, p := range e.Properties {
			register(p.ID.UID, e.Name+"."+p.Name)
			if p.IndexID != nil {
				register(p.IndexID.UID, e.Name+"."+p.Name+" (index)")
			}
		}
		for _, rel := range e.Relations {
			register(rel.ID.UID, e.Name+"."+rel.Name)
		}
	}
	for _, archive := range [][]int64{
		r.prev.RetiredEntityUIDs,
		r.prev.RetiredPropertyUIDs,
		r.prev.RetiredIndexUIDs,
		r.prev.RetiredRelationUIDs,
	} {
		for _, u := range archive {
			register(u, "retired uid")
		}
	}
	return errors.Join(errs...)
}

// reserveRequested marks every explicitly requested uid before any name
// matching happens, so "rename A to B by uid, add a new A" works in either
// input order.
func (r *reconciler) reserveRequested() {
	reserve := func(req ir.RequestedUID) {
		if req.IsExplicit() {
			r.reserved[int64(req)] = true
		}
	}
	for _, me := range r.model.Entities {
		reserve(me.UID)
		for _, mp := range me.Properties {
			reserve(mp.UID)
		}
		for _, mr := range me.Relations {
			reserve(mr.UID)
		}
	}
}

// available reports whether a name-only match may take the record with uid u.
func (r *reconciler) available(u int64) bool {
	_, taken := r.claimed[u]
	return !taken && !r.reserved[u]
}

// resolveEntity runs pass 1 for model entity i.
func (r *reconciler) resolveEntity(i int) (pendingEntity, bool) {
	me := &r.model.Entities[i]
	errCount := len(r.errs)

	if !r.checkRequest(me.UID, me.Name, me.Name) {
		return pendingEntity{}, false
	}
	shouldMint := me.UID == ir.UIDNew

	var prior *ir.Entity
	switch {
	case me.UID.IsExplicit():
		prior = r.prev.FindEntityByUID(int64(me.UID))
		if prior == nil {
			r.fail(&ir.Error{
				Code:    ir.CodeUnknownUID,
				Message: fmt.Sprintf("entity %q requests uid %d which is not in the ledger; remove the uid to create a new entity or use -1 to force one", me.Name, me.UID),
				Entity:  me.Name,
				UID:     int64(me.UID),
			})
			return pendingEntity{}, false
		}
	case !shouldMint:
		for k := range r.prev.Entities {
			e := &r.prev.Entities[k]
			if ir.SameName(e.Name, me.Name) && r.available(e.ID.UID) {
				prior = e
				break
			}
		}
	}
	if prior != nil && !r.claim(prior.ID.UID, me.Name, me.Name) {
		return pendingEntity{}, false
	}

	out := &ir.Entity{Name: me.Name, Properties: make([]ir.Property, 0, len(me.Properties))}
	if prior != nil {
		out.LastPropertyID = prior.LastPropertyID
		if prior.Name != me.Name {
			r.stats.Renamed++
			r.logger.Debug("entity renamed", "from", prior.Name, "to", me.Name, "uid", prior.ID.UID)
		}
	}

	for j := range me.Properties {
		r.resolveProperty(i, j, prior, out)
	}

	if prior != nil {
		out.ID = prior.ID
	} else {
		id, ok := r.next(&r.lastEntity, me.Name)
		if !ok {
			return pendingEntity{}, false
		}
		out.ID = id
		r.stats.NewEntities++
		r.logger.Debug("new entity id", "entity", me.Name, "id", id.String())
	}

	if len(r.errs) > errCount {
		return pendingEntity{}, false
	}

	r.res[ir.EntityHandle(i)] = Assignment{
		ID:             out.ID,
		LastPropertyID: out.LastPropertyID,
		New:            prior == nil,
	}
	return pendingEntity{index: i, prior: prior, out: out}, true
}

// resolveProperty resolves property j of model entity i into out.
func (r *reconciler) resolveProperty(i, j int, prior *ir.Entity, out *ir.Entity) {
	me := &r.model.Entities[i]
	mp := &me.Properties[j]
	element := me.Name + "." + mp.Name

	if !r.checkRequest(mp.UID, me.Name, element) {
		return
	}

	var match *ir.Property
	switch {
	case mp.UID.IsExplicit():
		if prior != nil {
			match = prior.FindPropertyByUID(int64(mp.UID))
		}
		if match == nil {
			r.fail(&ir.Error{
				Code:    ir.CodeUnknownUID,
				Message: fmt.Sprintf("property %q requests uid %d which entity %q does not have in the ledger", mp.Name, mp.UID, me.Name),
				Entity:  me.Name,
				Element: element,
				UID:     int64(mp.UID),
			})
			return
		}
	case mp.UID != ir.UIDNew && prior != nil:
		for k := range prior.Properties {
			if ir.SameName(prior.Properties[k].Name, mp.Name) && r.available(prior.Properties[k].ID.UID) {
				match = &prior.Properties[k]
				break
			}
		}
	}
	if match != nil && !r.claim(match.ID.UID, me.Name, element) {
		return
	}

	p := ir.Property{Name: mp.Name}
	if match != nil {
		p.ID = match.ID
		if match.Name != mp.Name {
			r.stats.Renamed++
		}
	} else {
		id, ok := r.next(&out.LastPropertyID, element)
		if !ok {
			return
		}
		p.ID = id
		r.stats.NewProperties++
		r.logger.Debug("new property id", "property", element, "id", id.String())
	}

	if mp.Indexed {
		if match != nil && match.IndexID != nil {
			idx := *match.IndexID
			p.IndexID = &idx
			r.claim(idx.UID, me.Name, element+" (index)")
		} else {
			idx, ok := r.next(&r.lastIndex, element+" (index)")
			if !ok {
				return
			}
			p.IndexID = &idx
			r.stats.NewIndexes++
			r.logger.Debug("new index id", "property", element, "id", idx.String())
		}
	}

	if p.ID.ID > out.LastPropertyID.ID {
		out.LastPropertyID = p.ID
	}
	out.Properties = append(out.Properties, p)
	r.res[ir.PropertyHandle(i, j)] = Assignment{
		ID:      p.ID,
		IndexID: cloneIdUid(p.IndexID),
		New:     match == nil,
	}
}

// resolveRelations runs pass 2: to-many relations and to-one targets are
// resolved once every entity id of the model is known.
func (r *reconciler) resolveRelations(pending []pendingEntity) {
	targets := make(map[string]*ir.Entity, len(pending))
	for _, p := range pending {
		targets[ir.NameKey(p.out.Name)] = p.out
	}

	for _, p := range pending {
		me := &r.model.Entities[p.index]

		// Pass 1 only keeps entities whose properties all resolved, so
		// out.Properties lines up with me.Properties.
		for k := range p.out.Properties {
			mp := &me.Properties[k]
			if mp.Target == "" {
				continue
			}
			target, ok := targets[ir.NameKey(mp.Target)]
			if !ok {
				if r.failed[ir.NameKey(mp.Target)] {
					continue
				}
				r.fail(&ir.Error{
					Code:    ir.CodeUnknownTarget,
					Message: fmt.Sprintf("to-one property %q targets unknown entity %q", mp.Name, mp.Target),
					Entity:  me.Name,
					Element: me.Name + "." + mp.Name,
				})
				continue
			}
			p.out.Properties[k].RelationTarget = target.Name
		}

		for j := range me.Relations {
			r.resolveRelation(p, j, targets)
		}
	}
}

func (r *reconciler) resolveRelation(p pendingEntity, j int, targets map[string]*ir.Entity) {
	me := &r.model.Entities[p.index]
	mr := &me.Relations[j]
	element := me.Name + "." + mr.Name

	if !r.checkRequest(mr.UID, me.Name, element) {
		return
	}

	target, ok := targets[ir.NameKey(mr.Target)]
	if !ok {
		if r.failed[ir.NameKey(mr.Target)] {
			return
		}
		r.fail(&ir.Error{
			Code:    ir.CodeUnknownTarget,
			Message: fmt.Sprintf("relation %q targets unknown entity %q", mr.Name, mr.Target),
			Entity:  me.Name,
			Element: element,
		})
		return
	}

	var match *ir.Relation
	switch {
	case mr.UID.IsExplicit():
		if p.prior != nil {
			match = p.prior.FindRelationByUID(int64(mr.UID))
		}
		if match == nil {
			r.fail(&ir.Error{
				Code:    ir.CodeUnknownUID,
				Message: fmt.Sprintf("relation %q requests uid %d which entity %q does not have in the ledger", mr.Name, mr.UID, me.Name),
				Entity:  me.Name,
				Element: element,
				UID:     int64(mr.UID),
			})
			return
		}
	case mr.UID != ir.UIDNew && p.prior != nil:
		for k := range p.prior.Relations {
			if ir.SameName(p.prior.Relations[k].Name, mr.Name) && r.available(p.prior.Relations[k].ID.UID) {
				match = &p.prior.Relations[k]
				break
			}
		}
	}
	if match != nil && !r.claim(match.ID.UID, me.Name, element) {
		return
	}

	rel := ir.Relation{Name: mr.Name, TargetID: target.ID}
	if match != nil {
		rel.ID = match.ID
		if match.Name != mr.Name {
			r.stats.Renamed++
		}
	} else {
		id, ok := r.next(&r.lastRelation, element)
		if !ok {
			return
		}
		rel.ID = id
		r.stats.NewRelations++
		r.logger.Debug("new relation id", "relation", element, "id", id.String())
	}

	p.out.Relations = append(p.out.Relations, rel)
	r.res[ir.RelationHandle(p.index, j)] = Assignment{
		ID:       rel.ID,
		TargetID: rel.TargetID,
		New:      match == nil,
	}
}

// assemble builds the next ledger from the resolved entities.
func (r *reconciler) assemble(pending []pendingEntity) *ir.Ledger {
	next := ir.NewLedger()
	// A newer file keeps its version. Fields this build does not know are
	// not carried over.
	next.ModelVersion = max(next.ModelVersion, r.prev.ModelVersion)
	for _, p := range pending {
		next.Entities = append(next.Entities, *p.out)
	}
	sort.SliceStable(next.Entities, func(a, b int) bool {
		return next.Entities[a].ID.ID < next.Entities[b].ID.ID
	})

	next.LastEntityID = r.lastEntity
	next.LastIndexID = r.lastIndex
	next.LastRelationID = r.lastRelation
	next.LastSequenceID = r.prev.LastSequenceID
	if pool := r.gen.Pool(); len(pool) > 0 {
		next.NewUIDPool = pool
	}

	next.RetiredEntityUIDs = append(next.RetiredEntityUIDs, r.prev.RetiredEntityUIDs...)
	next.RetiredPropertyUIDs = append(next.RetiredPropertyUIDs, r.prev.RetiredPropertyUIDs...)
	next.RetiredIndexUIDs = append(next.RetiredIndexUIDs, r.prev.RetiredIndexUIDs...)
	next.RetiredRelationUIDs = append(next.RetiredRelationUIDs, r.prev.RetiredRelationUIDs...)
	return next
}

// next advances counter by one and mints a uid for the new id.
func (r *reconciler) next(counter *ir.IdUid, element string) (ir.IdUid, bool) {
	if counter.ID >= math.MaxInt32 {
		r.fail(&ir.Error{
			Code:    ir.CodeIDExhausted,
			Message: fmt.Sprintf("no model id left for %s: the last id is already %d", element, counter.ID),
			Element: element,
			ID:      counter.ID,
		})
		return ir.IdUid{}, false
	}
	u, err := r.gen.Create()
	if err != nil {
		r.fail(fmt.Errorf("allocating uid for %s: %w", element, err))
		return ir.IdUid{}, false
	}
	*counter = ir.IdUid{ID: counter.ID + 1, UID: u}
	return *counter, true
}

// checkRequest rejects requested uids that can never be valid.
func (r *reconciler) checkRequest(req ir.RequestedUID, entity, element string) bool {
	if req >= ir.UIDNew {
		return true
	}
	r.fail(&ir.Error{
		Code:    ir.CodeIllegalIdentifier,
		Message: fmt.Sprintf("%s requests uid %d; use a positive uid, -1 for a new one, or none", element, req),
		Entity:  entity,
		Element: element,
		UID:     int64(req),
	})
	return false
}

// claim records that element resolved to the previous record with uid u.
func (r *reconciler) claim(u int64, entity, element string) bool {
	if other, taken := r.claimed[u]; taken {
		r.fail(&ir.Error{
			Code:    ir.CodeDuplicateRequestedUID,
			Message: fmt.Sprintf("%q and %q both resolve to uid %d; give one of them a different uid or -1", other, element, u),
			Entity:  entity,
			Element: element,
			UID:     u,
		})
		return false
	}
	r.claimed[u] = element
	return true
}

func (r *reconciler) fail(err error) {
	r.errs = append(r.errs, err)
}
