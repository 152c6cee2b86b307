package reconcile

import (
	"github.com/roach88/idsync/internal/ir"
)

// Reconciler pairs one previous ledger with one model and may be synced
// exactly once. A second Sync would mint ids and retire uids a second time
// from the same input, so it fails with ILLEGAL_STATE instead.
type Reconciler struct {
	prev   *ir.Ledger
	model  *ir.Model
	opts   []Option
	synced bool
}

// NewReconciler creates a single-use Reconciler.
func NewReconciler(prev *ir.Ledger, m *ir.Model, opts ...Option) *Reconciler {
	return &Reconciler{prev: prev, model: m, opts: opts}
}

// Sync reconciles the model, writes the resolved ids back onto it and
// returns the result. On error the model is left untouched.
func (r *Reconciler) Sync() (*Result, error) {
	if r.synced {
		return nil, ir.Errorf(ir.CodeIllegalState, "sync may only be called once per reconciler")
	}
	r.synced = true

	res, err := Reconcile(r.prev, r.model, r.opts...)
	if err != nil {
		return nil, err
	}
	if r.model != nil {
		res.Resolution.Apply(r.model)
	}
	return res, nil
}
