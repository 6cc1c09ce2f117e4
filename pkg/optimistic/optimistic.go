// Package optimistic runs a local-first mutation against a remote authority:
// apply locally, commit remotely, then either reconcile with the remote
// answer or roll back.
package optimistic

import (
	"context"
	"errors"
)

var errCommitRequired = errors.New("optimistic: commit is required")

// Op describes one optimistic mutation. Apply and Reconcile are optional;
// Rollback runs only when Commit fails.
type Op[T any] struct {
	Apply     func()
	Commit    func(ctx context.Context) (T, error)
	Reconcile func(T)
	Rollback  func(ctx context.Context, err error)
}

// Run executes op and returns the commit result. The commit error is
// returned after Rollback has run.
func Run[T any](ctx context.Context, op Op[T]) (T, error) {
	var zero T
	if op.Commit == nil {
		return zero, errCommitRequired
	}
	if op.Apply != nil {
		op.Apply()
	}
	result, err := op.Commit(ctx)
	if err != nil {
		if op.Rollback != nil {
			op.Rollback(ctx, err)
		}
		return zero, err
	}
	if op.Reconcile != nil {
		op.Reconcile(result)
	}
	return result, nil
}
