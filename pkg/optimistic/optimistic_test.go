package optimistic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReconcilesOnSuccess(t *testing.T) {
	var trace []string
	result, err := Run(context.Background(), Op[int]{
		Apply: func() { trace = append(trace, "apply") },
		Commit: func(context.Context) (int, error) {
			trace = append(trace, "commit")
			return 9, nil
		},
		Reconcile: func(v int) { trace = append(trace, "reconcile") },
		Rollback:  func(context.Context, error) { trace = append(trace, "rollback") },
	})

	require.NoError(t, err)
	assert.Equal(t, 9, result)
	assert.Equal(t, []string{"apply", "commit", "reconcile"}, trace)
}

func TestRunRollsBackOnFailure(t *testing.T) {
	boom := errors.New("boom")
	var trace []string
	var rolledBackWith error
	_, err := Run(context.Background(), Op[string]{
		Apply: func() { trace = append(trace, "apply") },
		Commit: func(context.Context) (string, error) {
			trace = append(trace, "commit")
			return "", boom
		},
		Reconcile: func(string) { trace = append(trace, "reconcile") },
		Rollback: func(_ context.Context, err error) {
			trace = append(trace, "rollback")
			rolledBackWith = err
		},
	})

	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, rolledBackWith, boom)
	assert.Equal(t, []string{"apply", "commit", "rollback"}, trace)
}

func TestRunRequiresCommit(t *testing.T) {
	applied := false
	_, err := Run(context.Background(), Op[int]{Apply: func() { applied = true }})
	assert.Error(t, err)
	assert.False(t, applied)
}
