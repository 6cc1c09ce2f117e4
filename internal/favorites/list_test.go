package favorites

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/storefront/internal/backend"
	"github.com/angelmondragon/storefront/pkg/localstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddRemoveToggle(t *testing.T) {
	ctx := context.Background()
	l := NewList(localstore.NewMemory(), nil)

	var published [][]backend.Product
	cancel := l.Subscribe(func(items []backend.Product) { published = append(published, items) })
	defer cancel()

	require.NoError(t, l.Add(ctx, backend.Product{ID: 1, Name: "Geisha"}))
	require.NoError(t, l.Add(ctx, backend.Product{ID: 1, Name: "Geisha"}))
	require.NoError(t, l.Add(ctx, backend.Product{ID: 2, Name: "Huila"}))
	assert.Equal(t, 2, l.Count())
	assert.True(t, l.Contains(1))

	on, err := l.Toggle(ctx, backend.Product{ID: 1})
	require.NoError(t, err)
	assert.False(t, on)
	assert.False(t, l.Contains(1))

	on, err = l.Toggle(ctx, backend.Product{ID: 3, Name: "Sidamo"})
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, l.Remove(ctx, 42))
	assert.Len(t, published, 5, "duplicate add and unknown remove publish nothing")

	assert.Error(t, l.Add(ctx, backend.Product{}))
}

func TestFavoritesSurviveRestore(t *testing.T) {
	ctx := context.Background()
	store := localstore.NewMemory()

	first := NewList(store, nil)
	require.NoError(t, first.Add(ctx, backend.Product{ID: 7, Name: "Decaf"}))

	second := NewList(store, nil)
	items := second.Restore(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, "Decaf", items[0].Name)

	require.NoError(t, second.Clear(ctx))
	assert.Empty(t, NewList(store, nil).Restore(ctx))
}

func TestRestoreDropsCorruptValue(t *testing.T) {
	ctx := context.Background()
	store := localstore.NewMemory()
	require.NoError(t, store.Set(ctx, localstore.KeyFavorites, "{broken"))

	l := NewList(store, nil)
	assert.Empty(t, l.Restore(ctx))
	_, ok, _ := store.Get(ctx, localstore.KeyFavorites)
	assert.False(t, ok)
}

type failingStore struct{ localstore.Store }

func (failingStore) Set(context.Context, string, string) error { return errors.New("disk full") }

func TestFailedSaveLeavesListUnchanged(t *testing.T) {
	l := NewList(failingStore{localstore.NewMemory()}, nil)
	assert.Error(t, l.Add(context.Background(), backend.Product{ID: 1}))
	assert.Zero(t, l.Count())
}
