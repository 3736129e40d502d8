package todo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fribble186/todos/internal/model"
)

func newStoreForTests(t *testing.T) *Store {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "todos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

func TestStore_MissingEmailReadsEmpty(t *testing.T) {
	s := newStoreForTests(t)

	tasks, err := s.Get(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestStore_ReplaceThenGet(t *testing.T) {
	s := newStoreForTests(t)
	ctx := context.Background()

	in := []model.Task{
		{ID: "0", Content: "write report", EndTime: "2024-06-10 23:59:59", Status: model.StatusAdd},
		{ID: "1", Content: "gone", EndTime: model.InfiniteEnd, IsDelete: true, Status: model.StatusDelete},
	}
	require.NoError(t, s.Replace(ctx, "a@example.com", in))

	got, err := s.Get(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestStore_ReplaceIsWholesale(t *testing.T) {
	s := newStoreForTests(t)
	ctx := context.Background()

	require.NoError(t, s.Replace(ctx, "a@example.com", []model.Task{
		{ID: "0", Content: "first", EndTime: model.InfiniteEnd},
		{ID: "1", Content: "second", EndTime: model.InfiniteEnd},
	}))
	require.NoError(t, s.Replace(ctx, "a@example.com", []model.Task{
		{ID: "1", Content: "second", EndTime: model.InfiniteEnd},
	}))

	got, err := s.Get(ctx, "a@example.com")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
}

func TestStore_CollectionsAreIsolatedByEmail(t *testing.T) {
	s := newStoreForTests(t)
	ctx := context.Background()

	require.NoError(t, s.Replace(ctx, "a@example.com", []model.Task{{ID: "0", EndTime: model.InfiniteEnd}}))
	require.NoError(t, s.Replace(ctx, "b@example.com", nil))

	a, err := s.Get(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Len(t, a, 1)

	b, err := s.Get(ctx, "b@example.com")
	require.NoError(t, err)
	assert.Empty(t, b)
}
