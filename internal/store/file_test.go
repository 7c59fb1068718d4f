package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	cerrors "github.com/kchlu/stocktake/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	return s, path
}

func Test_FileStore_MutationsSurviveReopen(t *testing.T) {
	// given
	s, path := newTestFileStore(t)
	ctx := context.Background()

	first, err := s.Insert(ctx, "Tieguanyin", 4, 1, "spring batch")
	require.NoError(t, err)
	second, err := s.Insert(ctx, "Da Hong Pao", 0, 0, "")
	require.NoError(t, err)
	_, err = s.Update(ctx, second.ID, FieldUpdate{StoreQty: int64Ptr(9)})
	require.NoError(t, err)

	// when
	reopened, err := NewFileStore(path)
	require.NoError(t, err)

	// then
	list, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, *first, list[0])
	assert.Equal(t, "Da Hong Pao", list[1].Name)
	assert.Equal(t, int64(9), list[1].StoreQty)
}

func Test_FileStore_IDsNotReusedAcrossReopen(t *testing.T) {
	// given
	s, path := newTestFileStore(t)
	ctx := context.Background()

	created, err := s.Insert(ctx, "transient", 0, 0, "")
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, created.ID))

	// when: reopen an empty catalog and insert again
	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	next, err := reopened.Insert(ctx, "fresh", 0, 0, "")
	require.NoError(t, err)

	// then: the persisted id counter keeps running
	assert.Greater(t, next.ID, created.ID)
}

func Test_FileStore_DeleteAllPersists(t *testing.T) {
	// given
	s, path := newTestFileStore(t)
	ctx := context.Background()
	_, err := s.Insert(ctx, "one", 0, 0, "")
	require.NoError(t, err)
	_, err = s.Insert(ctx, "two", 0, 0, "")
	require.NoError(t, err)

	// when
	require.NoError(t, s.DeleteAll(ctx))
	reopened, err := NewFileStore(path)
	require.NoError(t, err)

	// then
	list, err := reopened.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func Test_FileStore_Validation(t *testing.T) {
	s, _ := newTestFileStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, "  ", 0, 0, "")
	assert.ErrorIs(t, err, cerrors.ErrValidation)

	_, err = s.Insert(ctx, "ok", -1, 0, "")
	assert.ErrorIs(t, err, cerrors.ErrValidation)

	err = s.Delete(ctx, 99)
	assert.ErrorIs(t, err, cerrors.ErrNotFound)
}

func Test_FileStore_OpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path)
	assert.Error(t, err)
}
