package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the DocumentStore contract against a backend
func exerciseStore(t *testing.T, s DocumentStore) {
	ctx := context.Background()

	_, err := s.Get(ctx, "events/e1.json")
	assert.ErrorIs(t, err, ErrNotFound)

	v1, err := s.Put(ctx, "events/e1.json", []byte(`{"name":"a"}`), MustNotExist)
	require.NoError(t, err)

	_, err = s.Put(ctx, "events/e1.json", []byte(`{"name":"dup"}`), MustNotExist)
	assert.ErrorIs(t, err, ErrConflict)

	doc, err := s.Get(ctx, "events/e1.json")
	require.NoError(t, err)
	assert.Equal(t, v1, doc.Version)
	assert.JSONEq(t, `{"name":"a"}`, string(doc.Body))

	v2, err := s.Put(ctx, "events/e1.json", []byte(`{"name":"b"}`), v1)
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2)

	_, err = s.Put(ctx, "events/e1.json", []byte(`{"name":"stale"}`), v1)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.Put(ctx, "events/e1.json", []byte(`{"name":"c"}`), AnyVersion)
	require.NoError(t, err)

	_, err = s.Put(ctx, "events/e1/artists.json", []byte(`[]`), AnyVersion)
	require.NoError(t, err)
	_, err = s.Put(ctx, "users/dj/users.json", []byte(`[]`), AnyVersion)
	require.NoError(t, err)

	keys, err := s.List(ctx, "events/")
	require.NoError(t, err)
	assert.Equal(t, []string{"events/e1.json", "events/e1/artists.json"}, keys)

	require.NoError(t, s.Delete(ctx, "events/e1.json"))
	assert.ErrorIs(t, s.Delete(ctx, "events/e1.json"), ErrNotFound)

	_, err = s.Get(ctx, "../outside.json")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestLocalStore(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	body := []byte(`"x"`)
	_, err := s.Put(ctx, "k.json", body, AnyVersion)
	require.NoError(t, err)
	body[1] = 'y'

	doc, err := s.Get(ctx, "k.json")
	require.NoError(t, err)
	assert.Equal(t, `"x"`, string(doc.Body))
}
