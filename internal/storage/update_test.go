package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// racingStore lets another writer sneak in before the first conditional Put
type racingStore struct {
	*MemoryStore
	race  func()
	puts  int
	fails bool
}

func (r *racingStore) Put(ctx context.Context, key string, body []byte, ifVersion int64) (int64, error) {
	r.puts++
	if r.fails {
		return 0, ErrConflict
	}
	if r.puts == 1 && r.race != nil {
		r.race()
	}
	return r.MemoryStore.Put(ctx, key, body, ifVersion)
}

func TestUpdate_CreatesMissingDocument(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	got, err := Update(ctx, s, "events/e1/cues.json", func(v *[]string, exists bool) error {
		assert.False(t, exists)
		*v = append(*v, "opening")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"opening"}, got)

	stored, found, err := ReadJSON[[]string](ctx, s, "events/e1/cues.json")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"opening"}, stored)
}

func TestUpdate_RetriesOnConflictWithoutLosingWrites(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	require.NoError(t, WriteJSON(ctx, mem, "list.json", []string{"first"}))

	s := &racingStore{MemoryStore: mem}
	s.race = func() {
		require.NoError(t, WriteJSON(ctx, mem, "list.json", []string{"first", "theirs"}))
	}

	calls := 0
	got, err := Update(ctx, s, "list.json", func(v *[]string, exists bool) error {
		calls++
		*v = append(*v, "ours")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"first", "theirs", "ours"}, got)

	stored, _, err := ReadJSON[[]string](ctx, mem, "list.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "theirs", "ours"}, stored)
}

func TestUpdate_GivesUpAfterMaxAttempts(t *testing.T) {
	s := &racingStore{MemoryStore: NewMemoryStore(), fails: true}

	_, err := Update(context.Background(), s, "k.json", func(v *int, exists bool) error {
		*v++
		return nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Equal(t, MaxUpdateAttempts, s.puts)
}

func TestUpdate_MutationErrorAbortsWrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	boom := errors.New("boom")

	_, err := Update(ctx, s, "k.json", func(v *int, exists bool) error { return boom })
	assert.ErrorIs(t, err, boom)

	_, err = s.Get(ctx, "k.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_SkipWrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, WriteJSON(ctx, s, "k.json", 7))
	before, err := s.Get(ctx, "k.json")
	require.NoError(t, err)

	got, err := Update(ctx, s, "k.json", func(v *int, exists bool) error { return ErrSkipWrite })
	require.NoError(t, err)
	assert.Equal(t, 7, got)

	after, err := s.Get(ctx, "k.json")
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
}

func TestCleanKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "events/e1.json", want: "events/e1.json"},
		{key: "/users/dj/users.json", want: "users/dj/users.json"},
		{key: "", wantErr: true},
		{key: "../etc/passwd", wantErr: true},
		{key: "events/../../x", wantErr: true},
		{key: `events\e1.json`, wantErr: true},
	}
	for _, tt := range tests {
		got, err := CleanKey(tt.key)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidKey, tt.key)
			continue
		}
		require.NoError(t, err, tt.key)
		assert.Equal(t, tt.want, got)
	}
}
