package storage

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func TestPostgresStore_Get(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT body, version FROM documents WHERE key = $1")).
		WithArgs("events/e1.json").
		WillReturnRows(sqlmock.NewRows([]string{"body", "version"}).AddRow(`{"id":"e1"}`, 3))

	doc, err := s.Get(context.Background(), "events/e1.json")
	require.NoError(t, err)
	assert.Equal(t, int64(3), doc.Version)
	assert.JSONEq(t, `{"id":"e1"}`, string(doc.Body))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT body, version FROM documents").
		WithArgs("events/nope.json").
		WillReturnError(sql.ErrNoRows)

	_, err := s.Get(context.Background(), "events/nope.json")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutConditional(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE documents SET body = $2, version = version + 1")).
		WithArgs("events/e1.json", `{"a":1}`, int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(4))

	v, err := s.Put(ctx, "events/e1.json", []byte(`{"a":1}`), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), v)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE documents SET body = $2")).
		WithArgs("events/e1.json", `{"a":2}`, int64(3)).
		WillReturnError(sql.ErrNoRows)

	_, err = s.Put(ctx, "events/e1.json", []byte(`{"a":2}`), 3)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutCreate(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (key) DO NOTHING")).
		WithArgs("jobs/j1.json", `{}`).
		WillReturnError(sql.ErrNoRows)

	_, err := s.Put(ctx, "jobs/j1.json", []byte(`{}`), MustNotExist)
	assert.ErrorIs(t, err, ErrConflict)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (key) DO UPDATE")).
		WithArgs("jobs/j1.json", `{}`).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(2))

	v, err := s.Put(ctx, "jobs/j1.json", []byte(`{}`), AnyVersion)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteAndList(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM documents").
		WithArgs("events/e1.json").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, s.Delete(ctx, "events/e1.json"), ErrNotFound)

	mock.ExpectQuery("SELECT key FROM documents WHERE key LIKE").
		WithArgs(`jobs/j\_1%`).
		WillReturnRows(sqlmock.NewRows([]string{"key"}).AddRow("jobs/j_1.json").AddRow("jobs/j_1/errors.json"))

	keys, err := s.List(ctx, "jobs/j_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"jobs/j_1.json", "jobs/j_1/errors.json"}, keys)
	assert.NoError(t, mock.ExpectationsWereMet())
}
