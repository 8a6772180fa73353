package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestPackRepo_Record(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPackRepo(db)

	mock.ExpectExec("INSERT INTO sticker_packs").
		WithArgs(int64(42), "memes_42_by_forgebot", "Memes", "static").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Record(context.Background(), 42, "memes_42_by_forgebot", "Memes", "static")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPackRepo_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPackRepo(db)

	created := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "title", "format", "created_at"}).
		AddRow(2, 42, "kang_42_by_forgebot", "Kang", "static", created).
		AddRow(1, 42, "memes_42_by_forgebot", "Memes", "video", created.Add(-time.Hour))

	mock.ExpectQuery("SELECT id, user_id, name, title, format, created_at").
		WithArgs(int64(42)).
		WillReturnRows(rows)

	packs, err := repo.List(context.Background(), 42)
	assert.NoError(t, err)
	assert.Len(t, packs, 2)
	assert.Equal(t, "kang_42_by_forgebot", packs[0].Name)
	assert.Equal(t, "video", packs[1].Format)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPackRepo_Has(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPackRepo(db)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(42), "kang_42_by_forgebot").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := repo.Has(context.Background(), 42, "kang_42_by_forgebot")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepo_Increment(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStatsRepo(db)

	mock.ExpectExec("INSERT INTO conversion_stats").
		WithArgs("stickerify").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Increment(context.Background(), "stickerify"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepo_Totals(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStatsRepo(db)

	rows := sqlmock.NewRows([]string{"operation", "count"}).
		AddRow("stickerify", 12).
		AddRow("meme", 5)

	mock.ExpectQuery("SELECT operation, count FROM conversion_stats").
		WillReturnRows(rows)

	totals, err := repo.Totals(context.Background())
	assert.NoError(t, err)
	assert.Len(t, totals, 2)
	assert.Equal(t, int64(12), totals[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
