package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newGormMock(t *testing.T) (*GormUserStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		sqlDB.Close()
	})

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormConfig())
	require.NoError(t, err)
	return NewGormUserStore(db), mock
}

func TestGormUserStore_Create(t *testing.T) {
	insert := regexp.QuoteMeta(`INSERT INTO "users"`)

	t.Run("inserted", func(t *testing.T) {
		store, mock := newGormMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(insert).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		assert.NoError(t, store.Create(context.Background(), testUser(1)))
	})

	t.Run("duplicate email", func(t *testing.T) {
		store, mock := newGormMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(insert).WillReturnError(&pgconn.PgError{Code: "23505"})
		mock.ExpectRollback()
		assert.ErrorIs(t, store.Create(context.Background(), testUser(1)), ErrEmailExists)
	})
}

func TestGormUserStore_GetByID(t *testing.T) {
	query := regexp.QuoteMeta(`SELECT * FROM "users" WHERE id = $1`)
	u := testUser(1)
	now := time.Now().UTC()

	t.Run("found", func(t *testing.T) {
		store, mock := newGormMock(t)
		mock.ExpectQuery(query).WillReturnRows(
			sqlmock.NewRows(userRowColumns).AddRow(u.ID, u.Username, u.Email, "hash", u.Gender, now, now),
		)
		got, err := store.GetByID(context.Background(), u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Username, got.Username)
		assert.Equal(t, "hash", got.PasswordHash)
	})

	t.Run("missing", func(t *testing.T) {
		store, mock := newGormMock(t)
		mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows(userRowColumns))
		_, err := store.GetByID(context.Background(), u.ID)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestGormUserStore_Update(t *testing.T) {
	update := regexp.QuoteMeta(`UPDATE "users" SET`)
	count := regexp.QuoteMeta(`SELECT count(*) FROM "users" WHERE id = $1`)
	u := testUser(1)

	t.Run("updated", func(t *testing.T) {
		store, mock := newGormMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(update).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		assert.NoError(t, store.Update(context.Background(), u))
	})

	t.Run("unchanged row still exists", func(t *testing.T) {
		store, mock := newGormMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(update).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()
		mock.ExpectQuery(count).WithArgs(u.ID).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		assert.NoError(t, store.Update(context.Background(), u))
	})

	t.Run("unknown id", func(t *testing.T) {
		store, mock := newGormMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(update).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()
		mock.ExpectQuery(count).WithArgs(u.ID).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		assert.ErrorIs(t, store.Update(context.Background(), u), ErrUserNotFound)
	})

	t.Run("email taken", func(t *testing.T) {
		store, mock := newGormMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(update).WillReturnError(&pgconn.PgError{Code: "23505"})
		mock.ExpectRollback()
		assert.ErrorIs(t, store.Update(context.Background(), u), ErrEmailExists)
	})
}

func TestGormUserStore_DeleteIsHard(t *testing.T) {
	store, mock := newGormMock(t)
	del := regexp.QuoteMeta(`DELETE FROM "users" WHERE id = $1`)
	id := testUser(1).ID

	mock.ExpectBegin()
	mock.ExpectExec(del).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(del).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ctx := context.Background()
	assert.NoError(t, store.Delete(ctx, id))
	assert.ErrorIs(t, store.Delete(ctx, id), ErrUserNotFound)
}
