package progress

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/cookbook/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

var ref = models.FamilyRef(4)

func TestInitialize(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+recipe_progress`).
		WithArgs(int64(1), "family", int64(4), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Initialize(context.Background(), 1, ref, 2))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInitialize_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+recipe_progress`).WillReturnError(errors.New("duplicate key"))

	err := repo.Initialize(context.Background(), 1, ref, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}

func TestComplete_KeepsFirstTimestamp(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)SET\s+is_completed\s*=\s*TRUE,\s*completed_at\s*=\s*COALESCE\(completed_at,\s*now\(\)\)`).
		WithArgs(int64(1), "family", int64(4), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Complete(context.Background(), 1, ref, 2))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUncomplete_MissingRowIsSilent(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)SET\s+is_completed\s*=\s*FALSE,\s*completed_at\s*=\s*NULL`).
		WithArgs(int64(1), "family", int64(4), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Uncomplete(context.Background(), 1, ref, 9))
}

func TestList(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(`(?s)FROM\s+recipe_progress.*ORDER\s+BY\s+step_number`).
		WithArgs(int64(1), "family", int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"step_number", "is_completed", "completed_at"}).
			AddRow(1, true, at).
			AddRow(2, false, nil))

	got, err := repo.List(context.Background(), 1, ref)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Completed)
	require.NotNil(t, got[0].CompletedAt)
	assert.True(t, got[0].CompletedAt.Equal(at))
	assert.False(t, got[1].Completed)
	assert.Nil(t, got[1].CompletedAt)
}

func TestCount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+COUNT\(\*\)\s+FROM\s+recipe_progress`).
		WithArgs(int64(1), "family", int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.Count(context.Background(), 1, ref)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestDeleteAt_AllUsers(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)DELETE\s+FROM\s+recipe_progress\s+WHERE\s+recipe_kind\s*=\s*\$1\s+AND\s+recipe_id\s*=\s*\$2\s+AND\s+step_number\s*=\s*\$3`).
		WithArgs("family", int64(4), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.DeleteAt(context.Background(), ref, 2))
}

func TestDeleteAbove(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)DELETE\s+FROM\s+recipe_progress\s+WHERE\s+user_id\s*=\s*\$1.*step_number\s*>\s*\$4`).
		WithArgs(int64(1), "family", int64(4), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE\s+FROM\s+recipe_progress`).
		WillReturnError(errors.New("db down"))

	require.NoError(t, repo.DeleteAbove(context.Background(), 1, ref, 2))
	require.ErrorContains(t, repo.DeleteAbove(context.Background(), 1, ref, 2), "db error")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftForward_DistinctNumbersDescending(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s+DISTINCT\s+step_number.*DESC`).
		WithArgs("family", int64(4), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"step_number"}).AddRow(2).AddRow(1))
	upd := `UPDATE\s+recipe_progress\s+SET\s+step_number`
	mock.ExpectExec(upd).WithArgs(int64(3), "family", int64(4), int64(2)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(upd).WithArgs(int64(2), "family", int64(4), int64(1)).WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.ShiftForward(context.Background(), ref, 1))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftBackward_NothingToMove(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s+DISTINCT\s+step_number.*ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"step_number"}))

	require.NoError(t, repo.ShiftBackward(context.Background(), ref, 5))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReset(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)DELETE\s+FROM\s+recipe_progress\s+WHERE\s+user_id`).
		WithArgs(int64(1), "family", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.Reset(context.Background(), 1, ref))
}
