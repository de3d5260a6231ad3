package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/asset-tracker/internal/domain"
)

func TestWithinTxCommits(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE assets SET status").
		WithArgs(domain.AssetStatusAssigned, domain.ConditionGood, "asset-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err = NewTxRunner(mock).WithinTx(context.Background(), func(ctx context.Context, st *Store) error {
		return st.Assets.SetStatus(ctx, "asset-1", domain.AssetStatusAssigned, domain.ConditionGood)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE assets SET status").
		WithArgs(domain.AssetStatusAssigned, domain.ConditionGood, "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err = NewTxRunner(mock).WithinTx(context.Background(), func(ctx context.Context, st *Store) error {
		return st.Assets.SetStatus(ctx, "missing", domain.AssetStatusAssigned, domain.ConditionGood)
	})
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxJoinsRollbackError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	work := errors.New("work failed")
	rollback := errors.New("connection lost")
	mock.ExpectBegin()
	mock.ExpectRollback().WillReturnError(rollback)

	err = NewTxRunner(mock).WithinTx(context.Background(), func(context.Context, *Store) error {
		return work
	})
	assert.ErrorIs(t, err, work)
	assert.ErrorIs(t, err, rollback)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxBeginFails(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	called := false
	err = NewTxRunner(mock).WithinTx(context.Background(), func(context.Context, *Store) error {
		called = true
		return nil
	})
	assert.ErrorContains(t, err, "begin tx")
	assert.False(t, called)
}

func TestReviewOnlyPendingRequests(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	reviewer := "user-1"
	reviewedAt := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	request := &domain.AssetRequest{
		ID:         "req-1",
		Status:     domain.RequestApproved,
		ReviewedBy: &reviewer,
		ReviewDate: &reviewedAt,
	}

	mock.ExpectExec(`UPDATE asset_requests SET status=\$1`).
		WithArgs(request.Status, request.ReviewedBy, request.ReviewDate, request.ReviewNotes, request.AssignedAssetID, request.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = NewAssetRequestRepository(mock).Review(context.Background(), request)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePendingRequiresPendingOwnRequest(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM asset_requests WHERE id=\$1 AND requested_by=\$2 AND status='Pending'`).
		WithArgs("req-1", "user-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err = NewAssetRequestRepository(mock).DeletePending(context.Background(), "req-1", "user-1")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByCategory(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM assets WHERE category_id=\$1`).
		WithArgs("cat-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	count, err := NewAssetRepository(mock).CountByCategory(context.Background(), "cat-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPage(t *testing.T) {
	limit, offset := Page(0, -5, 20)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)
}

func TestContainsPatternEscapesWildcards(t *testing.T) {
	cases := map[string]string{
		"laptop":  "%laptop%",
		" lap ":   "%lap%",
		"_":       `%\_%`,
		"100%":    `%100\%%`,
		`C:\temp`: `%C:\\temp%`,
	}
	for term, want := range cases {
		assert.Equal(t, want, containsPattern(term), term)
	}
}

func TestAssetSearchMatchesLiteralText(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	search := "100%_"
	mock.ExpectQuery(`a\.asset_tag ILIKE \$1 ESCAPE '\\' OR a\.serial_number ILIKE \$1 ESCAPE '\\'`).
		WithArgs(`%100\%\_%`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

	count, err := NewAssetRepository(mock).Count(context.Background(), AssetFilter{Search: &search})
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeSearchMatchesLiteralText(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	search := "a_b"
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM employees WHERE .*name ILIKE \$1 ESCAPE '\\'`).
		WithArgs(`%a\_b%`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

	count, err := NewEmployeeRepository(mock).Count(context.Background(), EmployeeFilter{Search: &search})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
