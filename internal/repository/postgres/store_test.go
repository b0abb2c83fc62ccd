package postgres

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/readrate/internal/repository"
	apperrors "github.com/utafrali/readrate/pkg/errors"
)

func TestStore_WithTx_CommitsThroughTxRepositories(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs([]string{bookID}).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(bookID))
	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs(bookID).
		WillReturnRows(pgxmock.NewRows([]string{"count", "sum"}).AddRow(2, 9))
	mock.ExpectExec(`UPDATE books`).
		WithArgs(bookID, 2, 4.5).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := store.WithTx(context.Background(), func(tx repository.Tx) error {
		if err := tx.Books().LockForUpdate(context.Background(), bookID); err != nil {
			return err
		}
		stats, err := tx.Reviews().Stats(context.Background(), bookID)
		if err != nil {
			return err
		}
		return tx.Books().UpdateAggregate(context.Background(), bookID, stats.Aggregate())
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithTx_RollsBackOnError(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock, nil)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reviews").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), func(tx repository.Tx) error {
		return tx.Reviews().Create(context.Background(), sampleReview())
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert review")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithTx_CommitFailureIsStoreUnavailable(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock, nil)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), func(repository.Tx) error { return nil })
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
}

func TestStore_RepositoriesAndPing(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock, nil)

	assert.NotNil(t, store.Books())
	assert.NotNil(t, store.Users())
	assert.NotNil(t, store.Reviews())
	assert.NotNil(t, store.Recommendations())

	mock.ExpectPing()
	assert.NoError(t, store.Ping(context.Background()))

	var _ repository.Store = store
}
