package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViolationCodes(t *testing.T) {
	unique := &pq.Error{Code: "23505"}
	fk := &pq.Error{Code: "23503"}

	assert.True(t, IsUniqueViolation(unique))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", unique)))
	assert.False(t, IsUniqueViolation(fk))
	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsForeignKeyViolation(errors.New("23503")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestWithTxCommits(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE job").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = WithTx(context.Background(), db, func(tx *sql.Tx) error {
		_, err := tx.Exec("UPDATE job SET status = 1")
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	failure := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err = WithTx(context.Background(), db, func(tx *sql.Tx) error {
		return failure
	})
	assert.ErrorIs(t, err, failure)
	assert.NoError(t, mock.ExpectationsWereMet())
}
