package completion

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertTxReportsCreation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	sdb := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sdb)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO completion_records`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO completion_records`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	tx, err := sdb.Beginx()
	require.NoError(t, err)

	rec := Record{UserID: uuid.New(), ContentItemID: uuid.New(), CreditsAwarded: 50}
	created, err := repo.InsertTx(context.Background(), tx, rec)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.InsertTx(context.Background(), tx, rec)
	require.NoError(t, err)
	assert.False(t, created)

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
