package repository

import (
	"context"
	"database/sql"
	"errors"
	"go-bank-ledger/model"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountCols = []string{"id", "number", "account_type", "agency_id", "client_id", "balance", "created_at"}

var (
	testAgencyID = uuid.MustParse("5b8f3c4a-6f0e-4d8e-9b55-1c2a3d4e5f60")
	testClientID = uuid.MustParse("9a1b2c3d-4e5f-4a6b-8c7d-0e1f2a3b4c5d")
)

func accountRow(rows *sqlmock.Rows, id uuid.UUID, accountType model.AccountType, balance string) *sqlmock.Rows {
	return rows.AddRow(id.String(), "0000000042", string(accountType), testAgencyID.String(), testClientID.String(), balance, time.Now())
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestAccountRepository_FindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()
	id := uuid.New()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE id = $1")).
			WithArgs(id).
			WillReturnRows(accountRow(sqlmock.NewRows(accountCols), id, model.AccountTypeChecking, "100.0000"))

		acc, err := repo.FindByID(ctx, id)

		require.NoError(t, err)
		assert.Equal(t, id, acc.ID)
		assert.Equal(t, model.AccountTypeChecking, acc.AccountType)
		assert.True(t, acc.Balance.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, testClientID, acc.ClientID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE id = $1")).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(accountCols))

		_, err := repo.FindByID(ctx, id)

		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_FindByClientIDAndType(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE client_id = $1 AND account_type = $2")).
		WithArgs(testClientID, "SAVINGS").
		WillReturnRows(accountRow(sqlmock.NewRows(accountCols), id, model.AccountTypeSavings, "0"))

	acc, err := repo.FindByClientIDAndType(context.Background(), testClientID, model.AccountTypeSavings)

	require.NoError(t, err)
	assert.Equal(t, id, acc.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_FindByClientID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)

	rows := sqlmock.NewRows(accountCols)
	accountRow(rows, uuid.New(), model.AccountTypeChecking, "10")
	accountRow(rows, uuid.New(), model.AccountTypeSavings, "20.5")
	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE client_id = $1")).
		WithArgs(testClientID).
		WillReturnRows(rows)

	accounts, err := repo.FindByClientID(context.Background(), testClientID)

	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "20.5", accounts[1].Balance.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Save(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	t.Run("insert assigns an id", func(t *testing.T) {
		acc := &model.Account{
			Number:      "0000000042",
			AccountType: model.AccountTypeChecking,
			AgencyID:    testAgencyID,
			ClientID:    testClientID,
			Balance:     decimal.Zero,
		}
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO accounts")).
			WithArgs(sqlmock.AnyArg(), "0000000042", "CHECKING", testAgencyID, testClientID, "0").
			WillReturnRows(accountRow(sqlmock.NewRows(accountCols), uuid.New(), model.AccountTypeChecking, "0"))

		saved, err := repo.Save(ctx, acc)

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, acc.ID)
		assert.True(t, saved.Balance.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation maps to conflict", func(t *testing.T) {
		acc := &model.Account{ID: uuid.New(), AccountType: model.AccountTypeSavings, ClientID: testClientID, AgencyID: testAgencyID}
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO accounts")).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "accounts_client_type_key"})

		_, err := repo.Save(ctx, acc)

		assert.ErrorIs(t, err, ErrConflict)
		assert.Contains(t, err.Error(), "accounts_client_type_key")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_Update(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()
	id := uuid.New()
	acc := &model.Account{ID: id, AccountType: model.AccountTypeSavings, AgencyID: testAgencyID, ClientID: testClientID, Balance: decimal.RequireFromString("999")}

	t.Run("updates type and agency only", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE accounts SET account_type = $2, agency_id = $3")).
			WithArgs(id, "SAVINGS", testAgencyID).
			WillReturnRows(accountRow(sqlmock.NewRows(accountCols), id, model.AccountTypeSavings, "10"))

		updated, err := repo.Update(ctx, acc)

		require.NoError(t, err)
		assert.Equal(t, model.AccountTypeSavings, updated.AccountType)
		assert.True(t, updated.Balance.Equal(decimal.NewFromInt(10)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deleted account is not recreated", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE accounts SET account_type = $2, agency_id = $3")).
			WithArgs(id, "SAVINGS", testAgencyID).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Update(ctx, acc)

		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation maps to conflict", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE accounts")).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "accounts_client_type_key"})

		_, err := repo.Update(ctx, acc)

		assert.ErrorIs(t, err, ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)
	id := uuid.New()

	t.Run("deleted", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM accounts WHERE id = $1")).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(context.Background(), id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM accounts WHERE id = $1")).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(context.Background(), id), ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver error", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM accounts WHERE id = $1")).
			WithArgs(id).
			WillReturnError(errors.New("connection reset"))

		err := repo.Delete(context.Background(), id)
		assert.EqualError(t, err, "connection reset")
	})
}

func TestAccountRepository_NextAccountNumber(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT nextval('account_number_seq')")).
		WillReturnRows(sqlmock.NewRows([]string{"nextval"}).AddRow(int64(1234)))

	number, err := repo.NextAccountNumber(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "0000001234", number)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPixKeyRepository_Resolve(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPixKeyRepository(db)
	accountID := uuid.New()

	t.Run("registered", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT account_id FROM pix_keys WHERE key_value = $1")).
			WithArgs("alice@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"account_id"}).AddRow(accountID.String()))

		got, err := repo.Resolve(context.Background(), "alice@example.com")

		require.NoError(t, err)
		assert.Equal(t, accountID, got)
	})

	t.Run("unregistered", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT account_id FROM pix_keys WHERE key_value = $1")).
			WithArgs("nobody").
			WillReturnRows(sqlmock.NewRows([]string{"account_id"}))

		_, err := repo.Resolve(context.Background(), "nobody")

		assert.ErrorIs(t, err, ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPixKeyRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPixKeyRepository(db)
	key := &model.PixKey{KeyValue: "+5511999999999", AccountID: uuid.New()}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO pix_keys")).
		WithArgs(sqlmock.AnyArg(), key.KeyValue, key.AccountID).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "pix_keys_key_value_key"})

	err := repo.Create(context.Background(), key)

	assert.ErrorIs(t, err, ErrConflict)
	assert.NotEqual(t, uuid.Nil, key.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
