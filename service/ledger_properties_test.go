package service

import (
	"context"
	"fmt"
	"go-bank-ledger/model"
	"go-bank-ledger/repository"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memLedger is an in-memory account store, key directory and ledger store
// with the same locking and re-check contract as the Postgres one.
type memLedger struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]model.Account
	keys     map[string]uuid.UUID
	seq      int
}

func newMemLedger() *memLedger {
	return &memLedger{
		accounts: map[uuid.UUID]model.Account{},
		keys:     map[string]uuid.UUID{},
	}
}

func (m *memLedger) FindByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &acc, nil
}

func (m *memLedger) FindByClientID(_ context.Context, clientID uuid.UUID) ([]*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Account{}
	for _, acc := range m.accounts {
		if acc.ClientID == clientID {
			acc := acc
			out = append(out, &acc)
		}
	}
	return out, nil
}

func (m *memLedger) FindByClientIDAndType(_ context.Context, clientID uuid.UUID, accountType model.AccountType) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range m.accounts {
		if acc.ClientID == clientID && acc.AccountType == accountType {
			return &acc, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memLedger) Save(_ context.Context, account *model.Account) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, acc := range m.accounts {
		if id != account.ID && acc.ClientID == account.ClientID && acc.AccountType == account.AccountType {
			return nil, fmt.Errorf("%w: accounts_client_type_key", repository.ErrConflict)
		}
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	saved := *account
	if existing, ok := m.accounts[account.ID]; ok {
		saved.Balance = existing.Balance
	}
	m.accounts[saved.ID] = saved
	return &saved, nil
}

func (m *memLedger) Update(_ context.Context, account *model.Account) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.accounts[account.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for id, acc := range m.accounts {
		if id != account.ID && acc.ClientID == existing.ClientID && acc.AccountType == account.AccountType {
			return nil, fmt.Errorf("%w: accounts_client_type_key", repository.ErrConflict)
		}
	}
	existing.AccountType = account.AccountType
	existing.AgencyID = account.AgencyID
	m.accounts[account.ID] = existing
	return &existing, nil
}

func (m *memLedger) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.accounts, id)
	return nil
}

func (m *memLedger) GetAllAccounts(context.Context) ([]*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Account, 0, len(m.accounts))
	for _, acc := range m.accounts {
		acc := acc
		out = append(out, &acc)
	}
	return out, nil
}

func (m *memLedger) NextAccountNumber(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return fmt.Sprintf("%010d", m.seq), nil
}

func (m *memLedger) Resolve(_ context.Context, key string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.keys[key]
	if !ok {
		return uuid.Nil, repository.ErrNotFound
	}
	return id, nil
}

func (m *memLedger) ApplyDelta(_ context.Context, accountID uuid.UUID, delta decimal.Decimal, _ model.TransactionType) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[accountID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if delta.IsNegative() && !acc.CanDebit(delta.Neg()) {
		return nil, repository.ErrInsufficientFunds
	}
	acc.Balance = acc.Balance.Add(delta)
	m.accounts[accountID] = acc
	return &acc, nil
}

func (m *memLedger) ApplyTransferAtomically(_ context.Context, fromID, toID uuid.UUID, amount decimal.Decimal, _ model.TransactionType) (*model.Account, *model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	from, ok := m.accounts[fromID]
	if !ok {
		return nil, nil, repository.ErrNotFound
	}
	to, ok := m.accounts[toID]
	if !ok {
		return nil, nil, repository.ErrNotFound
	}
	if !from.CanDebit(amount) {
		return nil, nil, repository.ErrInsufficientFunds
	}
	from.Balance = from.Balance.Sub(amount)
	to.Balance = to.Balance.Add(amount)
	m.accounts[fromID], m.accounts[toID] = from, to
	return &from, &to, nil
}

func (m *memLedger) open(clientID uuid.UUID, accountType model.AccountType, balance string) model.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc := model.Account{ID: uuid.New(), ClientID: clientID, AccountType: accountType, Balance: dec(balance)}
	m.accounts[acc.ID] = acc
	return acc
}

func (m *memLedger) balance(id uuid.UUID) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id].Balance
}

func newMemEngine() (*memLedger, *TransactionService) {
	store := newMemLedger()
	return store, NewTransactionService(store, nil, store, store, nil)
}

func TestLedger_Scenario(t *testing.T) {
	ctx := context.Background()
	store, engine := newMemEngine()
	alice, bob := uuid.New(), uuid.New()
	a := store.open(alice, model.AccountTypeChecking, "100.00")
	b := store.open(bob, model.AccountTypeChecking, "0")

	deposit, err := engine.Deposit(ctx, alice, model.OperationRequest{AccountType: model.AccountTypeChecking, Value: dec("50.00")})
	require.NoError(t, err)
	assert.Equal(t, "150", deposit.Balance.String())

	_, err = engine.Withdraw(ctx, alice, model.OperationRequest{AccountType: model.AccountTypeChecking, Value: dec("200.00")})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, "150", store.balance(a.ID).String())

	transfer, err := engine.Transfer(ctx, alice, model.TransferRequest{AccountType: model.AccountTypeChecking, Value: dec("150.00"), ReceiverID: b.ID})
	require.NoError(t, err)
	assert.True(t, transfer.FromBalance.IsZero())
	assert.Equal(t, "150", transfer.ToBalance.String())
	assert.Equal(t, "0", store.balance(a.ID).String())
	assert.Equal(t, "150", store.balance(b.ID).String())
}

func TestLedger_DepositWithdrawRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, amount := range []string{"0.0001", "1", "19.99", "1000000.5"} {
		store, engine := newMemEngine()
		client := uuid.New()
		acc := store.open(client, model.AccountTypeSavings, "42.4242")
		before := store.balance(acc.ID)

		_, err := engine.Deposit(ctx, client, model.OperationRequest{AccountType: model.AccountTypeSavings, Value: dec(amount)})
		require.NoError(t, err)
		_, err = engine.Withdraw(ctx, client, model.OperationRequest{AccountType: model.AccountTypeSavings, Value: dec(amount)})
		require.NoError(t, err)

		assert.True(t, store.balance(acc.ID).Equal(before), amount)
	}
}

func TestLedger_TransferConservesMoney(t *testing.T) {
	ctx := context.Background()
	for _, amount := range []string{"0.0001", "12.5", "99.9999", "100"} {
		store, engine := newMemEngine()
		alice, bob := uuid.New(), uuid.New()
		a := store.open(alice, model.AccountTypeChecking, "100")
		b := store.open(bob, model.AccountTypeSavings, "7.25")
		total := store.balance(a.ID).Add(store.balance(b.ID))

		_, err := engine.Transfer(ctx, alice, model.TransferRequest{AccountType: model.AccountTypeChecking, Value: dec(amount), ReceiverID: b.ID})
		require.NoError(t, err)

		assert.True(t, store.balance(a.ID).Add(store.balance(b.ID)).Equal(total), amount)
		assert.False(t, store.balance(a.ID).IsNegative())
	}
}

func TestLedger_OverdrawLeavesBalancesUnchanged(t *testing.T) {
	ctx := context.Background()
	store, engine := newMemEngine()
	alice, bob := uuid.New(), uuid.New()
	a := store.open(alice, model.AccountTypeChecking, "10")
	b := store.open(bob, model.AccountTypeChecking, "5")
	store.keys["bob"] = b.ID

	_, err := engine.Withdraw(ctx, alice, model.OperationRequest{AccountType: model.AccountTypeChecking, Value: dec("10.0001")})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = engine.Transfer(ctx, alice, model.TransferRequest{AccountType: model.AccountTypeChecking, Value: dec("11"), ReceiverID: b.ID})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = engine.PayByKey(ctx, alice, model.PixRequest{AccountType: model.AccountTypeChecking, Value: dec("11"), PixKey: "bob"})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	assert.Equal(t, "10", store.balance(a.ID).String())
	assert.Equal(t, "5", store.balance(b.ID).String())
}

func TestLedger_NonPositiveAmountsCauseNoMutation(t *testing.T) {
	ctx := context.Background()
	store, engine := newMemEngine()
	alice, bob := uuid.New(), uuid.New()
	a := store.open(alice, model.AccountTypeChecking, "10")
	b := store.open(bob, model.AccountTypeChecking, "10")
	store.keys["bob"] = b.ID

	for _, value := range []string{"0", "-0.0001", "-50"} {
		amount := dec(value)
		_, err := engine.Deposit(ctx, alice, model.OperationRequest{AccountType: model.AccountTypeChecking, Value: amount})
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, err = engine.Withdraw(ctx, alice, model.OperationRequest{AccountType: model.AccountTypeChecking, Value: amount})
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, err = engine.Transfer(ctx, alice, model.TransferRequest{AccountType: model.AccountTypeChecking, Value: amount, ReceiverID: b.ID})
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, err = engine.PayByKey(ctx, alice, model.PixRequest{AccountType: model.AccountTypeChecking, Value: amount, PixKey: "bob"})
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}

	assert.Equal(t, "10", store.balance(a.ID).String())
	assert.Equal(t, "10", store.balance(b.ID).String())
}

func TestLedger_UnknownKeyLeavesSenderUntouched(t *testing.T) {
	ctx := context.Background()
	store, engine := newMemEngine()
	alice := uuid.New()
	a := store.open(alice, model.AccountTypeChecking, "30")

	_, err := engine.PayByKey(ctx, alice, model.PixRequest{AccountType: model.AccountTypeChecking, Value: dec("5"), PixKey: "ghost"})

	assert.ErrorIs(t, err, ErrPixKeyNotFound)
	assert.Equal(t, "30", store.balance(a.ID).String())
}

func TestLedger_ConcurrentTransfersNeverGoNegative(t *testing.T) {
	ctx := context.Background()
	store, engine := newMemEngine()
	alice, bob := uuid.New(), uuid.New()
	a := store.open(alice, model.AccountTypeChecking, "50")
	b := store.open(bob, model.AccountTypeChecking, "50")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			engine.Transfer(ctx, alice, model.TransferRequest{AccountType: model.AccountTypeChecking, Value: dec("3"), ReceiverID: b.ID})
		}()
		go func() {
			defer wg.Done()
			engine.Transfer(ctx, bob, model.TransferRequest{AccountType: model.AccountTypeChecking, Value: dec("2"), ReceiverID: a.ID})
		}()
	}
	wg.Wait()

	assert.False(t, store.balance(a.ID).IsNegative())
	assert.False(t, store.balance(b.ID).IsNegative())
	assert.Equal(t, "100", store.balance(a.ID).Add(store.balance(b.ID)).String())
}

func TestLedger_AccountTypeUniqueness(t *testing.T) {
	ctx := context.Background()
	store := newMemLedger()
	agencies := new(MockAgencyChecker)
	agencyID := uuid.New()
	agencies.On("Exists", ctx, agencyID).Return(true, nil)
	accounts := NewAccountService(store, agencies, nil)
	client := uuid.New()

	checking, err := accounts.CreateAccount(ctx, client, model.CreateAccountRequest{AccountType: model.AccountTypeChecking, AgencyID: agencyID.String()})
	require.NoError(t, err)
	assert.True(t, checking.Balance.IsZero())

	_, err = accounts.CreateAccount(ctx, client, model.CreateAccountRequest{AccountType: model.AccountTypeChecking, AgencyID: agencyID.String()})
	assert.ErrorIs(t, err, ErrAccountTypeConflict)
	assert.Equal(t, KindConflict, KindOf(err))

	savings, err := accounts.CreateAccount(ctx, client, model.CreateAccountRequest{AccountType: model.AccountTypeSavings, AgencyID: agencyID.String()})
	require.NoError(t, err)

	toChecking := model.AccountTypeChecking
	_, err = accounts.UpdateAccount(ctx, client, savings.ID, model.UpdateAccountRequest{AccountType: &toChecking})
	assert.ErrorIs(t, err, ErrAccountTypeConflict)

	stored, err := store.FindByID(ctx, savings.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AccountTypeSavings, stored.AccountType)

	_, err = accounts.CreateAccount(ctx, uuid.New(), model.CreateAccountRequest{AccountType: model.AccountTypeChecking, AgencyID: agencyID.String()})
	assert.NoError(t, err)
}
