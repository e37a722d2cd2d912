package client

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/teller-banking-ledger/internal/domain/account"
	"github.com/teller-banking-ledger/internal/domain/permission"
	"github.com/teller-banking-ledger/internal/domain/transaction"
	"github.com/teller-banking-ledger/internal/ledger"
)

// mapDirectory is a test AccountDirectory over a plain map.
type mapDirectory map[uuid.UUID]*account.Account

func (m mapDirectory) LookupAccount(number uuid.UUID) (*account.Account, bool) {
	a, ok := m[number]
	return a, ok
}

// MockSink for verifying what reaches the log sink.
type MockSink struct {
	mock.Mock
}

func (m *MockSink) Append(tx transaction.Transaction) {
	m.Called(tx)
}

func d(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func rootKey() permission.AccessKey {
	return permission.AccessKey{Secret: uuid.NewString(), Level: permission.LevelAdmin}
}

type fixture struct {
	dir  mapDirectory
	book *ledger.Ledger
}

func newFixture() *fixture {
	return &fixture{dir: mapDirectory{}, book: ledger.New()}
}

func (f *fixture) newClient(name string) *Client {
	return New(name, f.dir, f.book, slog.Default())
}

// addChecking opens a checking account, registers it with the directory
// and hands the client a key of the given level on it.
func (f *fixture) addChecking(t *testing.T, c *Client, balance int64, level permission.Level, opts ...account.Option) *account.Account {
	t.Helper()
	acct, err := account.NewChecking(c.Name(), d(balance), d(0), rootKey(), opts...)
	require.NoError(t, err)
	f.dir[acct.Number()] = acct
	f.grant(c, acct, level)
	return acct
}

func (f *fixture) addSavings(t *testing.T, c *Client, balance int64, limit *decimal.Decimal, level permission.Level) *account.Account {
	t.Helper()
	acct, err := account.NewSavings(c.Name(), d(balance), d(0), limit, rootKey())
	require.NoError(t, err)
	f.dir[acct.Number()] = acct
	f.grant(c, acct, level)
	return acct
}

func (f *fixture) grant(c *Client, acct *account.Account, level permission.Level) {
	key := permission.AccessKey{Secret: uuid.NewString(), Level: level}
	acct.AddKey(key)
	c.acceptKey(acct.Number(), key)
}

func requireFailed(t *testing.T, res transaction.Transaction, sentinel *transaction.Error) transaction.Failed {
	t.Helper()
	failed, ok := res.(transaction.Failed)
	require.True(t, ok, "expected Failed, got %T", res)
	require.True(t, errors.Is(failed.Err, sentinel), "expected kind %s, got %s", sentinel.Kind, failed.Err.Kind)
	return failed
}

func TestClient_Deposit(t *testing.T) {
	t.Run("Successful", func(t *testing.T) {
		f := newFixture()
		c := f.newClient("Jane Doe")
		acct := f.addChecking(t, c, 500, permission.LevelDeposit)

		res := c.Deposit(d(250), acct.Number())

		dep, ok := res.(transaction.Deposit)
		require.True(t, ok, "expected Deposit, got %T", res)
		assert.True(t, dep.NewBalance.Equal(d(750)))
		assert.Equal(t, 1, f.book.Len(), "result must be logged")
	})

	t.Run("ExactLevelRequired", func(t *testing.T) {
		// An admin key would authorize the deposit itself, but the
		// orchestrator pre-check wants exactly deposit-level.
		f := newFixture()
		c := f.newClient("Jane Doe")
		acct := f.addChecking(t, c, 500, permission.LevelAdmin)

		res := c.Deposit(d(250), acct.Number())

		requireFailed(t, res, transaction.ErrAccessDenied)
		assert.True(t, acct.Balance().Equal(d(500)))
	})

	t.Run("NoKeyForAccount", func(t *testing.T) {
		f := newFixture()
		c := f.newClient("Jane Doe")

		res := c.Deposit(d(250), uuid.New())
		requireFailed(t, res, transaction.ErrAccessDenied)
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		f := newFixture()
		c := f.newClient("Jane Doe")
		// Key registered but the account vanished from the directory.
		orphan := uuid.New()
		c.acceptKey(orphan, permission.AccessKey{Secret: "k", Level: permission.LevelDeposit})

		res := c.Deposit(d(250), orphan)
		requireFailed(t, res, transaction.ErrSystem)
	})
}

func TestClient_Withdraw(t *testing.T) {
	f := newFixture()
	c := f.newClient("Jane Doe")
	limit := d(1000)
	acct := f.addSavings(t, c, 2000, &limit, permission.LevelWithdraw)

	res := c.Withdraw(d(1500), acct.Number())

	partial, ok := res.(transaction.Partial)
	require.True(t, ok, "expected Partial, got %T", res)
	assert.True(t, partial.Withdrawn.Equal(d(1000)))
	assert.True(t, partial.Remainder.Equal(d(500)))
	assert.True(t, acct.Balance().Equal(d(1000)))
}

func TestClient_Spend(t *testing.T) {
	t.Run("BothLegsApply", func(t *testing.T) {
		f := newFixture()
		buyer := f.newClient("Jane Doe")
		seller := f.newClient("Bob's Groceries")
		payerAcct := f.addChecking(t, buyer, 500, permission.LevelWithdraw)
		sellerAcct := f.addChecking(t, seller, 800, permission.LevelAdmin)

		res := buyer.Spend(d(300), payerAcct.Number(), sellerAcct.Number())

		purchase, ok := res.(transaction.Purchase)
		require.True(t, ok, "expected Purchase, got %T", res)
		assert.Equal(t, "Bob's Groceries", purchase.Seller)
		assert.True(t, payerAcct.Balance().Equal(d(200)), "payer debited")
		assert.True(t, sellerAcct.Balance().Equal(d(1100)), "seller credited")
	})

	t.Run("PayerFailureSkipsSellerLeg", func(t *testing.T) {
		f := newFixture()
		buyer := f.newClient("Jane Doe")
		seller := f.newClient("Bob's Groceries")
		payerAcct := f.addChecking(t, buyer, 100, permission.LevelWithdraw)
		sellerAcct := f.addChecking(t, seller, 800, permission.LevelAdmin)

		res := buyer.Spend(d(300), payerAcct.Number(), sellerAcct.Number())

		requireFailed(t, res, transaction.ErrInsufficientFunds)
		assert.True(t, payerAcct.Balance().Equal(d(100)))
		assert.True(t, sellerAcct.Balance().Equal(d(800)), "seller leg must not run")
	})

	t.Run("ExactWithdrawLevelRequired", func(t *testing.T) {
		f := newFixture()
		buyer := f.newClient("Jane Doe")
		seller := f.newClient("Bob's Groceries")
		payerAcct := f.addChecking(t, buyer, 500, permission.LevelAdmin)
		sellerAcct := f.addChecking(t, seller, 800, permission.LevelAdmin)

		res := buyer.Spend(d(300), payerAcct.Number(), sellerAcct.Number())

		requireFailed(t, res, transaction.ErrAccessDenied)
		assert.True(t, payerAcct.Balance().Equal(d(500)))
	})

	t.Run("UnknownSeller", func(t *testing.T) {
		f := newFixture()
		buyer := f.newClient("Jane Doe")
		payerAcct := f.addChecking(t, buyer, 500, permission.LevelWithdraw)

		res := buyer.Spend(d(300), payerAcct.Number(), uuid.New())
		requireFailed(t, res, transaction.ErrSystem)
	})
}

func TestClient_Bill(t *testing.T) {
	f := newFixture()
	payer := f.newClient("Jane Doe")
	biller := f.newClient("Acme Utilities")
	payerAcct := f.addChecking(t, payer, 500, permission.LevelWithdraw)

	receiverAcct, err := account.NewBilling(biller.Name(), d(0), d(0), rootKey())
	require.NoError(t, err)
	f.dir[receiverAcct.Number()] = receiverAcct

	res := payer.Bill(d(75), payerAcct.Number(), receiverAcct.Number(), "electricity")

	bill, ok := res.(transaction.Bill)
	require.True(t, ok, "expected Bill, got %T", res)
	assert.Equal(t, "electricity", bill.Reason)
	assert.True(t, payerAcct.Balance().Equal(d(425)))
	assert.True(t, receiverAcct.Balance().Equal(d(75)))
}

func TestClient_Transfer(t *testing.T) {
	setup := func(t *testing.T, fromBalance int64, limit *decimal.Decimal) (*fixture, *Client, *account.Account, *account.Account) {
		t.Helper()
		f := newFixture()
		c := f.newClient("Jane Doe")
		from := f.addSavings(t, c, fromBalance, limit, permission.LevelWithdraw)
		to := f.addChecking(t, c, 500, permission.LevelDeposit)
		return f, c, from, to
	}

	t.Run("FullAmountMoves", func(t *testing.T) {
		limit := d(1000)
		_, c, from, to := setup(t, 2000, &limit)

		res := c.Transfer(d(300), from.Number(), to.Number())

		tr, ok := res.(transaction.Transfer)
		require.True(t, ok, "expected Transfer, got %T", res)
		assert.True(t, tr.Amount.Equal(d(300)))
		assert.True(t, from.Balance().Equal(d(1700)))
		assert.True(t, to.Balance().Equal(d(800)))
	})

	t.Run("PartialWithdrawalMovesOnlyTheClampedAmount", func(t *testing.T) {
		limit := d(1000)
		_, c, from, to := setup(t, 2000, &limit)

		res := c.Transfer(d(1500), from.Number(), to.Number())

		tr, ok := res.(transaction.Transfer)
		require.True(t, ok, "expected Transfer, got %T", res)
		assert.True(t, tr.Amount.Equal(d(1000)), "only the withdrawn amount moves")
		assert.True(t, from.Balance().Equal(d(1000)))
		assert.True(t, to.Balance().Equal(d(1500)), "the shortfall never reaches the destination")
	})

	t.Run("FailedWithdrawalStillRunsZeroDepositLeg", func(t *testing.T) {
		limit := d(1000)
		_, c, from, to := setup(t, 100, &limit)

		res := c.Transfer(d(800), from.Number(), to.Number())

		failed := requireFailed(t, res, transaction.ErrTransaction)
		assert.Contains(t, failed.Err.Message, "INSUFFICIENT_FUNDS")
		assert.True(t, from.Balance().Equal(d(100)))
		assert.True(t, to.Balance().Equal(d(500)), "zero deposit must be a no-op")
	})

	t.Run("ExactLevelsRequired", func(t *testing.T) {
		f := newFixture()
		c := f.newClient("Jane Doe")
		limit := d(1000)
		from := f.addSavings(t, c, 2000, &limit, permission.LevelAdmin)
		to := f.addChecking(t, c, 500, permission.LevelDeposit)

		res := c.Transfer(d(300), from.Number(), to.Number())

		requireFailed(t, res, transaction.ErrAccessDenied)
		assert.True(t, from.Balance().Equal(d(2000)))
		assert.True(t, to.Balance().Equal(d(500)))
	})
}

func TestClient_RequestBalance(t *testing.T) {
	t.Run("SingleAccount", func(t *testing.T) {
		f := newFixture()
		c := f.newClient("Jane Doe")
		acct := f.addChecking(t, c, 500, permission.LevelView)

		res := c.RequestBalance(acct.Number())

		rb, ok := res.(transaction.RequestBalance)
		require.True(t, ok, "expected RequestBalance, got %T", res)
		assert.Equal(t, 1, rb.Accounts)
		assert.True(t, rb.Balance.Equal(d(500)))
		assert.True(t, acct.Balance().Equal(d(500)), "balance requests are read-only")
	})

	t.Run("AllAccountsSummedUnderIdentityKey", func(t *testing.T) {
		f := newFixture()
		c := f.newClient("Jane Doe")
		f.addChecking(t, c, 500, permission.LevelView)
		limit := d(1000)
		f.addSavings(t, c, 2000, &limit, permission.LevelView)

		res := c.RequestBalanceAll()

		rb, ok := res.(transaction.RequestBalance)
		require.True(t, ok, "expected RequestBalance, got %T", res)
		assert.Equal(t, 2, rb.Accounts)
		assert.True(t, rb.Balance.Equal(d(2500)))
		assert.Equal(t, permission.LevelView, rb.Key.Level, "aggregate report carries the identity key")
	})
}

func TestClient_InitAccount(t *testing.T) {
	t.Run("RootKeyInitializes", func(t *testing.T) {
		f := newFixture()
		c := f.newClient("Jane Doe")
		root := rootKey()
		acct, err := account.NewChecking(c.Name(), d(500), d(0), root)
		require.NoError(t, err)
		f.dir[acct.Number()] = acct

		res := c.InitAccount(root, acct, permission.LevelAdmin)

		init, ok := res.(transaction.InitAccount)
		require.True(t, ok, "expected InitAccount, got %T", res)
		assert.Equal(t, permission.LevelAdmin, init.Level)

		key, ok := c.KeyFor(acct.Number())
		require.True(t, ok)
		assert.Equal(t, permission.LevelAdmin, key.Level)
		assert.True(t, acct.HoldsKey(key.Secret))
	})

	t.Run("NonAdminKeyRefused", func(t *testing.T) {
		f := newFixture()
		c := f.newClient("Jane Doe")
		acct, err := account.NewChecking(c.Name(), d(500), d(0), rootKey())
		require.NoError(t, err)
		f.dir[acct.Number()] = acct

		weak := permission.AccessKey{Secret: uuid.NewString(), Level: permission.LevelWithdraw}
		acct.AddKey(weak)

		res := c.InitAccount(weak, acct, permission.LevelAdmin)

		failed := requireFailed(t, res, transaction.ErrSystem)
		assert.Contains(t, failed.Err.Message, "admin permission")
		assert.False(t, c.HasKeyFor(acct.Number()))
	})
}

func TestClient_AddAccount(t *testing.T) {
	t.Run("AdminGrantsJointKey", func(t *testing.T) {
		f := newFixture()
		owner := f.newClient("Jane Doe")
		joint := f.newClient("John Doe")
		acct := f.addChecking(t, owner, 500, permission.LevelAdmin)
		adminKey, _ := owner.KeyFor(acct.Number())

		res := owner.AddAccount(adminKey, acct, joint, permission.LevelDeposit)

		added, ok := res.(transaction.AddToAccount)
		require.True(t, ok, "expected AddToAccount, got %T", res)
		assert.Equal(t, "John Doe", added.Principal)

		key, ok := joint.KeyFor(acct.Number())
		require.True(t, ok)
		assert.Equal(t, permission.LevelDeposit, key.Level)
		assert.True(t, acct.HoldsKey(key.Secret))
		assert.Contains(t, acct.Owners(), "John Doe")
	})

	t.Run("NonAdminCallerKeyRefused", func(t *testing.T) {
		f := newFixture()
		owner := f.newClient("Jane Doe")
		joint := f.newClient("John Doe")
		acct := f.addChecking(t, owner, 500, permission.LevelWithdraw)
		withdrawKey, _ := owner.KeyFor(acct.Number())

		res := owner.AddAccount(withdrawKey, acct, joint, permission.LevelDeposit)

		failed := requireFailed(t, res, transaction.ErrSystem)
		assert.Contains(t, failed.Err.Message, "admin permission")
		assert.False(t, joint.HasKeyFor(acct.Number()), "no key may be added on failure")
	})

	t.Run("ForeignAdminKeyRefused", func(t *testing.T) {
		// Admin level alone is not enough: the key must also be
		// registered on the target account.
		f := newFixture()
		owner := f.newClient("Jane Doe")
		joint := f.newClient("John Doe")
		acct := f.addChecking(t, owner, 500, permission.LevelAdmin)

		foreign := permission.AccessKey{Secret: uuid.NewString(), Level: permission.LevelAdmin}
		res := owner.AddAccount(foreign, acct, joint, permission.LevelDeposit)

		requireFailed(t, res, transaction.ErrSystem)
		assert.False(t, joint.HasKeyFor(acct.Number()))
	})
}

func TestClient_RecordsToSink(t *testing.T) {
	sink := &MockSink{}
	sink.On("Append", mock.AnythingOfType("transaction.Deposit")).Once()

	dir := mapDirectory{}
	c := New("Jane Doe", dir, sink, slog.Default())
	acct, err := account.NewChecking(c.Name(), d(500), d(0), rootKey())
	require.NoError(t, err)
	dir[acct.Number()] = acct

	key := permission.AccessKey{Secret: uuid.NewString(), Level: permission.LevelDeposit}
	acct.AddKey(key)
	c.acceptKey(acct.Number(), key)

	c.Deposit(d(100), acct.Number())

	sink.AssertExpectations(t)
}
