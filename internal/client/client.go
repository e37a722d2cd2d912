// Package client implements the per-principal orchestrator: it resolves
// access keys and account handles, composes single-account operations into
// transfers, purchases and bills, and pushes every outcome to the log sink.
package client

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/teller-banking-ledger/internal/domain/account"
	"github.com/teller-banking-ledger/internal/domain/permission"
	"github.com/teller-banking-ledger/internal/domain/transaction"
	"github.com/teller-banking-ledger/internal/ledger"
)

// AccountDirectory resolves account numbers to account handles. The
// registry implements it; clients hold accounts by number only.
type AccountDirectory interface {
	LookupAccount(number uuid.UUID) (*account.Account, bool)
}

// Client is the orchestrator acting for one principal. It owns the
// principal's key table (account number to access key) and a view-level
// identity key used for aggregate balance reports.
type Client struct {
	mu       sync.Mutex
	name     string
	identity permission.AccessKey
	keys     map[uuid.UUID]permission.AccessKey
	dir      AccountDirectory
	sink     ledger.Sink
	logger   *slog.Logger
}

// New creates a client for the named principal.
func New(name string, dir AccountDirectory, sink ledger.Sink, logger *slog.Logger) *Client {
	return &Client{
		name:     name,
		identity: permission.AccessKey{Secret: uuid.NewString(), Level: permission.LevelView},
		keys:     make(map[uuid.UUID]permission.AccessKey),
		dir:      dir,
		sink:     sink,
		logger:   logger.With("client", name),
	}
}

// Name returns the principal's name.
func (c *Client) Name() string {
	return c.name
}

// KeyFor returns the principal's key on the account, if any. Privileged
// operations take a caller-supplied key, so the holder hands it over
// explicitly rather than the operation reaching into the key table.
func (c *Client) KeyFor(number uuid.UUID) (permission.AccessKey, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key, ok := c.keys[number]
	return key, ok
}

// HasKeyFor reports whether the principal holds a key on the account.
func (c *Client) HasKeyFor(number uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.keys[number]
	return ok
}

// record pushes the final outcome to the log sink and returns it.
func (c *Client) record(tx transaction.Transaction) transaction.Transaction {
	if failed, ok := tx.(transaction.Failed); ok {
		c.logger.Warn("transaction failed", "error", failed.Err)
	} else {
		c.logger.Info("transaction recorded", "description", tx.Describe())
	}
	c.sink.Append(tx)
	return tx
}

// resolve looks up the principal's key and the account handle for the
// given account number.
func (c *Client) resolve(number uuid.UUID) (permission.AccessKey, *account.Account, *transaction.Error) {
	c.mu.Lock()
	key, ok := c.keys[number]
	c.mu.Unlock()
	if !ok {
		return permission.AccessKey{}, nil, transaction.NewAccessDenied(
			"%s holds no access key for account %s", c.name, number)
	}
	acct, ok := c.dir.LookupAccount(number)
	if !ok {
		return permission.AccessKey{}, nil, transaction.NewSystemError(
			"account %s is not registered", number)
	}
	return key, acct, nil
}

// Deposit credits the account. The resolved key must be exactly
// deposit-level; super-privileged keys are rejected by this pre-check even
// though they would authorize the deposit itself.
func (c *Client) Deposit(amount decimal.Decimal, acc uuid.UUID) transaction.Transaction {
	key, acct, terr := c.resolve(acc)
	if terr != nil {
		return c.record(transaction.Failed{Err: terr})
	}
	if key.Level != permission.LevelDeposit {
		return c.record(transaction.Failed{Err: transaction.NewAccessDenied(
			"deposit requires a %s key, %s holds %s", permission.LevelDeposit, c.name, key.Level)})
	}
	return c.record(acct.Transact(transaction.Deposit{
		Client:  c.name,
		Amount:  amount,
		Account: acc,
		Key:     key,
	}))
}

// Withdraw debits the account. The resolved key must be exactly
// withdraw-level.
func (c *Client) Withdraw(amount decimal.Decimal, acc uuid.UUID) transaction.Transaction {
	key, acct, terr := c.resolve(acc)
	if terr != nil {
		return c.record(transaction.Failed{Err: terr})
	}
	if key.Level != permission.LevelWithdraw {
		return c.record(transaction.Failed{Err: transaction.NewAccessDenied(
			"withdrawal requires a %s key, %s holds %s", permission.LevelWithdraw, c.name, key.Level)})
	}
	return c.record(acct.Transact(transaction.Withdraw{
		Client:  c.name,
		Amount:  amount,
		Account: acc,
		Key:     key,
	}))
}

// Spend purchases from the seller's account with funds from the payer's.
// One purchase request is submitted to the payer account first and, on
// success, the same value to the seller account; each account applies its
// own side. The two legs are independent calls with no rollback: a failure
// after the payer leg leaves the payer debited without crediting the
// seller.
func (c *Client) Spend(amount decimal.Decimal, payerAcc, sellerAcc uuid.UUID) transaction.Transaction {
	key, payer, terr := c.resolve(payerAcc)
	if terr != nil {
		return c.record(transaction.Failed{Err: terr})
	}
	if key.Level != permission.LevelWithdraw {
		return c.record(transaction.Failed{Err: transaction.NewAccessDenied(
			"spending requires a %s key, %s holds %s", permission.LevelWithdraw, c.name, key.Level)})
	}
	seller, ok := c.dir.LookupAccount(sellerAcc)
	if !ok {
		return c.record(transaction.Failed{Err: transaction.NewSystemError(
			"account %s is not registered", sellerAcc)})
	}

	req := transaction.Purchase{
		Buyer:       c.name,
		Price:       amount,
		Key:         key,
		FromAccount: payerAcc,
		FromKind:    payer.Kind().String(),
		ToAccount:   sellerAcc,
		Seller:      seller.FirstOwner(),
	}

	res := payer.Transact(req)
	if purchase, ok := res.(transaction.Purchase); ok {
		res = seller.Transact(purchase)
	}
	return c.record(res)
}

// Bill pays a bill from the payer's account into the receiver's account.
// Like Spend it is two independent legs sharing one request, with no
// rollback if the second leg fails.
func (c *Client) Bill(amount decimal.Decimal, payerAcc, receiverAcc uuid.UUID, reason string) transaction.Transaction {
	key, payer, terr := c.resolve(payerAcc)
	if terr != nil {
		return c.record(transaction.Failed{Err: terr})
	}
	if key.Level != permission.LevelWithdraw {
		return c.record(transaction.Failed{Err: transaction.NewAccessDenied(
			"paying a bill requires a %s key, %s holds %s", permission.LevelWithdraw, c.name, key.Level)})
	}
	receiver, ok := c.dir.LookupAccount(receiverAcc)
	if !ok {
		return c.record(transaction.Failed{Err: transaction.NewSystemError(
			"account %s is not registered", receiverAcc)})
	}

	req := transaction.Bill{
		Payer:           c.name,
		Amount:          amount,
		Key:             key,
		PayerAccount:    payerAcc,
		PayerKind:       payer.Kind().String(),
		ReceiverAccount: receiverAcc,
		Receiver:        receiver.FirstOwner(),
		Reason:          reason,
	}

	res := payer.Transact(req)
	if bill, ok := res.(transaction.Bill); ok {
		res = receiver.Transact(bill)
	}
	return c.record(res)
}

// Transfer moves value between two accounts the principal holds keys for.
// The withdraw leg runs first; a partial withdrawal deposits only what was
// actually withdrawn, and a failed withdrawal still issues a zero-amount
// deposit so both legs always run. The zero deposit must stay a harmless
// no-op credit.
func (c *Client) Transfer(amount decimal.Decimal, fromAcc, toAcc uuid.UUID) transaction.Transaction {
	fromKey, from, terr := c.resolve(fromAcc)
	if terr != nil {
		return c.record(transaction.Failed{Err: terr})
	}
	toKey, to, terr := c.resolve(toAcc)
	if terr != nil {
		return c.record(transaction.Failed{Err: terr})
	}
	if fromKey.Level != permission.LevelWithdraw || toKey.Level != permission.LevelDeposit {
		return c.record(transaction.Failed{Err: transaction.NewAccessDenied(
			"transfer requires a %s key on the source and a %s key on the destination",
			permission.LevelWithdraw, permission.LevelDeposit)})
	}

	wres := from.Transact(transaction.Withdraw{
		Client:  c.name,
		Amount:  amount,
		Account: fromAcc,
		Key:     fromKey,
	})

	deposit := func(amt decimal.Decimal) transaction.Transaction {
		return to.Transact(transaction.Deposit{
			Client:  c.name,
			Amount:  amt,
			Account: toAcc,
			Key:     toKey,
		})
	}

	switch w := wres.(type) {
	case transaction.Withdraw:
		deposit(amount)
		return c.record(transaction.Transfer{Client: c.name, Amount: amount, From: fromAcc, To: toAcc})
	case transaction.Partial:
		// Only what was actually withdrawn moves; the shortfall was never
		// available.
		deposit(w.Withdrawn)
		return c.record(transaction.Transfer{Client: c.name, Amount: w.Withdrawn, From: fromAcc, To: toAcc})
	case transaction.Failed:
		deposit(decimal.Zero)
		return c.record(transaction.Failed{Err: transaction.NewTransactionError(
			"transfer of %s from account %s failed: %v", amount.StringFixed(2), fromAcc, w.Err)})
	default:
		return c.record(transaction.Failed{Err: transaction.NewSystemError(
			"unexpected withdrawal result %T", wres)})
	}
}

// RequestBalance reports the balance of one account the principal holds a
// key for. Read-only; the account never sees a transaction request.
func (c *Client) RequestBalance(acc uuid.UUID) transaction.Transaction {
	_, acct, terr := c.resolve(acc)
	if terr != nil {
		return c.record(transaction.Failed{Err: terr})
	}
	return c.record(transaction.RequestBalance{
		Client:   c.name,
		Account:  acc,
		Accounts: 1,
		Balance:  acct.Balance(),
	})
}

// RequestBalanceAll reports the summed balance across every account the
// principal holds a key for, under the principal's identity key.
func (c *Client) RequestBalanceAll() transaction.Transaction {
	c.mu.Lock()
	numbers := make([]uuid.UUID, 0, len(c.keys))
	for number := range c.keys {
		numbers = append(numbers, number)
	}
	c.mu.Unlock()

	total := decimal.Zero
	counted := 0
	for _, number := range numbers {
		if acct, ok := c.dir.LookupAccount(number); ok {
			total = total.Add(acct.Balance())
			counted++
		}
	}
	return c.record(transaction.RequestBalance{
		Client:   c.name,
		Accounts: counted,
		Balance:  total,
		Key:      c.identity,
	})
}

// InitAccount accepts this principal's first key on a freshly created
// account. The supplied authorization key must be exactly admin-level and
// registered on the account; the registry's root key satisfies both.
func (c *Client) InitAccount(authKey permission.AccessKey, acct *account.Account, level permission.Level) transaction.Transaction {
	if authKey.Level != permission.LevelAdmin || !acct.Authorizes(authKey, acct.Number(), permission.LevelAdmin) {
		return c.record(transaction.Failed{Err: transaction.NewSystemError(
			"initializing account %s requires admin permission", acct.Number())})
	}

	key := permission.AccessKey{Secret: uuid.NewString(), Level: level}
	acct.AddKey(key)
	c.acceptKey(acct.Number(), key)
	return c.record(transaction.InitAccount{Principal: c.name, Account: acct.Number(), Level: level})
}

// AddAccount grants another principal a key on an account this principal
// administers. The supplied authorization key must be exactly admin-level
// and registered on the account; otherwise no key is minted.
func (c *Client) AddAccount(authKey permission.AccessKey, acct *account.Account, joint *Client, level permission.Level) transaction.Transaction {
	if authKey.Level != permission.LevelAdmin || !acct.Authorizes(authKey, acct.Number(), permission.LevelAdmin) {
		return c.record(transaction.Failed{Err: transaction.NewSystemError(
			"adding a principal to account %s requires admin permission", acct.Number())})
	}

	key := permission.AccessKey{Secret: uuid.NewString(), Level: level}
	acct.AddKey(key)
	acct.AddOwner(joint.name)
	joint.acceptKey(acct.Number(), key)
	return c.record(transaction.AddToAccount{Principal: joint.name, Account: acct.Number(), Level: level})
}

func (c *Client) acceptKey(number uuid.UUID, key permission.AccessKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[number] = key
}
