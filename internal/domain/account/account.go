// Package account implements the per-account state machine: a bank account
// owns its balance and static configuration, and every balance mutation goes
// through Transact.
package account

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/teller-banking-ledger/internal/domain/permission"
)

// Common errors
var (
	ErrEmptyOwnerName      = errors.New("owner name cannot be empty")
	ErrNegativeBalance     = errors.New("initial balance cannot be negative")
	ErrNegativeRate        = errors.New("interest rate cannot be negative")
	ErrMissingBootstrapKey = errors.New("account requires an initial access key")
)

// Kind identifies the concrete account type.
type Kind int

const (
	KindSavings Kind = iota
	KindChecking
	KindBilling
)

func (k Kind) String() string {
	switch k {
	case KindSavings:
		return "Savings"
	case KindChecking:
		return "Checking"
	case KindBilling:
		return "Billing"
	default:
		return "Unknown"
	}
}

// Flag is a per-account capability toggle. A flag may be enabled without a
// limit; limits only exist for flags that carry one.
type Flag string

const (
	FlagWithdrawLimit Flag = "withdraw_limit"
	FlagCanPurchase   Flag = "can_purchase"
	FlagBillable      Flag = "billable"
	FlagOverdraftFee  Flag = "overdraft_fee"
)

// Account is a bank account. The balance is mutated only inside Transact
// and ApplyInterest; a mutex serializes those calls so the authorization
// check and the balance update are atomic per account. Cross-account
// operations are composed of independent calls and are not atomic as a
// whole.
type Account struct {
	mu           sync.Mutex
	number       uuid.UUID
	kind         Kind
	balance      decimal.Decimal
	interestRate decimal.Decimal
	owners       []string
	keys         map[string]permission.AccessKey
	flags        map[Flag]struct{}
	limits       map[Flag]decimal.Decimal
}

func newAccount(kind Kind, owner string, balance, rate decimal.Decimal, bootstrap permission.AccessKey) (*Account, error) {
	if owner == "" {
		return nil, ErrEmptyOwnerName
	}
	if balance.IsNegative() {
		return nil, ErrNegativeBalance
	}
	if rate.IsNegative() {
		return nil, ErrNegativeRate
	}
	if bootstrap.Secret == "" {
		return nil, ErrMissingBootstrapKey
	}

	return &Account{
		number:       uuid.New(),
		kind:         kind,
		balance:      balance,
		interestRate: rate,
		owners:       []string{owner},
		keys:         map[string]permission.AccessKey{bootstrap.Secret: bootstrap},
		flags:        make(map[Flag]struct{}),
		limits:       make(map[Flag]decimal.Decimal),
	}, nil
}

// NewSavings creates a savings account. The withdraw-limit flag is always
// enabled; passing a nil limit leaves it enabled without a configured value,
// which every withdrawal reports as a system error until one is set.
func NewSavings(owner string, balance, rate decimal.Decimal, withdrawLimit *decimal.Decimal, bootstrap permission.AccessKey) (*Account, error) {
	a, err := newAccount(KindSavings, owner, balance, rate, bootstrap)
	if err != nil {
		return nil, err
	}
	a.flags[FlagWithdrawLimit] = struct{}{}
	if withdrawLimit != nil {
		a.limits[FlagWithdrawLimit] = *withdrawLimit
	}
	return a, nil
}

// Option configures optional flags on a checking account.
type Option func(*Account)

// WithWithdrawLimit enables the withdraw-limit flag with the given cap.
func WithWithdrawLimit(limit decimal.Decimal) Option {
	return func(a *Account) {
		a.flags[FlagWithdrawLimit] = struct{}{}
		a.limits[FlagWithdrawLimit] = limit
	}
}

// WithOverdraftFee enables the overdraft-fee flag with the given fee.
func WithOverdraftFee(fee decimal.Decimal) Option {
	return func(a *Account) {
		a.flags[FlagOverdraftFee] = struct{}{}
		a.limits[FlagOverdraftFee] = fee
	}
}

// NewChecking creates a checking account. Purchases and billing are always
// enabled; a withdraw limit and an overdraft fee are optional.
func NewChecking(owner string, balance, rate decimal.Decimal, bootstrap permission.AccessKey, opts ...Option) (*Account, error) {
	a, err := newAccount(KindChecking, owner, balance, rate, bootstrap)
	if err != nil {
		return nil, err
	}
	a.flags[FlagCanPurchase] = struct{}{}
	a.flags[FlagBillable] = struct{}{}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// NewBilling creates a billing account, enabled for billing only.
func NewBilling(owner string, balance, rate decimal.Decimal, bootstrap permission.AccessKey) (*Account, error) {
	a, err := newAccount(KindBilling, owner, balance, rate, bootstrap)
	if err != nil {
		return nil, err
	}
	a.flags[FlagBillable] = struct{}{}
	return a, nil
}

// Number returns the account identifier.
func (a *Account) Number() uuid.UUID {
	return a.number
}

// Kind returns the concrete account type.
func (a *Account) Kind() Kind {
	return a.kind
}

// Balance returns the current balance.
func (a *Account) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// InterestRate returns the per-accrual interest rate.
func (a *Account) InterestRate() decimal.Decimal {
	return a.interestRate
}

// Owners returns a copy of the ordered owner list.
func (a *Account) Owners() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.owners))
	copy(out, a.owners)
	return out
}

// FirstOwner returns the primary owner's name.
func (a *Account) FirstOwner() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.owners[0]
}

// AddKey registers an access key on the account. Keys are never removed,
// so the account always holds at least its bootstrap key.
func (a *Account) AddKey(key permission.AccessKey) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys[key.Secret] = key
}

// AddOwner appends a joint owner to the ordered owner list.
func (a *Account) AddOwner(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.owners = append(a.owners, name)
}

// HoldsKey reports whether a key with the given secret is registered.
func (a *Account) HoldsKey(secret string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.keys[secret]
	return ok
}

// Flagged reports whether the given flag is enabled.
func (a *Account) Flagged(flag Flag) bool {
	_, ok := a.flags[flag]
	return ok
}

// Limit returns the configured limit for a flag, if any.
func (a *Account) Limit(flag Flag) (decimal.Decimal, bool) {
	limit, ok := a.limits[flag]
	return limit, ok
}

// Authorizes reports whether the key grants the required level on this
// account, verifying the key and the target account number together: a key
// presented against the wrong number never authorizes, regardless of level.
// The stored key's level is authoritative; the presented level is ignored.
func (a *Account) Authorizes(key permission.AccessKey, number uuid.UUID, required permission.Level) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.authorizes(key, number, required)
}

func (a *Account) authorizes(key permission.AccessKey, number uuid.UUID, required permission.Level) bool {
	if number != a.number {
		return false
	}
	stored, ok := a.keys[key.Secret]
	if !ok {
		return false
	}
	return stored.Level.Authorizes(required)
}
