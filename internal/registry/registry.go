// Package registry is the bank-side bookkeeping: it owns every account,
// routes lookups by account number and principal name, and bootstraps new
// accounts with the injected root capability.
package registry

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/teller-banking-ledger/internal/client"
	"github.com/teller-banking-ledger/internal/domain/account"
	"github.com/teller-banking-ledger/internal/domain/permission"
	"github.com/teller-banking-ledger/internal/domain/transaction"
	"github.com/teller-banking-ledger/internal/ledger"
)

// Common errors
var (
	ErrRootKeyNotAdmin = errors.New("root key must be admin-level")
	ErrClientExists    = errors.New("client is already registered")
	ErrUnknownClient   = errors.New("client is not registered")
)

// Registry owns the authoritative account and client tables. Accounts are
// held exclusively here; clients reference them by number through the
// lookup methods. The root key is injected at construction and installed
// as the bootstrap key on every account created.
type Registry struct {
	mu       sync.Mutex
	rootKey  permission.AccessKey
	accounts map[uuid.UUID]*account.Account
	clients  map[string]*client.Client
	sink     ledger.Sink
	logger   *slog.Logger
}

// New creates a registry around the given root capability.
func New(rootKey permission.AccessKey, sink ledger.Sink, logger *slog.Logger) (*Registry, error) {
	if rootKey.Level != permission.LevelAdmin {
		return nil, ErrRootKeyNotAdmin
	}
	return &Registry{
		rootKey:  rootKey,
		accounts: make(map[uuid.UUID]*account.Account),
		clients:  make(map[string]*client.Client),
		sink:     sink,
		logger:   logger,
	}, nil
}

// RegisterClient creates and registers the orchestrator for a principal.
func (r *Registry) RegisterClient(name string) (*client.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[name]; ok {
		return nil, ErrClientExists
	}
	c := client.New(name, r, r.sink, r.logger)
	r.clients[name] = c
	return c, nil
}

// LookupClient resolves a principal name to its orchestrator.
func (r *Registry) LookupClient(name string) (*client.Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[name]
	return c, ok
}

// LookupAccount resolves an account number to the account handle.
func (r *Registry) LookupAccount(number uuid.UUID) (*account.Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[number]
	return a, ok
}

// Accounts returns a snapshot of every registered account.
func (r *Registry) Accounts() []*account.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*account.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		out = append(out, a)
	}
	return out
}

// CreateSavings opens a savings account for a registered principal. A nil
// withdraw limit leaves the limit flag enabled but unconfigured.
func (r *Registry) CreateSavings(owner string, balance, rate decimal.Decimal, withdrawLimit *decimal.Decimal) (uuid.UUID, error) {
	return r.create(owner, func() (*account.Account, error) {
		return account.NewSavings(owner, balance, rate, withdrawLimit, r.rootKey)
	})
}

// CreateChecking opens a checking account for a registered principal.
func (r *Registry) CreateChecking(owner string, balance, rate decimal.Decimal, opts ...account.Option) (uuid.UUID, error) {
	return r.create(owner, func() (*account.Account, error) {
		return account.NewChecking(owner, balance, rate, r.rootKey, opts...)
	})
}

// CreateBilling opens a billing account for a registered principal.
func (r *Registry) CreateBilling(owner string, balance, rate decimal.Decimal) (uuid.UUID, error) {
	return r.create(owner, func() (*account.Account, error) {
		return account.NewBilling(owner, balance, rate, r.rootKey)
	})
}

// create runs the shared bootstrap: build the account with the root key
// installed, register it, log the creation, then have the owning principal
// accept an admin key minted under the root capability.
func (r *Registry) create(owner string, build func() (*account.Account, error)) (uuid.UUID, error) {
	r.mu.Lock()
	owning, ok := r.clients[owner]
	r.mu.Unlock()
	if !ok {
		return uuid.Nil, ErrUnknownClient
	}

	acct, err := build()
	if err != nil {
		return uuid.Nil, err
	}

	r.mu.Lock()
	r.accounts[acct.Number()] = acct
	r.mu.Unlock()

	r.sink.Append(transaction.CreateAccount{
		Owner:   owner,
		Kind:    acct.Kind().String(),
		Account: acct.Number(),
		Balance: acct.Balance(),
	})
	owning.InitAccount(r.rootKey, acct, permission.LevelAdmin)

	r.logger.Info("account created",
		"account", acct.Number().String(),
		"kind", acct.Kind().String(),
		"owner", owner,
	)
	return acct.Number(), nil
}
