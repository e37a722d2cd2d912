// Package interest runs periodic interest accrual across every account on
// a worker pool. Accruals on distinct accounts are independent (each
// account serializes its own balance mutations), so the sweep fans out one
// task per account.
package interest

import (
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/teller-banking-ledger/internal/domain/account"
	"github.com/teller-banking-ledger/internal/domain/transaction"
	"github.com/teller-banking-ledger/internal/ledger"
)

// AccountSource yields the accounts a sweep covers.
type AccountSource interface {
	Accounts() []*account.Account
}

// Sweeper applies one round of interest per account and records each
// accrual on the log sink.
type Sweeper struct {
	pool   *ants.Pool
	source AccountSource
	sink   ledger.Sink
	logger *slog.Logger
}

// NewSweeper creates a sweeper backed by a pool of the given size.
func NewSweeper(source AccountSource, sink ledger.Sink, poolSize int, logger *slog.Logger) (*Sweeper, error) {
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}
	return &Sweeper{
		pool:   pool,
		source: source,
		sink:   sink,
		logger: logger,
	}, nil
}

// Sweep accrues interest on every account and returns how many accounts
// were processed. It blocks until every accrual is recorded.
func (s *Sweeper) Sweep() int {
	accounts := s.source.Accounts()

	var wg sync.WaitGroup
	for _, acct := range accounts {
		acct := acct
		wg.Add(1)
		task := func() {
			defer wg.Done()
			s.sink.Append(acct.Transact(transaction.Interest{}))
		}
		if err := s.pool.Submit(task); err != nil {
			// Pool rejected the task; accrue inline so no account is
			// skipped.
			s.logger.Error("worker pool rejected accrual task",
				"account", acct.Number().String(), "error", err)
			task()
		}
	}
	wg.Wait()

	s.logger.Info("interest sweep complete", "accounts", len(accounts))
	return len(accounts)
}

// Running returns the number of workers currently processing accruals.
func (s *Sweeper) Running() int {
	return s.pool.Running()
}

// Shutdown releases the worker pool.
func (s *Sweeper) Shutdown() {
	s.pool.Release()
}
