package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/teller-banking-ledger/internal/config"
	"github.com/teller-banking-ledger/internal/domain/account"
	"github.com/teller-banking-ledger/internal/domain/permission"
	"github.com/teller-banking-ledger/internal/domain/transaction"
	"github.com/teller-banking-ledger/internal/interest"
	"github.com/teller-banking-ledger/internal/ledger"
	"github.com/teller-banking-ledger/internal/logger"
	"github.com/teller-banking-ledger/internal/registry"
)

func main() {
	// Initialize configuration
	cfg, err := config.LoadConfig("teller")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Teller",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	book := ledger.New()

	// The root capability is minted here and injected; nothing else ever
	// holds an implicit admin key.
	rootKey := permission.AccessKey{Secret: uuid.NewString(), Level: permission.LevelAdmin}
	bank, err := registry.New(rootKey, book, log)
	if err != nil {
		log.Error("Failed to initialize registry", "error", err)
		os.Exit(1)
	}

	sweeper, err := interest.NewSweeper(bank, book, cfg.WorkerPool.Size, log)
	if err != nil {
		log.Error("Failed to initialize interest sweeper", "error", err)
		os.Exit(1)
	}
	defer sweeper.Shutdown()

	if err := runSession(cfg, bank, book, sweeper, log); err != nil {
		log.Error("Session failed", "error", err)
		os.Exit(1)
	}

	if err := book.Render(os.Stdout); err != nil {
		log.Error("Failed to render ledger", "error", err)
		os.Exit(1)
	}
}

// runSession drives the scripted demonstration: it opens accounts, grants
// scoped keys, and exercises every operation including the ones expected
// to fail.
func runSession(cfg *config.Config, bank *registry.Registry, book *ledger.Ledger, sweeper *interest.Sweeper, log *slog.Logger) error {
	d := decimal.NewFromInt

	book.Append(transaction.Section{Header: "Opening accounts"})

	alice, err := bank.RegisterClient("Alice Harper")
	if err != nil {
		return err
	}
	aliceDebit, err := bank.RegisterClient("Alice Harper (debit card)")
	if err != nil {
		return err
	}
	aliceMobile, err := bank.RegisterClient("Alice Harper (mobile)")
	if err != nil {
		return err
	}
	bob, err := bank.RegisterClient("Bob's Groceries")
	if err != nil {
		return err
	}
	acme, err := bank.RegisterClient("Acme Utilities")
	if err != nil {
		return err
	}

	limit := cfg.Bank.WithdrawLimit
	savingsID, err := bank.CreateSavings(alice.Name(), d(2000), cfg.Bank.InterestRate, &limit)
	if err != nil {
		return err
	}
	checkingID, err := bank.CreateChecking(alice.Name(), d(500), cfg.Bank.InterestRate,
		account.WithOverdraftFee(cfg.Bank.OverdraftFee))
	if err != nil {
		return err
	}
	storeID, err := bank.CreateChecking(bob.Name(), d(800), cfg.Bank.InterestRate)
	if err != nil {
		return err
	}
	billingID, err := bank.CreateBilling(acme.Name(), d(0), cfg.Bank.InterestRate)
	if err != nil {
		return err
	}

	savings, _ := bank.LookupAccount(savingsID)
	checking, _ := bank.LookupAccount(checkingID)

	book.Append(transaction.Spacer{})
	book.Append(transaction.Section{Header: "Granting scoped keys"})

	// Alice scopes her own access down to single-purpose personas.
	savingsAdmin, _ := alice.KeyFor(savingsID)
	checkingAdmin, _ := alice.KeyFor(checkingID)
	alice.AddAccount(checkingAdmin, checking, aliceDebit, permission.LevelWithdraw)
	alice.AddAccount(savingsAdmin, savings, aliceDebit, permission.LevelDeposit)
	alice.AddAccount(savingsAdmin, savings, aliceMobile, permission.LevelWithdraw)
	alice.AddAccount(checkingAdmin, checking, aliceMobile, permission.LevelDeposit)

	// A withdraw-level key cannot grant access; recorded as a failure.
	debitKey, _ := aliceDebit.KeyFor(checkingID)
	aliceDebit.AddAccount(debitKey, checking, bob, permission.LevelDeposit)

	book.Append(transaction.Spacer{})
	book.Append(transaction.Section{Header: "Deposits and withdrawals"})

	aliceDebit.Deposit(d(250), savingsID)
	aliceDebit.Withdraw(d(120), checkingID)
	// Above the savings limit: clamped to a partial withdrawal.
	aliceMobile.Withdraw(d(1500), savingsID)
	// Deposit with a withdraw-level key: rejected before the account is
	// ever asked.
	aliceMobile.Deposit(d(10), savingsID)

	book.Append(transaction.Spacer{})
	book.Append(transaction.Section{Header: "Transfers"})

	aliceMobile.Transfer(d(200), savingsID, checkingID)
	// Requested amount exceeds the savings limit; only the clamped part
	// arrives.
	aliceMobile.Transfer(d(1200), savingsID, checkingID)
	// Nothing left to move; the deposit leg still runs with zero.
	aliceMobile.Transfer(d(900), savingsID, checkingID)

	book.Append(transaction.Spacer{})
	book.Append(transaction.Section{Header: "Purchases and bills"})

	aliceDebit.Spend(d(300), checkingID, storeID)
	aliceDebit.Bill(d(75), checkingID, billingID, "electricity")

	book.Append(transaction.Spacer{})
	book.Append(transaction.Section{Header: "Interest"})

	swept := sweeper.Sweep()
	log.Info("accrued interest", "accounts", swept)

	book.Append(transaction.Spacer{})
	book.Append(transaction.Section{Header: "Balances"})

	alice.RequestBalance(savingsID)
	aliceMobile.RequestBalanceAll()
	bob.RequestBalance(storeID)
	acme.RequestBalance(billingID)

	return nil
}
