// Package config provides configuration structures and validation for the
// application. It handles environment-based configuration for the bank
// defaults, logging and the interest sweep worker pool.
package config

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Config holds the complete application configuration. Each field covers
// one subsystem and is validated during startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Bank        BankConfig
	WorkerPool  WorkerPoolConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// BankConfig contains the defaults applied to accounts opened during a
// session.
type BankConfig struct {
	InterestRate  decimal.Decimal // per-accrual rate used by the interest sweep
	WithdrawLimit decimal.Decimal // default savings/checking withdraw cap
	OverdraftFee  decimal.Decimal // default checking overdraft fee
}

// WorkerPoolConfig contains interest sweep worker pool configuration
type WorkerPoolConfig struct {
	Size int // Maximum number of workers in the pool
}

// validate performs validation of all configuration values, ensuring they
// meet minimum requirements and logical constraints
func (c *Config) validate() error {
	var validationErrors []string

	if c.Application.Name == "" {
		validationErrors = append(validationErrors, "APP_NAME is required")
	}

	if c.Bank.InterestRate.IsNegative() {
		validationErrors = append(validationErrors, "BANK_INTEREST_RATE must not be negative")
	}
	if !c.Bank.WithdrawLimit.IsPositive() {
		validationErrors = append(validationErrors, "BANK_WITHDRAW_LIMIT must be greater than 0")
	}
	if c.Bank.OverdraftFee.IsNegative() {
		validationErrors = append(validationErrors, "BANK_OVERDRAFT_FEE must not be negative")
	}

	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
