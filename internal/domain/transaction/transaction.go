// Package transaction defines the value type shared by every operation in
// the ledger. A Transaction is built by the caller as a request, handed to
// an account for processing, and returned as the result, possibly rewritten
// into a different variant (Partial, Failed). Values are immutable records;
// processing always returns a new value and never mutates one in place.
package transaction

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/teller-banking-ledger/internal/domain/permission"
)

// Transaction is the sealed sum of every operation request and result.
// Only the variants in this package implement it.
type Transaction interface {
	isTransaction()

	// Describe renders the human-readable log line(s) for the value.
	Describe() string
}

// Deposit credits an account. NewBalance is populated on the result.
type Deposit struct {
	Client     string
	Amount     decimal.Decimal
	Account    uuid.UUID
	Key        permission.AccessKey
	NewBalance decimal.Decimal
}

// Withdraw debits an account. NewBalance is populated on the result.
type Withdraw struct {
	Client     string
	Amount     decimal.Decimal
	Account    uuid.UUID
	Key        permission.AccessKey
	NewBalance decimal.Decimal
}

// Partial is the result of a withdrawal clamped to a configured limit:
// Withdrawn was debited, Remainder was requested but never left the account.
type Partial struct {
	Client      string
	Withdrawn   decimal.Decimal
	Remainder   decimal.Decimal
	Account     uuid.UUID
	AccountKind string
	NewBalance  decimal.Decimal
}

// Purchase moves Price from the buyer's account to the seller's. The same
// value is submitted to both accounts in turn; each account recognizes its
// own side by the account number it carries.
type Purchase struct {
	Buyer       string
	Price       decimal.Decimal
	Key         permission.AccessKey
	FromAccount uuid.UUID
	FromKind    string
	ToAccount   uuid.UUID
	Seller      string
}

// Interest records an accrual. As a request the fields are ignored; the
// account fills them in from its own state.
type Interest struct {
	AccountKind string
	Owner       string
	Account     uuid.UUID
	Interest    decimal.Decimal
}

// Bill moves Amount from the payer's account to the receiver's, tagged with
// the reason being billed for.
type Bill struct {
	Payer           string
	Amount          decimal.Decimal
	Key             permission.AccessKey
	PayerAccount    uuid.UUID
	PayerKind       string
	ReceiverAccount uuid.UUID
	Receiver        string
	Reason          string
}

// Transfer records a completed two-leg transfer between two accounts held
// by the same principal. Amount is the value actually moved, which on a
// partial withdrawal is less than what was requested.
type Transfer struct {
	Client string
	Amount decimal.Decimal
	From   uuid.UUID
	To     uuid.UUID
}

// CreateAccount records a new account opened through the registry.
type CreateAccount struct {
	Owner   string
	Kind    string
	Account uuid.UUID
	Balance decimal.Decimal
}

// InitAccount records a principal accepting its first key on an account.
type InitAccount struct {
	Principal string
	Account   uuid.UUID
	Level     permission.Level
}

// AddToAccount records a joint principal being granted a key on an
// existing account.
type AddToAccount struct {
	Principal string
	Account   uuid.UUID
	Level     permission.Level
}

// RequestBalance is a read-only balance report. Accounts is 1 for a single
// account, or the number of accounts summed for an aggregate report; an
// aggregate report carries the principal's view-level identity key.
type RequestBalance struct {
	Client   string
	Account  uuid.UUID
	Accounts int
	Balance  decimal.Decimal
	Key      permission.AccessKey
}

// Failed wraps any operation that could not be applied. Err is always a
// *Error from this package.
type Failed struct {
	Err *Error
}

// Spacer is a structural marker producing a blank log line.
type Spacer struct{}

// Section is a structural marker grouping subsequent log entries.
type Section struct {
	Header string
}

func (Deposit) isTransaction()        {}
func (Withdraw) isTransaction()       {}
func (Partial) isTransaction()        {}
func (Purchase) isTransaction()       {}
func (Interest) isTransaction()       {}
func (Bill) isTransaction()           {}
func (Transfer) isTransaction()       {}
func (CreateAccount) isTransaction()  {}
func (InitAccount) isTransaction()    {}
func (AddToAccount) isTransaction()   {}
func (RequestBalance) isTransaction() {}
func (Failed) isTransaction()         {}
func (Spacer) isTransaction()         {}
func (Section) isTransaction()        {}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func (t Deposit) Describe() string {
	return fmt.Sprintf("Value of $%s deposited into account: %s by %s. - New balance: %s",
		money(t.Amount), t.Account, t.Client, money(t.NewBalance))
}

func (t Withdraw) Describe() string {
	return fmt.Sprintf("Value of $%s withdrawn from account: %s by %s. - New balance: %s",
		money(t.Amount), t.Account, t.Client, money(t.NewBalance))
}

func (t Partial) Describe() string {
	return fmt.Sprintf("Partial withdrawal from %s account: %s by %s.\n - Withdrawn: $%s, unavailable: $%s. - New balance: %s",
		t.AccountKind, t.Account, t.Client, money(t.Withdrawn), money(t.Remainder), money(t.NewBalance))
}

func (t Purchase) Describe() string {
	return fmt.Sprintf("Purchase of $%s by %s (account: %s) from %s (account: %s).",
		money(t.Price), t.Buyer, t.FromAccount, t.Seller, t.ToAccount)
}

func (t Interest) Describe() string {
	return fmt.Sprintf("Interest of $%s accrued on %s account: %s owned by %s.",
		money(t.Interest), t.AccountKind, t.Account, t.Owner)
}

func (t Bill) Describe() string {
	return fmt.Sprintf("Bill of $%s paid by %s (account: %s) to %s for: %s.",
		money(t.Amount), t.Payer, t.PayerAccount, t.Receiver, t.Reason)
}

func (t Transfer) Describe() string {
	return fmt.Sprintf("Transfer of $%s from account: %s to account: %s by %s.",
		money(t.Amount), t.From, t.To, t.Client)
}

func (t CreateAccount) Describe() string {
	return fmt.Sprintf("Created %s account: %s for %s with balance: %s.",
		t.Kind, t.Account, t.Owner, money(t.Balance))
}

func (t InitAccount) Describe() string {
	return fmt.Sprintf("Issued %s key on new account: %s to %s.", t.Level, t.Account, t.Principal)
}

func (t AddToAccount) Describe() string {
	return fmt.Sprintf("Added %s to account: %s with %s key.", t.Principal, t.Account, t.Level)
}

func (t RequestBalance) Describe() string {
	if t.Accounts > 1 {
		return fmt.Sprintf("Balance for %s across %d accounts: $%s.", t.Client, t.Accounts, money(t.Balance))
	}
	return fmt.Sprintf("Balance of account %s held by %s: $%s.", t.Account, t.Client, money(t.Balance))
}

func (t Failed) Describe() string {
	return "FAILED - " + t.Err.Error()
}

func (Spacer) Describe() string {
	return ""
}

func (t Section) Describe() string {
	rule := strings.Repeat("=", len(t.Header)+8)
	return rule + "\n==  " + t.Header + "  ==\n" + rule
}
