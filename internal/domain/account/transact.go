package account

import (
	"github.com/teller-banking-ledger/internal/domain/permission"
	"github.com/teller-banking-ledger/internal/domain/transaction"
)

// Transact validates and applies a single operation against the account.
// It is total over its input: every failure comes back as a Failed value,
// nothing escapes the account boundary. The result is a new transaction
// value; the request is never modified.
func (a *Account) Transact(tx transaction.Transaction) transaction.Transaction {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch req := tx.(type) {
	case transaction.Deposit:
		return a.deposit(req)
	case transaction.Withdraw:
		return a.withdraw(req)
	case transaction.Interest:
		// Accrual ignores the request payload; the account fills in its own.
		return a.accrueInterest()
	case transaction.Purchase:
		return a.purchase(req)
	case transaction.Bill:
		return a.bill(req)
	default:
		return transaction.Failed{Err: transaction.NewSystemError("Invalid Transaction")}
	}
}

func (a *Account) deposit(req transaction.Deposit) transaction.Transaction {
	if !a.authorizes(req.Key, req.Account, permission.LevelDeposit) {
		return transaction.Failed{Err: transaction.NewAccessDenied(
			"key does not permit deposits on account %s", a.number)}
	}
	a.balance = a.balance.Add(req.Amount)
	req.NewBalance = a.balance
	return req
}

func (a *Account) withdraw(req transaction.Withdraw) transaction.Transaction {
	if !a.authorizes(req.Key, req.Account, permission.LevelWithdraw) {
		return transaction.Failed{Err: transaction.NewAccessDenied(
			"key does not permit withdrawals on account %s", a.number)}
	}

	effective := req.Amount
	if a.Flagged(FlagWithdrawLimit) {
		limit, ok := a.limits[FlagWithdrawLimit]
		if !ok {
			// Flagged for a limit but none configured: a reportable
			// defect in the account setup, not a user error.
			return transaction.Failed{Err: transaction.NewSystemError(
				"account %s has a withdraw limit enabled but no limit configured", a.number)}
		}
		if effective.GreaterThan(limit) {
			effective = limit
		}
	}

	if a.balance.LessThan(effective) {
		return transaction.Failed{Err: transaction.NewInsufficientFunds(
			"available %s, required %s", a.balance.StringFixed(2), effective.StringFixed(2))}
	}

	a.balance = a.balance.Sub(effective)
	if effective.LessThan(req.Amount) {
		return transaction.Partial{
			Client:      req.Client,
			Withdrawn:   effective,
			Remainder:   req.Amount.Sub(effective),
			Account:     a.number,
			AccountKind: a.kind.String(),
			NewBalance:  a.balance,
		}
	}
	req.NewBalance = a.balance
	return req
}

func (a *Account) purchase(req transaction.Purchase) transaction.Transaction {
	if !a.Flagged(FlagCanPurchase) {
		return transaction.Failed{Err: transaction.NewPaymentError(
			"account %s is not enabled for purchases", a.number)}
	}

	switch {
	case a.authorizes(req.Key, req.FromAccount, permission.LevelWithdraw):
		// Payer side: the buyer's key authorizes the debit.
		if limit, ok := a.limits[FlagWithdrawLimit]; a.Flagged(FlagWithdrawLimit) && ok && req.Price.GreaterThan(limit) {
			return transaction.Failed{Err: transaction.NewInsufficientFunds(
				"price %s exceeds withdraw limit %s", req.Price.StringFixed(2), limit.StringFixed(2))}
		}
		if a.balance.LessThan(req.Price) {
			return transaction.Failed{Err: transaction.NewInsufficientFunds(
				"available %s, required %s", a.balance.StringFixed(2), req.Price.StringFixed(2))}
		}
		a.balance = a.balance.Sub(req.Price)
		return req
	case req.ToAccount == a.number:
		// Seller side: the buyer's key is never registered here, so the
		// credit trusts the account number the authenticated payer leg
		// put on the request.
		a.balance = a.balance.Add(req.Price)
		return req
	default:
		return transaction.Failed{Err: transaction.NewAccessDenied(
			"key does not permit this purchase on account %s", a.number)}
	}
}

func (a *Account) bill(req transaction.Bill) transaction.Transaction {
	if !a.Flagged(FlagBillable) {
		return transaction.Failed{Err: transaction.NewPaymentError(
			"account %s is not enabled for billing", a.number)}
	}

	switch {
	case a.authorizes(req.Key, req.PayerAccount, permission.LevelWithdraw):
		// Bills debit unconditionally; the payer account may overdraw.
		a.balance = a.balance.Sub(req.Amount)
		return req
	case req.ReceiverAccount == a.number:
		a.balance = a.balance.Add(req.Amount)
		return req
	default:
		return transaction.Failed{Err: transaction.NewAccessDenied(
			"key does not permit this bill on account %s", a.number)}
	}
}

// ApplyInterest accrues one round of interest directly, outside a
// transaction request. Repeated application compounds.
func (a *Account) ApplyInterest() transaction.Interest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.accrueInterest()
}

func (a *Account) accrueInterest() transaction.Interest {
	interest := a.balance.Mul(a.interestRate)
	a.balance = a.balance.Add(interest)
	return transaction.Interest{
		AccountKind: a.kind.String(),
		Owner:       a.owners[0],
		Account:     a.number,
		Interest:    interest,
	}
}
