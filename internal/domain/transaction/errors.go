package transaction

import "fmt"

// ErrorKind categorizes transaction failures. Callers match on the kind,
// never on message text.
type ErrorKind string

const (
	KindTransactionError  ErrorKind = "TRANSACTION_ERROR"
	KindInsufficientFunds ErrorKind = "INSUFFICIENT_FUNDS"
	KindSystemError       ErrorKind = "SYSTEM_ERROR"
	KindAccessDenied      ErrorKind = "ACCESS_DENIED"
	KindPaymentError      ErrorKind = "PAYMENT_ERROR"
)

// Kind sentinels for errors.Is matching.
var (
	ErrTransaction       = &Error{Kind: KindTransactionError}
	ErrInsufficientFunds = &Error{Kind: KindInsufficientFunds}
	ErrSystem            = &Error{Kind: KindSystemError}
	ErrAccessDenied      = &Error{Kind: KindAccessDenied}
	ErrPayment           = &Error{Kind: KindPaymentError}
)

// Error is a transaction failure carried inside the Failed variant.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Message
}

// Is matches any *Error of the same kind, so
// errors.Is(err, transaction.ErrAccessDenied) works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func NewTransactionError(format string, args ...any) *Error {
	return &Error{Kind: KindTransactionError, Message: fmt.Sprintf(format, args...)}
}

func NewInsufficientFunds(format string, args ...any) *Error {
	return &Error{Kind: KindInsufficientFunds, Message: fmt.Sprintf(format, args...)}
}

func NewSystemError(format string, args ...any) *Error {
	return &Error{Kind: KindSystemError, Message: fmt.Sprintf(format, args...)}
}

func NewAccessDenied(format string, args ...any) *Error {
	return &Error{Kind: KindAccessDenied, Message: fmt.Sprintf(format, args...)}
}

func NewPaymentError(format string, args ...any) *Error {
	return &Error{Kind: KindPaymentError, Message: fmt.Sprintf(format, args...)}
}
