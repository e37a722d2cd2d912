package transaction

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesByKind(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		sentinel *Error
	}{
		{"TransactionError", NewTransactionError("leg two failed"), ErrTransaction},
		{"InsufficientFunds", NewInsufficientFunds("available 10, required 20"), ErrInsufficientFunds},
		{"SystemError", NewSystemError("Invalid Transaction"), ErrSystem},
		{"AccessDenied", NewAccessDenied("no key"), ErrAccessDenied},
		{"PaymentError", NewPaymentError("not billable"), ErrPayment},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, errors.Is(tc.err, tc.sentinel))
			// Matching is by kind: every other sentinel must not match.
			for _, other := range []*Error{ErrTransaction, ErrInsufficientFunds, ErrSystem, ErrAccessDenied, ErrPayment} {
				if other.Kind == tc.sentinel.Kind {
					continue
				}
				assert.False(t, errors.Is(tc.err, other), "kind %s must not match %s", tc.err.Kind, other.Kind)
			}
		})
	}
}

func TestError_IsIgnoresMessage(t *testing.T) {
	a := NewAccessDenied("one message")
	b := NewAccessDenied("a completely different message")
	assert.True(t, errors.Is(a, b))
}

func TestError_Error(t *testing.T) {
	err := NewInsufficientFunds("available %s, required %s", "10.00", "25.00")
	assert.Equal(t, "INSUFFICIENT_FUNDS: available 10.00, required 25.00", err.Error())

	bare := &Error{Kind: KindSystemError}
	assert.Equal(t, "SYSTEM_ERROR", bare.Error())
}

func TestError_WrappedThroughFmt(t *testing.T) {
	inner := NewInsufficientFunds("available 1.00, required 2.00")
	wrapped := fmt.Errorf("withdraw leg: %w", inner)
	require.True(t, errors.Is(wrapped, ErrInsufficientFunds))
}
