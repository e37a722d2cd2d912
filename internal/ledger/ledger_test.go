package ledger

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teller-banking-ledger/internal/domain/transaction"
)

func TestLedger_AppendKeepsOrder(t *testing.T) {
	l := New()
	first := transaction.Section{Header: "Session"}
	second := transaction.Deposit{Client: "Jane", Amount: decimal.NewFromInt(10), Account: uuid.New()}
	third := transaction.Failed{Err: transaction.NewAccessDenied("no key")}

	l.Append(first)
	l.Append(second)
	l.Append(third)

	entries := l.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, 1, entries[0].Seq)
	assert.Equal(t, 2, entries[1].Seq)
	assert.Equal(t, 3, entries[2].Seq)
	assert.Equal(t, first, entries[0].Tx)
	assert.Equal(t, second, entries[1].Tx)
	assert.Equal(t, third, entries[2].Tx)
	assert.Equal(t, 3, l.Len())
}

func TestLedger_EntriesIsASnapshot(t *testing.T) {
	l := New()
	l.Append(transaction.Spacer{})

	snapshot := l.Entries()
	l.Append(transaction.Spacer{})

	assert.Len(t, snapshot, 1)
	assert.Equal(t, 2, l.Len())
}

func TestLedger_Render(t *testing.T) {
	l := New()
	l.Append(transaction.Section{Header: "Balances"})
	l.Append(transaction.Spacer{})
	l.Append(transaction.Failed{Err: transaction.NewPaymentError("not billable")})

	var sb strings.Builder
	require.NoError(t, l.Render(&sb))

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	// Section renders three lines, the spacer one blank line, the
	// failure one line.
	require.Len(t, lines, 5)
	assert.Contains(t, lines[1], "Balances")
	assert.Equal(t, "", lines[3])
	assert.Contains(t, lines[4], "PAYMENT_ERROR")
}
