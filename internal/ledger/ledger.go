// Package ledger is the log sink for processed transactions: an ordered,
// append-only record of every operation's outcome with human-readable
// rendering.
package ledger

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/teller-banking-ledger/internal/domain/transaction"
)

// Sink accepts processed transactions in order.
type Sink interface {
	Append(tx transaction.Transaction)
}

// Entry is one recorded transaction.
type Entry struct {
	Seq        int
	RecordedAt time.Time
	Tx         transaction.Transaction
}

// Ledger is an in-memory Sink retaining entries for the session.
type Ledger struct {
	mu      sync.Mutex
	entries []Entry
}

func New() *Ledger {
	return &Ledger{}
}

// Append records a transaction. Spacer and Section markers are recorded
// like any other entry; they only matter at render time.
func (l *Ledger) Append(tx transaction.Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{
		Seq:        len(l.entries) + 1,
		RecordedAt: time.Now(),
		Tx:         tx,
	})
}

// Entries returns a snapshot copy of the recorded entries.
func (l *Ledger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of recorded entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Render writes each entry's description, one entry per line (structural
// markers may span several lines or none).
func (l *Ledger) Render(w io.Writer) error {
	for _, e := range l.Entries() {
		if _, err := fmt.Fprintln(w, e.Tx.Describe()); err != nil {
			return err
		}
	}
	return nil
}
