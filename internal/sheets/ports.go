package sheets

import (
	"context"
	"time"
)

// LedgerEntry is one row of the card event ledger.
type LedgerEntry struct {
	Timestamp      time.Time
	Event          string
	CardID         string
	LastFourDigits string
	Balance        string
}

// Ports for outbound adapters.
type (
	LedgerWriter interface {
		AppendEntry(ctx context.Context, e LedgerEntry) (rowRef string, err error)
	}

	// LedgerReader returns the ledger rows in sheet order.
	LedgerReader interface {
		ReadEntries(ctx context.Context) ([]LedgerEntry, error)
	}
)
