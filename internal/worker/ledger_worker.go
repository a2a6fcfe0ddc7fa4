package worker

import (
	"context"
	"fmt"

	"giftwallet/internal/amqp"
	"giftwallet/internal/log"
	"giftwallet/internal/sheets"
)

// LedgerWorker records card events in the ledger sheet.
type LedgerWorker struct {
	ledger sheets.LedgerWriter
	logger *log.Logger
}

func NewLedgerWorker(ledger sheets.LedgerWriter, logger *log.Logger) *LedgerWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &LedgerWorker{
		ledger: ledger,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleCardEvent appends one ledger row per event. An error makes the
// consumer requeue the message.
func (w *LedgerWorker) HandleCardEvent(ctx context.Context, event *amqp.CardEvent) error {
	w.logger.DebugContext(ctx, "Processing card event",
		log.FieldEvent, event.Type,
		log.FieldCardID, event.CardID)

	ref, err := w.ledger.AppendEntry(ctx, sheets.LedgerEntry{
		Timestamp:      event.Timestamp,
		Event:          string(event.Type),
		CardID:         event.CardID,
		LastFourDigits: event.LastFourDigits,
		Balance:        event.Balance,
	})
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}

	w.logger.InfoContext(ctx, "Recorded card event",
		log.FieldEvent, event.Type,
		log.FieldCardID, event.CardID,
		"ledger_ref", ref)
	return nil
}
