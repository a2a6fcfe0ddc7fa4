package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"giftwallet/internal/amqp"
	"giftwallet/internal/log"
)

// OutboxConfig holds configuration for the event outbox.
type OutboxConfig struct {
	// PollInterval is how often pending events are retried (default: 10s)
	PollInterval time.Duration

	// BatchSize is the max number of events retried per cycle (default: 10)
	BatchSize int

	// MaxRetries is how many retries an event gets before it is dropped (default: 3)
	MaxRetries int

	// MaxPending bounds the queue; the oldest event is dropped when full (default: 1000)
	MaxPending int
}

func DefaultOutboxConfig() OutboxConfig {
	return OutboxConfig{
		PollInterval: 10 * time.Second,
		BatchSize:    10,
		MaxRetries:   3,
		MaxPending:   1000,
	}
}

type outboxItem struct {
	event    *amqp.CardEvent
	attempts int
	lastErr  string
}

// OutboxStats is a snapshot of the outbox counters.
type OutboxStats struct {
	Pending   int
	Delivered int64
	Dropped   int64
}

// OutboxProcessor keeps card events whose publish failed and retries them
// in the background.
type OutboxProcessor struct {
	publisher EventPublisher
	config    OutboxConfig
	logger    *log.Logger

	qmu       sync.Mutex
	queue     []outboxItem
	delivered int64
	dropped   int64

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewOutboxProcessor(publisher EventPublisher, config OutboxConfig, logger *log.Logger) *OutboxProcessor {
	def := DefaultOutboxConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = def.MaxRetries
	}
	if config.MaxPending <= 0 {
		config.MaxPending = def.MaxPending
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &OutboxProcessor{
		publisher: publisher,
		config:    config,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// Enqueue stores an event for a later retry.
func (p *OutboxProcessor) Enqueue(event *amqp.CardEvent) {
	p.qmu.Lock()
	defer p.qmu.Unlock()
	if len(p.queue) >= p.config.MaxPending {
		oldest := p.queue[0]
		p.queue = p.queue[1:]
		p.dropped++
		p.logger.Error("Outbox full, dropping oldest card event", log.FieldEvent, oldest.event.Type, log.FieldCardID, oldest.event.CardID)
	}
	p.queue = append(p.queue, outboxItem{event: event})
}

// Start begins the retry loop. Returns an error if already running.
func (p *OutboxProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return fmt.Errorf("outbox processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})

	go p.runLoop(ctx, p.stopCh, p.doneCh)

	p.logger.InfoContext(ctx, "Outbox processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)
	return nil
}

// Stop signals the loop and waits for the current batch to finish.
func (p *OutboxProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)
	select {
	case <-doneCh:
		p.logger.InfoContext(ctx, "Outbox processor stopped", "pending", p.Stats().Pending)
		return nil
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Outbox processor stop timed out")
		return ctx.Err()
	}
}

func (p *OutboxProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *OutboxProcessor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch retries up to BatchSize pending events and returns how many
// were delivered. An open circuit ends the batch without spending retries.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) int {
	p.qmu.Lock()
	n := min(p.config.BatchSize, len(p.queue))
	batch := append([]outboxItem(nil), p.queue[:n]...)
	p.queue = p.queue[n:]
	p.qmu.Unlock()

	if len(batch) == 0 {
		return 0
	}
	p.logger.DebugContext(ctx, "Retrying card events", log.FieldCount, len(batch))

	delivered := 0
	var retry []outboxItem
	for i, item := range batch {
		if ctx.Err() != nil {
			retry = append(retry, batch[i:]...)
			break
		}
		err := p.publisher.PublishCardEvent(ctx, item.event)
		if err == nil {
			delivered++
			continue
		}
		if errors.Is(err, amqp.ErrCircuitOpen) {
			retry = append(retry, batch[i:]...)
			break
		}
		if kept, ok := p.handleFailure(ctx, item, err); ok {
			retry = append(retry, kept)
		}
	}

	p.qmu.Lock()
	p.queue = append(retry, p.queue...)
	p.delivered += int64(delivered)
	p.qmu.Unlock()

	if delivered > 0 {
		p.logger.InfoContext(ctx, "Delivered queued card events", log.FieldCount, delivered)
	}
	return delivered
}

// handleFailure counts the attempt and reports whether the event should
// stay queued.
func (p *OutboxProcessor) handleFailure(ctx context.Context, item outboxItem, err error) (outboxItem, bool) {
	item.attempts++
	item.lastErr = err.Error()
	if item.attempts >= p.config.MaxRetries {
		p.qmu.Lock()
		p.dropped++
		p.qmu.Unlock()
		p.logger.ErrorContext(ctx, "Card event dropped after max retries",
			log.FieldEvent, item.event.Type,
			log.FieldCardID, item.event.CardID,
			"attempts", item.attempts,
			log.FieldError, err)
		return item, false
	}
	p.logger.WarnContext(ctx, "Card event retry failed",
		log.FieldEvent, item.event.Type,
		log.FieldCardID, item.event.CardID,
		"attempt", item.attempts,
		log.FieldError, err)
	return item, true
}

func (p *OutboxProcessor) Stats() OutboxStats {
	p.qmu.Lock()
	defer p.qmu.Unlock()
	return OutboxStats{Pending: len(p.queue), Delivered: p.delivered, Dropped: p.dropped}
}
