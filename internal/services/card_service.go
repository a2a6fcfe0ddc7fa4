package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"giftwallet/internal/amqp"
	"giftwallet/internal/cache"
	"giftwallet/internal/core"
	"giftwallet/internal/log"
)

const listCacheKey = "cards"

// Repository is the persistence a CardService needs. Both the memory and
// sqlite stores satisfy it.
type Repository interface {
	ListCards(ctx context.Context) ([]core.CardRecord, error)
	GetCard(ctx context.Context, id string) (core.CardRecord, error)
	CreateCard(ctx context.Context, n core.NewCard) (core.CardRecord, error)
	DeleteCard(ctx context.Context, id string) error
	ListTransactions(ctx context.Context, cardID string) ([]core.Transaction, error)
}

// EventPublisher receives card events after a mutation is persisted.
type EventPublisher interface {
	PublishCardEvent(ctx context.Context, event *amqp.CardEvent) error
}

// EventQueue keeps events whose publish failed for a later retry.
type EventQueue interface {
	Enqueue(event *amqp.CardEvent)
}

type Options struct {
	ListCacheTTL time.Duration
	Logger       *log.Logger
	Now          func() time.Time
	// Outbox receives events the publisher rejected. Nil drops them.
	Outbox EventQueue
}

// CardService orchestrates card operations across storage, the list
// cache and AMQP.
type CardService struct {
	repo      Repository
	publisher EventPublisher
	outbox    EventQueue
	list      *cache.LRUCache[[]core.CardRecord]
	// listMu orders list cache writes against invalidation; listVersion
	// is bumped by every mutation.
	listMu      sync.Mutex
	listVersion uint64
	logger    *log.Logger
	events    *log.StructuredLogger
	now       func() time.Time
	closers   []func() error
}

func NewCardService(repo Repository, publisher EventPublisher, opts Options) *CardService {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &CardService{
		repo:      repo,
		publisher: publisher,
		outbox:    opts.Outbox,
		list:      cache.NewLRUCache[[]core.CardRecord](1, opts.ListCacheTTL),
		logger:    logger.WithComponent(log.ComponentService),
		events:    log.NewStructuredLogger(logger.WithComponent(log.ComponentService)),
		now:       now,
	}
}

// ListCache exposes the list cache for periodic cleanup.
func (s *CardService) ListCache() cache.Cleaner {
	return s.list
}

// OnClose registers a cleanup run by Close, in registration order.
func (s *CardService) OnClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

// ListCards returns every card with isExpired computed now. The stored
// list is cached until the TTL passes or a mutation happens. A read that
// overlapped a mutation is served but not cached.
func (s *CardService) ListCards(ctx context.Context) ([]core.CardRecord, error) {
	records, ok := s.list.Get(listCacheKey)
	if !ok {
		s.listMu.Lock()
		version := s.listVersion
		s.listMu.Unlock()

		var err error
		records, err = s.repo.ListCards(ctx)
		if err != nil {
			return nil, fmt.Errorf("list cards: %w", err)
		}

		s.listMu.Lock()
		if s.listVersion == version {
			s.list.Set(listCacheKey, records)
		}
		s.listMu.Unlock()
		s.logger.DebugContext(ctx, "Card list loaded", log.FieldCount, len(records))
	}

	now := s.now()
	out := make([]core.CardRecord, len(records))
	for i, r := range records {
		out[i] = r.WithExpiry(now)
	}
	return out, nil
}

// CreateCard saves the card and publishes card.created. A publish failure
// is logged and does not fail the call.
func (s *CardService) CreateCard(ctx context.Context, n core.NewCard) (core.CardRecord, error) {
	rec, err := s.repo.CreateCard(ctx, n)
	if err != nil {
		return core.CardRecord{}, fmt.Errorf("save card: %w", err)
	}
	s.invalidateList()
	s.events.LogCardCreated(ctx, rec.ID, rec.LastFourDigits, rec.Balance)

	s.publish(ctx, amqp.NewCardCreated(rec))
	return rec.WithExpiry(s.now()), nil
}

// DeleteCard removes the card and its history and publishes card.deleted.
func (s *CardService) DeleteCard(ctx context.Context, id string) error {
	rec, err := s.repo.GetCard(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteCard(ctx, id); err != nil {
		return err
	}
	s.invalidateList()
	s.events.LogCardDeleted(ctx, id)

	s.publish(ctx, amqp.NewCardDeleted(rec))
	return nil
}

func (s *CardService) ListTransactions(ctx context.Context, cardID string) ([]core.Transaction, error) {
	txs, err := s.repo.ListTransactions(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	return txs, nil
}

func (s *CardService) invalidateList() {
	s.listMu.Lock()
	defer s.listMu.Unlock()
	s.listVersion++
	s.list.Delete(listCacheKey)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Ready reports whether the backing store can serve requests.
func (s *CardService) Ready(ctx context.Context) error {
	if p, ok := s.repo.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *CardService) publish(ctx context.Context, event *amqp.CardEvent) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP disabled, skipping card event", log.FieldEvent, event.Type)
		return
	}
	if err := s.publisher.PublishCardEvent(ctx, event); err != nil {
		s.events.LogError(ctx, "Failed to publish card event", err, log.OpPublish,
			log.NewFields().WithCard(event.CardID, event.LastFourDigits, event.Balance))
		if s.outbox != nil {
			s.outbox.Enqueue(event)
		}
	}
}

// Close runs registered cleanups and reports every failure.
func (s *CardService) Close() error {
	var errs []error
	for _, fn := range s.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close card service: %v", errs)
	}
	return nil
}
