package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"giftwallet/internal/core"
)

// Store keeps cards and their transactions in process memory. Cards are
// returned in insertion order.
type Store struct {
	mu    sync.Mutex
	order []string
	cards map[string]core.CardRecord
	txs   map[string][]core.Transaction
	newID func() string
}

func New() *Store {
	return &Store{
		cards: make(map[string]core.CardRecord),
		txs:   make(map[string][]core.Transaction),
		newID: uuid.NewString,
	}
}

// NewSeeded returns a store populated with seed cards.
func NewSeeded(seed []core.SeedCard) (*Store, error) {
	s := New()
	if err := s.Seed(context.Background(), seed); err != nil {
		return nil, err
	}
	return s, nil
}

// Seed inserts every seed card with its transactions.
func (s *Store) Seed(ctx context.Context, seed []core.SeedCard) error {
	for i, sc := range seed {
		rec, err := s.CreateCard(ctx, sc.NewCard())
		if err != nil {
			return fmt.Errorf("seed card %d: %w", i, err)
		}
		for _, t := range sc.Transactions {
			if err := s.AddTransaction(ctx, rec.ID, t); err != nil {
				return fmt.Errorf("seed card %d: %w", i, err)
			}
		}
	}
	return nil
}

func (s *Store) ListCards(_ context.Context) ([]core.CardRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.CardRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.cards[id])
	}
	return out, nil
}

func (s *Store) GetCard(_ context.Context, id string) (core.CardRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return core.CardRecord{}, core.ErrCardNotFound
	}
	return c, nil
}

// CreateCard validates and stores the card under a fresh id. The balance
// is stored in its shortest decimal form.
func (s *Store) CreateCard(_ context.Context, n core.NewCard) (core.CardRecord, error) {
	if err := n.Validate(); err != nil {
		return core.CardRecord{}, err
	}
	balance, err := core.NormalizeBalance(n.Balance)
	if err != nil {
		return core.CardRecord{}, err
	}
	rec := core.CardRecord{
		ID:             s.newID(),
		LastFourDigits: n.LastFourDigits,
		Balance:        balance,
		ExpiryMonth:    n.ExpiryMonth,
		ExpiryYear:     n.ExpiryYear,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	return rec, nil
}

// DeleteCard removes the card and its transactions.
func (s *Store) DeleteCard(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[id]; !ok {
		return core.ErrCardNotFound
	}
	delete(s.cards, id)
	delete(s.txs, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// ListTransactions returns the card's history. An unknown card yields
// ErrCardNotFound, a known card without history an empty slice.
func (s *Store) ListTransactions(_ context.Context, cardID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[cardID]; !ok {
		return nil, core.ErrCardNotFound
	}
	return append([]core.Transaction{}, s.txs[cardID]...), nil
}

func (s *Store) AddTransaction(_ context.Context, cardID string, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[cardID]; !ok {
		return core.ErrCardNotFound
	}
	if t.ID == "" {
		t.ID = s.newID()
	}
	s.txs[cardID] = append(s.txs[cardID], t)
	return nil
}
