package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"giftwallet/internal/core"
	"giftwallet/internal/log"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger.WithComponent(log.ComponentStorage),
	}, nil
}

func dsn(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SeedIfEmpty inserts the seed cards only into an empty database.
func (r *SQLiteRepository) SeedIfEmpty(ctx context.Context, seed []core.SeedCard) error {
	n, err := r.queries.CountCards(ctx)
	if err != nil {
		return fmt.Errorf("count cards: %w", err)
	}
	if n > 0 || len(seed) == 0 {
		return nil
	}
	for i, sc := range seed {
		rec, err := r.CreateCard(ctx, sc.NewCard())
		if err != nil {
			return fmt.Errorf("seed card %d: %w", i, err)
		}
		for pos, t := range sc.Transactions {
			if err := r.addTransaction(ctx, rec.ID, t, int64(pos)); err != nil {
				return fmt.Errorf("seed card %d: %w", i, err)
			}
		}
	}
	r.logger.InfoContext(ctx, "Seeded cards", log.FieldCount, len(seed))
	return nil
}

func (r *SQLiteRepository) ListCards(ctx context.Context) ([]core.CardRecord, error) {
	rows, err := r.queries.ListCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	cards := make([]core.CardRecord, len(rows))
	for i, c := range rows {
		cards[i] = toRecord(c)
	}
	return cards, nil
}

func (r *SQLiteRepository) GetCard(ctx context.Context, id string) (core.CardRecord, error) {
	c, err := r.queries.GetCard(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CardRecord{}, core.ErrCardNotFound
	}
	if err != nil {
		return core.CardRecord{}, fmt.Errorf("get card %s: %w", id, err)
	}
	return toRecord(c), nil
}

func (r *SQLiteRepository) CreateCard(ctx context.Context, n core.NewCard) (core.CardRecord, error) {
	if err := n.Validate(); err != nil {
		return core.CardRecord{}, err
	}
	balance, err := core.NormalizeBalance(n.Balance)
	if err != nil {
		return core.CardRecord{}, err
	}
	c, err := r.queries.CreateCard(ctx, CreateCardParams{
		ID:             uuid.NewString(),
		LastFourDigits: n.LastFourDigits,
		Balance:        balance,
		ExpiryMonth:    n.ExpiryMonth,
		ExpiryYear:     n.ExpiryYear,
	})
	if err != nil {
		return core.CardRecord{}, fmt.Errorf("create card: %w", err)
	}

	r.logger.DebugContext(ctx, "Card saved to SQLite",
		log.FieldCardID, c.ID,
		log.FieldLastFour, c.LastFourDigits,
		log.FieldBalance, c.Balance)

	return toRecord(c), nil
}

// DeleteCard removes the card; its transactions go with it through the
// foreign key cascade.
func (r *SQLiteRepository) DeleteCard(ctx context.Context, id string) error {
	n, err := r.queries.DeleteCard(ctx, id)
	if err != nil {
		return fmt.Errorf("delete card %s: %w", id, err)
	}
	if n == 0 {
		return core.ErrCardNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, cardID string) ([]core.Transaction, error) {
	if _, err := r.GetCard(ctx, cardID); err != nil {
		return nil, err
	}
	rows, err := r.queries.ListTransactionsByCard(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("list transactions for %s: %w", cardID, err)
	}
	txs := make([]core.Transaction, len(rows))
	for i, t := range rows {
		txs[i] = core.Transaction{
			ID:       t.ID,
			Merchant: t.Merchant,
			Amount:   t.Amount,
			Date:     t.Date,
			Type:     core.TransactionType(t.Type),
		}
	}
	return txs, nil
}

// AddTransaction appends a transaction to the end of the card's history.
func (r *SQLiteRepository) AddTransaction(ctx context.Context, cardID string, t core.Transaction) error {
	rows, err := r.queries.ListTransactionsByCard(ctx, cardID)
	if err != nil {
		return fmt.Errorf("list transactions for %s: %w", cardID, err)
	}
	return r.addTransaction(ctx, cardID, t, int64(len(rows)))
}

func (r *SQLiteRepository) addTransaction(ctx context.Context, cardID string, t core.Transaction, pos int64) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, err := r.GetCard(ctx, cardID); err != nil {
		return err
	}
	err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		ID:       uuid.NewString(),
		CardID:   cardID,
		Merchant: t.Merchant,
		Amount:   t.Amount,
		Date:     t.Date,
		Type:     string(t.Type),
		Position: pos,
	})
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func toRecord(c Card) core.CardRecord {
	return core.CardRecord{
		ID:             c.ID,
		LastFourDigits: c.LastFourDigits,
		Balance:        c.Balance,
		ExpiryMonth:    c.ExpiryMonth,
		ExpiryYear:     c.ExpiryYear,
	}
}
