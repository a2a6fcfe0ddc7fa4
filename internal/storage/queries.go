package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Card struct {
	ID             string
	LastFourDigits string
	Balance        string
	ExpiryMonth    string
	ExpiryYear     string
}

type Transaction struct {
	ID       string
	CardID   string
	Merchant string
	Amount   string
	Date     string
	Type     string
	Position int64
}

const createCard = `INSERT INTO cards (id, last_four_digits, balance, expiry_month, expiry_year)
VALUES (?, ?, ?, ?, ?)
RETURNING id, last_four_digits, balance, expiry_month, expiry_year`

type CreateCardParams struct {
	ID             string
	LastFourDigits string
	Balance        string
	ExpiryMonth    string
	ExpiryYear     string
}

func (q *Queries) CreateCard(ctx context.Context, arg CreateCardParams) (Card, error) {
	row := q.db.QueryRowContext(ctx, createCard,
		arg.ID,
		arg.LastFourDigits,
		arg.Balance,
		arg.ExpiryMonth,
		arg.ExpiryYear,
	)
	var i Card
	err := row.Scan(&i.ID, &i.LastFourDigits, &i.Balance, &i.ExpiryMonth, &i.ExpiryYear)
	return i, err
}

const getCard = `SELECT id, last_four_digits, balance, expiry_month, expiry_year FROM cards WHERE id = ?`

func (q *Queries) GetCard(ctx context.Context, id string) (Card, error) {
	row := q.db.QueryRowContext(ctx, getCard, id)
	var i Card
	err := row.Scan(&i.ID, &i.LastFourDigits, &i.Balance, &i.ExpiryMonth, &i.ExpiryYear)
	return i, err
}

const listCards = `SELECT id, last_four_digits, balance, expiry_month, expiry_year
FROM cards
ORDER BY created_at, rowid`

func (q *Queries) ListCards(ctx context.Context) ([]Card, error) {
	rows, err := q.db.QueryContext(ctx, listCards)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Card
	for rows.Next() {
		var i Card
		if err := rows.Scan(&i.ID, &i.LastFourDigits, &i.Balance, &i.ExpiryMonth, &i.ExpiryYear); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteCard = `DELETE FROM cards WHERE id = ?`

func (q *Queries) DeleteCard(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteCard, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countCards = `SELECT COUNT(*) FROM cards`

func (q *Queries) CountCards(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countCards)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createTransaction = `INSERT INTO transactions (id, card_id, merchant, amount, date, type, position)
VALUES (?, ?, ?, ?, ?, ?, ?)`

type CreateTransactionParams struct {
	ID       string
	CardID   string
	Merchant string
	Amount   string
	Date     string
	Type     string
	Position int64
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		arg.ID,
		arg.CardID,
		arg.Merchant,
		arg.Amount,
		arg.Date,
		arg.Type,
		arg.Position,
	)
	return err
}

const listTransactionsByCard = `SELECT id, card_id, merchant, amount, date, type, position
FROM transactions
WHERE card_id = ?
ORDER BY position`

func (q *Queries) ListTransactionsByCard(ctx context.Context, cardID string) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsByCard, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(&i.ID, &i.CardID, &i.Merchant, &i.Amount, &i.Date, &i.Type, &i.Position); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
