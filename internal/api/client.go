// Package api is the HTTP client for the wallet's REST endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"giftwallet/internal/core"
)

const (
	CardsPath = "/api/cards"
)

// TransactionsPath returns the transactions endpoint of a card.
func TransactionsPath(cardID string) string {
	return CardsPath + "/" + url.PathEscape(cardID) + "/transactions"
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Client talks to the card endpoints of one server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for baseURL (e.g. http://localhost:8081).
func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

// ListCards calls GET /api/cards.
func (c *Client) ListCards(ctx context.Context) ([]core.CardRecord, error) {
	var cards []core.CardRecord
	if err := c.do(ctx, http.MethodGet, CardsPath, nil, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// CreateCard calls POST /api/cards with the card body.
func (c *Client) CreateCard(ctx context.Context, card core.NewCard) (core.CardRecord, error) {
	var created core.CardRecord
	if err := c.do(ctx, http.MethodPost, CardsPath, card, &created); err != nil {
		return core.CardRecord{}, err
	}
	return created, nil
}

// DeleteCard calls DELETE /api/cards/{id}.
func (c *Client) DeleteCard(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, CardsPath+"/"+url.PathEscape(id), nil, nil)
}

// ListTransactions calls GET /api/cards/{id}/transactions.
func (c *Client) ListTransactions(ctx context.Context, cardID string) ([]core.Transaction, error) {
	var txs []core.Transaction
	if err := c.do(ctx, http.MethodGet, TransactionsPath(cardID), nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
