package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"giftwallet/internal/core"
)

func TestClientListCards(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/cards" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`[{"id":"1","lastFourDigits":"4532","balance":"150.00","expiryMonth":"12","expiryYear":"26"},
			{"id":"2","lastFourDigits":"7891","balance":"8.50","expiryMonth":"03","expiryYear":"25","isExpired":true}]`))
	}))
	defer srv.Close()

	cards, err := New(srv.URL+"/", time.Second).ListCards(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(cards) != 2 || cards[0].IsExpired != nil || cards[1].IsExpired == nil || !*cards[1].IsExpired {
		t.Fatalf("unexpected cards %+v", cards)
	}
}

func TestClientCreateCard(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/cards" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"new","lastFourDigits":"1111","balance":"100","expiryMonth":"12","expiryYear":"30","isExpired":false}`))
	}))
	defer srv.Close()

	rec, err := New(srv.URL, time.Second).CreateCard(context.Background(), core.NewCard{
		LastFourDigits: "1111", Balance: "100", ExpiryMonth: "12", ExpiryYear: "30",
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID != "new" {
		t.Errorf("id = %q", rec.ID)
	}
	want := map[string]any{"lastFourDigits": "1111", "balance": "100", "expiryMonth": "12", "expiryYear": "30", "isExpired": false}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("body[%s] = %v, want %v", k, got[k], v)
		}
	}
	if len(got) != len(want) {
		t.Errorf("unexpected body keys: %v", got)
	}
}

func TestClientDeleteAndTransactions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete && r.URL.Path == "/api/cards/abc":
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodGet && r.URL.Path == "/api/cards/abc/transactions":
			w.Write([]byte(`[{"id":"t1","merchant":"Amazon","amount":"24.99","date":"Dec 10, 2025","type":"purchase"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	if err := c.DeleteCard(context.Background(), "abc"); err != nil {
		t.Fatalf("DeleteCard: %v", err)
	}
	txs, err := c.ListTransactions(context.Background(), "abc")
	if err != nil || len(txs) != 1 || txs[0].Type != core.Purchase {
		t.Fatalf("ListTransactions: %+v %v", txs, err)
	}
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"card not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	err := New(srv.URL, time.Second).DeleteCard(context.Background(), "missing")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusNotFound || se.Body != `{"error":"card not found"}` {
		t.Errorf("unexpected status error %+v", se)
	}
}

func TestTransactionsPath(t *testing.T) {
	if got := TransactionsPath("a/b"); got != "/api/cards/a%2Fb/transactions" {
		t.Errorf("TransactionsPath = %q", got)
	}
}
