package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"giftwallet/internal/api"
	"giftwallet/internal/core"
	"giftwallet/internal/memory"
	"giftwallet/internal/services"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store, err := memory.NewSeeded(memory.DemoSeed())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := services.NewCardService(store, nil, services.Options{
		ListCacheTTL: time.Minute,
		Now:          func() time.Time { return time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC) },
	})
	srv := NewServer(":0", svc, Options{RateLimitPerMinute: 100})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, store
}

func serve(srv *Server, method, target, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := serve(srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestReadyReportsStorageFailure(t *testing.T) {
	srv := NewServer(":0", failingService{}, Options{})
	defer srv.Shutdown(context.Background())

	rr := serve(srv, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestListCards(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := serve(srv, http.MethodGet, "/api/cards", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}

	var cards []core.CardRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &cards); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cards) != 3 || cards[0].LastFourDigits != "4532" {
		t.Fatalf("cards = %+v", cards)
	}
	if cards[1].IsExpired == nil || !*cards[1].IsExpired {
		t.Errorf("7891 expiring 03/25 should be expired: %+v", cards[1])
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestCreateCard(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := serve(srv, http.MethodPost, "/api/cards", `{"lastFourDigits":"1111","balance":"100","expiryMonth":"12","expiryYear":"26","isExpired":false}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var created core.CardRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.Balance != "100" {
		t.Errorf("created = %+v", created)
	}

	rr = serve(srv, http.MethodGet, "/api/cards", "")
	if !strings.Contains(rr.Body.String(), `"lastFourDigits":"1111"`) {
		t.Errorf("list should include the new card: %s", rr.Body.String())
	}
}

func TestCreateCardValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad last four", `{"lastFourDigits":"12","balance":"1","expiryMonth":"01","expiryYear":"27"}`, http.StatusUnprocessableEntity},
		{"three decimals", `{"lastFourDigits":"1234","balance":"1.234","expiryMonth":"01","expiryYear":"27"}`, http.StatusUnprocessableEntity},
		{"negative", `{"lastFourDigits":"1234","balance":"-1","expiryMonth":"01","expiryYear":"27"}`, http.StatusUnprocessableEntity},
		{"month 13", `{"lastFourDigits":"1234","balance":"1","expiryMonth":"13","expiryYear":"27"}`, http.StatusUnprocessableEntity},
		{"malformed", `{"lastFourDigits"`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(srv, http.MethodPost, "/api/cards", tt.body)
			if rr.Code != tt.want {
				t.Errorf("status=%d want %d body=%s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestDeleteCardAndTransactions(t *testing.T) {
	srv, store := newTestServer(t)
	cards, _ := store.ListCards(context.Background())
	id := cards[0].ID

	rr := serve(srv, http.MethodGet, "/api/cards/"+id+"/transactions", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("transactions status=%d", rr.Code)
	}
	var txs []core.Transaction
	if err := json.Unmarshal(rr.Body.Bytes(), &txs); err != nil {
		t.Fatal(err)
	}
	if len(txs) != 4 || txs[0].Merchant != "Amazon" {
		t.Fatalf("txs = %+v", txs)
	}

	rr = serve(srv, http.MethodDelete, "/api/cards/"+id, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	rr = serve(srv, http.MethodDelete, "/api/cards/"+id, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d", rr.Code)
	}
	rr = serve(srv, http.MethodGet, "/api/cards/"+id+"/transactions", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("transactions of deleted card status=%d", rr.Code)
	}
}

func TestEmptyTransactionsIsArray(t *testing.T) {
	srv, store := newTestServer(t)
	cards, _ := store.ListCards(context.Background())

	rr := serve(srv, http.MethodGet, "/api/cards/"+cards[2].ID+"/transactions", "")
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	store := memory.New()
	svc := services.NewCardService(store, nil, services.Options{})
	srv := NewServer(":0", svc, Options{RateLimitPerMinute: 1})
	defer srv.Shutdown(context.Background())

	body := `{"lastFourDigits":"1111","balance":"1","expiryMonth":"01","expiryYear":"30"}`
	if rr := serve(srv, http.MethodPost, "/api/cards", body); rr.Code != http.StatusCreated {
		t.Fatalf("first create status=%d", rr.Code)
	}
	if rr := serve(srv, http.MethodPost, "/api/cards", body); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second create status=%d", rr.Code)
	}
	if rr := serve(srv, http.MethodGet, "/api/cards", ""); rr.Code != http.StatusOK {
		t.Fatalf("reads are not limited, status=%d", rr.Code)
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	srv, _ := newTestServer(t)
	if rr := serve(srv, http.MethodGet, "/api/nope", ""); rr.Code != http.StatusNotFound {
		t.Errorf("status=%d", rr.Code)
	}
	if rr := serve(srv, http.MethodPut, "/api/cards", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status=%d", rr.Code)
	}
}

func TestMetrics(t *testing.T) {
	srv, _ := newTestServer(t)
	serve(srv, http.MethodGet, "/api/cards", "")
	rr := serve(srv, http.MethodGet, "/metrics", "")
	if !strings.Contains(rr.Body.String(), "http_requests_total") {
		t.Errorf("metrics body: %s", rr.Body.String())
	}
}

// The REST client and the server agree on paths and payloads.
func TestClientRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	client := api.New(ts.URL, 5*time.Second)
	ctx := context.Background()

	created, err := client.CreateCard(ctx, core.NewCard{LastFourDigits: "9999", Balance: "42.5", ExpiryMonth: "09", ExpiryYear: "29"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	cards, err := client.ListCards(ctx)
	if err != nil || len(cards) != 4 {
		t.Fatalf("list: %v, %d cards", err, len(cards))
	}
	if err := client.DeleteCard(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	err = client.DeleteCard(ctx, created.ID)
	var se *api.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 status error, got %v", err)
	}
}

type failingService struct{}

func (failingService) ListCards(context.Context) ([]core.CardRecord, error) {
	return nil, errors.New("down")
}
func (failingService) CreateCard(context.Context, core.NewCard) (core.CardRecord, error) {
	return core.CardRecord{}, errors.New("down")
}
func (failingService) DeleteCard(context.Context, string) error { return errors.New("down") }
func (failingService) ListTransactions(context.Context, string) ([]core.Transaction, error) {
	return nil, errors.New("down")
}
func (failingService) Ready(context.Context) error { return errors.New("down") }
