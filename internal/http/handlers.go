package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"giftwallet/internal/log"
)

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.cards.ListCards(r.Context())
	if err != nil {
		s.serviceError(w, r, "List cards failed", log.OpList, err)
		return
	}
	NewJSONResponse().Body(cards).Write(w, r)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	card, err := ParseNewCard(w, r)
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Invalid create card body", log.FieldError, err)
		parseErrorResponse(err).Write(w, r)
		return
	}

	created, err := s.cards.CreateCard(r.Context(), card)
	if err != nil {
		s.serviceError(w, r, "Create card failed", log.OpCreate, err)
		return
	}
	atomic.AddInt64(&s.createdCards, 1)
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/cards/"+created.ID).
		Body(created).
		Write(w, r)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.cards.DeleteCard(r.Context(), id); err != nil {
		s.serviceError(w, r, "Delete card failed", log.OpDelete, err)
		return
	}
	atomic.AddInt64(&s.deletedCards, 1)
	NewJSONResponse().Status(http.StatusNoContent).Write(w, r)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	txs, err := s.cards.ListTransactions(r.Context(), id)
	if err != nil {
		s.serviceError(w, r, "List transactions failed", log.OpFetch, err)
		return
	}
	NewJSONResponse().Body(txs).Write(w, r)
}

// serviceError logs server-side failures at error level and client
// mistakes at debug, then writes the mapped response.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, msg, op string, err error) {
	resp := errorResponse(err)
	logger := log.FromContext(r.Context())
	if resp.statusCode >= http.StatusInternalServerError {
		log.NewStructuredLogger(logger).LogError(r.Context(), msg, err, op, nil)
	} else {
		logger.DebugContext(r.Context(), msg, log.FieldError, err, log.FieldOperation, op)
	}
	resp.Write(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	}).Write(w, r)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{
		"rate_limiter": map[string]any{"active_clients": s.rateLimiter.ActiveClients()},
	}
	if err := s.cards.Ready(ctx); err != nil {
		checks["storage"] = fmt.Sprintf("failed: %v", err)
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	NewJSONResponse().Status(code).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w, r)
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	traceMetrics := s.traceMiddleware.GetMetrics()
	rl := s.rateLimiter.GetMetrics()
	sec := s.securityDetector.GetMetrics()

	metric := func(name, kind, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %d\n\n", name, help, name, kind, name, v)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_response_time_avg_us", "gauge", "Average response time in microseconds", traceMetrics.AverageResponseTime)
	metric("cards_created_total", "counter", "Cards created through the API", atomic.LoadInt64(&s.createdCards))
	metric("cards_deleted_total", "counter", "Cards deleted through the API", atomic.LoadInt64(&s.deletedCards))
	metric("rate_limit_hits_total", "counter", "Requests rejected by the rate limiter", rl.TotalHits)
	metric("rate_limit_clients", "gauge", "Clients tracked by the rate limiter", rl.ClientCount)
	metric("suspicious_requests_total", "counter", "Requests matching probe patterns", sec.SuspiciousRequests)
}
