package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"giftwallet/internal/core"
	"giftwallet/internal/log"
	"giftwallet/internal/middleware/ratelimit"
	"giftwallet/internal/middleware/security"
	"giftwallet/internal/middleware/trace"
)

// CardService is what the handlers need from the service layer.
type CardService interface {
	ListCards(ctx context.Context) ([]core.CardRecord, error)
	CreateCard(ctx context.Context, n core.NewCard) (core.CardRecord, error)
	DeleteCard(ctx context.Context, id string) error
	ListTransactions(ctx context.Context, cardID string) ([]core.Transaction, error)
	Ready(ctx context.Context) error
}

type Options struct {
	Logger             *log.Logger
	RateLimitPerMinute int
	// TrustedProxies are CIDRs whose X-Forwarded-For is believed, on top
	// of loopback and private ranges.
	TrustedProxies []string
}

type Server struct {
	http.Server
	cards  CardService
	logger *log.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	startedAt        time.Time
	createdCards     int64
	deletedCards     int64

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, cards CardService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}
	s := &Server{
		cards:            cards,
		logger:           logger.WithComponent(log.ComponentHTTP),
		securityDetector: detector,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		startedAt:        time.Now(),
	}

	r := chi.NewRouter()
	r.Use(s.traceMiddleware.Middleware)
	r.Use(chimw.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(detector.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("not found").Write(w, r)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w, r)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Route("/api/cards", func(r chi.Router) {
		r.Use(s.rateLimiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			TooManyRequestsError().Write(w, r)
		}, http.MethodPost, http.MethodDelete))

		r.Get("/", s.handleListCards)
		r.Post("/", s.handleCreateCard)
		r.Delete("/{id}", s.handleDeleteCard)
		r.Get("/{id}/transactions", s.handleListTransactions)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
