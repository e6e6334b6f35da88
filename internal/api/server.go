// Package api exposes the roulette engine over HTTP: JSON in and out,
// bearer-token auth, decimal money at the boundary.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/MJE43/fair-roulette-go/internal/credits"
	"github.com/MJE43/fair-roulette-go/internal/ledger"
)

// Server handles HTTP requests.
type Server struct {
	ledger    *ledger.Ledger
	credits   *credits.Service
	jwtSecret []byte
	cors      []string
	log       *zap.Logger
}

// NewServer creates an API server over the ledger and credits services.
func NewServer(l *ledger.Ledger, cs *credits.Service, jwtSecret []byte, corsOrigins []string, log *zap.Logger) *Server {
	return &Server{
		ledger:    l,
		credits:   cs,
		jwtSecret: jwtSecret,
		cors:      corsOrigins,
		log:       log,
	}
}

// Routes sets up the HTTP routes.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Heartbeat("/health"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cors,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           86400,
	}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Route("/roulette", func(r chi.Router) {
			r.Post("/session", s.handleOpenSession)
			r.Post("/session/{id}/bet", s.handlePlaceBet)
			r.Get("/session/{id}/spins", s.handleListSpins)
			r.Post("/session/{id}/reveal", s.handleReveal)
			r.Post("/verify", s.handleVerify)
			r.Get("/user", s.handleGetUser)
			r.Post("/user/deposit", s.handleDeposit)
		})

		r.Route("/credits", func(r chi.Router) {
			r.Post("/request", s.handleCreditRequest)
			r.With(s.requireAdmin).Get("/", s.handleCreditList)
			r.With(s.requireAdmin).Post("/{id}/approve", s.handleCreditApprove)
			r.With(s.requireAdmin).Post("/{id}/deny", s.handleCreditDeny)
		})
	})

	return r
}

// requestLogger logs one line per request. Seeds and tokens never appear
// in URLs, so the path is safe to log verbatim.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
