// Package http exposes the JSON API. Handlers parse and translate; all
// domain rules live in the services they call.
package http

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	applog "accountbook/internal/log"
	"accountbook/internal/services"
)

type Server struct {
	http.Server

	families      *services.FamilyService
	categories    *services.CategoryService
	expenses      *services.ExpenseService
	incomes       *services.IncomeService
	notifications *services.NotificationService
	dashboard     *services.DashboardService

	rateLimiter  *rateLimiter
	logger       *slog.Logger
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware around the services.
func NewServer(
	addr string,
	families *services.FamilyService,
	categories *services.CategoryService,
	expenses *services.ExpenseService,
	incomes *services.IncomeService,
	notifications *services.NotificationService,
	dashboard *services.DashboardService,
) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		families:      families,
		categories:    categories,
		expenses:      expenses,
		incomes:       incomes,
		notifications: notifications,
		dashboard:     dashboard,
		rateLimiter:   newRateLimiter(),
		logger:        slog.Default().With(applog.FieldComponent, applog.ComponentHTTP),
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /api/families", s.wrap(s.handleCreateFamily))
	mux.HandleFunc("GET /api/families/{uuid}", s.wrap(s.handleGetFamily))
	mux.HandleFunc("PATCH /api/families/{uuid}", s.wrap(s.handleRenameFamily))
	mux.HandleFunc("DELETE /api/families/{uuid}", s.wrap(s.handleDeleteFamily))
	mux.HandleFunc("PUT /api/families/{uuid}/budget", s.wrap(s.handleSetMonthlyBudget))
	mux.HandleFunc("GET /api/families/{uuid}/members", s.wrap(s.handleListMembers))
	mux.HandleFunc("DELETE /api/families/{uuid}/members/{user}", s.wrap(s.handleRemoveMember))
	mux.HandleFunc("POST /api/families/{uuid}/invitations", s.wrap(s.handleCreateInvitation))
	mux.HandleFunc("POST /api/invitations/accept", s.wrap(s.handleAcceptInvitation))

	mux.HandleFunc("POST /api/families/{uuid}/categories", s.wrap(s.handleCreateCategory))
	mux.HandleFunc("GET /api/families/{uuid}/categories", s.wrap(s.handleListCategories))
	mux.HandleFunc("PATCH /api/categories/{uuid}", s.wrap(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{uuid}", s.wrap(s.handleDeleteCategory))

	mux.HandleFunc("POST /api/families/{uuid}/expenses", s.wrap(s.handleCreateExpense))
	mux.HandleFunc("GET /api/families/{uuid}/expenses", s.wrap(s.handleListExpenses))
	mux.HandleFunc("GET /api/expenses/{uuid}", s.wrap(s.handleGetExpense))
	mux.HandleFunc("PATCH /api/expenses/{uuid}", s.wrap(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/expenses/{uuid}", s.wrap(s.handleDeleteExpense))

	mux.HandleFunc("POST /api/families/{uuid}/incomes", s.wrap(s.handleCreateIncome))
	mux.HandleFunc("GET /api/families/{uuid}/incomes", s.wrap(s.handleListIncomes))
	mux.HandleFunc("PATCH /api/incomes/{uuid}", s.wrap(s.handleUpdateIncome))
	mux.HandleFunc("DELETE /api/incomes/{uuid}", s.wrap(s.handleDeleteIncome))

	mux.HandleFunc("GET /api/families/{uuid}/dashboard/monthly", s.wrap(s.handleMonthlyStats))
	mux.HandleFunc("GET /api/families/{uuid}/dashboard/summary", s.wrap(s.handleCachedSummary))

	mux.HandleFunc("GET /api/notifications", s.wrap(s.handleListNotifications))
	mux.HandleFunc("GET /api/notifications/unread-count", s.wrap(s.handleUnreadCount))
	mux.HandleFunc("POST /api/notifications/{uuid}/read", s.wrap(s.handleMarkNotificationRead))

	return s
}

// wrap applies request ID, rate limiting, panic recovery and access logging.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := generateRequestID()
		w.Header().Set("X-Request-ID", requestID)

		if !s.rateLimiter.allow(clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if rec := recover(); rec != nil {
				s.logger.ErrorContext(r.Context(), "Handler panic",
					applog.FieldRequestID, requestID,
					applog.FieldMethod, r.Method,
					applog.FieldPath, r.URL.Path,
					applog.FieldError, rec)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			s.logger.InfoContext(r.Context(), "Request handled",
				applog.FieldRequestID, requestID,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldStatusCode, rw.status,
				applog.FieldDuration, time.Since(start))
		}()

		next(rw, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Shutdown stops the rate limiter's cleanup goroutine and drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
