// Package http exposes the ledger as a JSON API. Authentication is
// delegated to the fronting proxy, which passes the caller's user id in
// the X-User-ID header.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/404Simon/splitify/internal/middleware/ratelimit"
	"github.com/404Simon/splitify/internal/middleware/trace"
	"github.com/404Simon/splitify/internal/services"
	"github.com/404Simon/splitify/internal/storage"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	http.Server

	storage      *storage.SQLiteRepository
	debts        *services.DebtService
	transactions *services.TransactionService
	balances     *services.BalanceService
	recurring    *services.RecurringService

	limiter *ratelimit.Limiter
}

// Options carries the wired services a Server needs.
type Options struct {
	Storage      *storage.SQLiteRepository
	Debts        *services.DebtService
	Transactions *services.TransactionService
	Balances     *services.BalanceService
	Recurring    *services.RecurringService

	RequestsPerMinute int
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, opts Options) *Server {
	s := &Server{
		storage:      opts.Storage,
		debts:        opts.Debts,
		transactions: opts.Transactions,
		balances:     opts.Balances,
		recurring:    opts.Recurring,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RequestsPerMinute,
		}),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/users", s.handleCreateUser)

	mux.HandleFunc("POST /api/groups", s.handleCreateGroup)
	mux.HandleFunc("GET /api/groups/{id}", s.handleGetGroup)
	mux.HandleFunc("POST /api/groups/{id}/members", s.handleAddGroupMember)
	mux.HandleFunc("GET /api/groups/{id}/members", s.handleListGroupMembers)

	mux.HandleFunc("POST /api/groups/{id}/debts", s.handleCreateDebt)
	mux.HandleFunc("GET /api/groups/{id}/debts", s.handleListDebts)
	mux.HandleFunc("GET /api/debts/{id}", s.handleGetDebt)
	mux.HandleFunc("DELETE /api/debts/{id}", s.handleDeleteDebt)
	mux.HandleFunc("PUT /api/debts/{id}/participants", s.handleUpdateDebtParticipants)

	mux.HandleFunc("POST /api/groups/{id}/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/groups/{id}/transactions", s.handleListTransactions)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("POST /api/groups/{id}/recurring", s.handleCreateRecurring)
	mux.HandleFunc("GET /api/groups/{id}/recurring", s.handleListRecurring)
	mux.HandleFunc("GET /api/recurring/{id}", s.handleGetRecurring)
	mux.HandleFunc("DELETE /api/recurring/{id}", s.handleDeleteRecurring)
	mux.HandleFunc("POST /api/recurring/{id}/activate", s.handleActivateRecurring)
	mux.HandleFunc("POST /api/recurring/{id}/deactivate", s.handleDeactivateRecurring)
	mux.HandleFunc("PUT /api/recurring/{id}/participants", s.handleUpdateRecurringParticipants)
	mux.HandleFunc("GET /api/recurring/{id}/debts", s.handleListGeneratedDebts)

	mux.HandleFunc("GET /api/groups/{id}/balances", s.handleGroupBalances)
	mux.HandleFunc("GET /api/groups/{id}/settle", s.handleSettleUp)

	tracer := trace.NewMiddleware(clientIP)
	handler := tracer.Middleware(s.limiter.Middleware(clientIP)(mux))

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter janitor along with the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
