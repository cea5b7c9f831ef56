// Package server exposes the ledger over a JSON HTTP API.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fairshare/fairshare/internal/ledger"
)

// Server routes HTTP requests to ledger operations.
type Server struct {
	ledger *ledger.Ledger
	router *mux.Router
}

// New creates a Server with all routes and middleware registered.
func New(l *ledger.Ledger) *Server {
	s := &Server{
		ledger: l,
		router: mux.NewRouter(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Use(requestIDMiddleware, metricsMiddleware, loggingMiddleware)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/users", s.createUser).Methods("POST")
	api.HandleFunc("/users", s.listUsers).Methods("GET")
	api.HandleFunc("/users/{name}", s.renameUser).Methods("PUT")

	api.HandleFunc("/expenses", s.addExpense).Methods("POST")
	api.HandleFunc("/expenses", s.listExpenses).Methods("GET")
	api.HandleFunc("/expenses/{id:[0-9]+}", s.getExpense).Methods("GET")
	api.HandleFunc("/expenses/{id:[0-9]+}", s.updateExpense).Methods("PUT")
	api.HandleFunc("/expenses/{id:[0-9]+}/debtors", s.getDebtors).Methods("GET")

	api.HandleFunc("/balances", s.getBalances).Methods("GET")

	api.HandleFunc("/settlements", s.settle).Methods("POST")
	api.HandleFunc("/settlements", s.listSettlements).Methods("GET")
	api.HandleFunc("/settlements/{id:[0-9]+}/expenses", s.settledExpenses).Methods("GET")

	s.router.HandleFunc("/healthz", s.health).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
