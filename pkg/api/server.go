package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"funds-transfer/pkg/account"
	"funds-transfer/pkg/logging"
	"funds-transfer/pkg/registry"
	"funds-transfer/pkg/transfer"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server provides read-only HTTP endpoints for inspecting accounts and metrics.
// Transfers are not exposed.
type Server struct {
	coord    *transfer.Coordinator
	gatherer prometheus.Gatherer
	router   *mux.Router
	server   *http.Server
	config   ServerConfig
	logger   *logging.Logger
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	// Address to listen on (e.g., ":8080")
	Address string

	// ReadTimeout for HTTP requests
	ReadTimeout time.Duration

	// WriteTimeout for HTTP responses
	WriteTimeout time.Duration

	// SnapshotTimeout bounds a /snapshot request, including its lock waits
	SnapshotTimeout time.Duration
}

// DefaultServerConfig returns a default configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Address:         ":8080",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		SnapshotTimeout: 5 * time.Second,
	}
}

// NewServer creates a new API server over coord.
// gatherer backs /metrics and may be nil, in which case the route is not registered.
func NewServer(coord *transfer.Coordinator, gatherer prometheus.Gatherer, config ServerConfig) *Server {
	s := &Server{
		coord:    coord,
		gatherer: gatherer,
		config:   config,
		logger:   logging.Global().Named("api"),
	}

	r := mux.NewRouter()
	r.Use(s.loggingMiddleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/accounts", s.handleAccounts).Methods(http.MethodGet)
	r.HandleFunc("/accounts/{id:-?[0-9]+}", s.handleAccount).Methods(http.MethodGet)
	r.HandleFunc("/accounts/{id:-?[0-9]+}/entries", s.handleEntries).Methods(http.MethodGet)
	r.HandleFunc("/report", s.handleReport).Methods(http.MethodGet)
	r.HandleFunc("/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	r.HandleFunc("/journal", s.handleJournal).Methods(http.MethodGet)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	s.router = r
	s.server = &http.Server{
		Addr:         config.Address,
		Handler:      r,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return s
}

// Handler returns the router, for embedding or testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server in a goroutine.
func (s *Server) Start() error {
	go func() {
		s.logger.Info("diagnostics server listening", zap.String("address", s.config.Address))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("diagnostics server failed", zap.Error(err))
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type accountView struct {
	ID           int64  `json:"id"`
	Balance      string `json:"balance"`
	Entries      int    `json:"entries"`
	CircuitState string `json:"circuit_state"`
}

func (s *Server) view(acct account.Account) accountView {
	return accountView{
		ID:           acct.ID(),
		Balance:      acct.Balance().StringFixed(2),
		Entries:      len(acct.Entries()),
		CircuitState: s.coord.BreakerState(acct.ID()).String(),
	}
}

// handleHealth returns a simple health check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"uptime":    time.Since(startTime).String(),
		"accounts":  s.coord.Registry().Len(),
		"breakers":  s.coord.BreakersEnabled(),
	})
}

// handleAccounts lists every account in ascending id order.
func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	accounts := s.coord.Registry().Accounts()
	views := make([]accountView, 0, len(accounts))
	for _, acct := range accounts {
		views = append(views, s.view(acct))
	}
	writeJSON(w, http.StatusOK, views)
}

// handleAccount returns one account.
func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.lookup(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account": s.view(acct),
		"display": s.coord.AccountBalance(acct.ID()),
	})
}

// handleEntries returns an account's log.
func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	acct, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, acct.Entries())
}

// handleReport returns the plain-text balance report.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := s.coord.PrintAccountBalances(w); err != nil {
		s.logger.Warn("report write failed", zap.Error(err))
	}
}

// handleSnapshot returns a lock-ordered point-in-time view of all balances.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.config.SnapshotTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.SnapshotTimeout)
		defer cancel()
	}

	snapshot, err := s.coord.Snapshot(ctx)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// handleJournal returns journal statistics when a journal is configured.
func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	j := s.coord.Journal()
	if j == nil {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": "journal not configured",
		})
		return
	}
	writeJSON(w, http.StatusOK, j.Stats())
}

// lookup resolves the {id} route variable, writing the error response itself.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (account.Account, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": "invalid account id",
		})
		return nil, false
	}

	acct, err := s.coord.Registry().Lookup(id)
	if err != nil {
		status := http.StatusInternalServerError
		if registry.IsNotFound(err) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, map[string]interface{}{
			"error": err.Error(),
			"id":    id,
		})
		return nil, false
	}
	return acct, true
}

// loggingMiddleware logs each request with its route template and status.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(srw, r)

		s.logger.Debug("request served",
			zap.String("method", r.Method),
			zap.String("endpoint", endpoint(r)),
			zap.Int("status", srw.statusCode),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// statusResponseWriter captures the status code
type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// endpoint returns the route template, falling back to the raw path.
func endpoint(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return r.URL.Path
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return r.URL.Path
	}
	return tpl
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

var startTime = time.Now()
