package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ghinsight/ghinsight/pkg/apierr"
	"github.com/ghinsight/ghinsight/pkg/logging"
	"github.com/ghinsight/ghinsight/pkg/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve account insight over HTTP",
	Long: `Starts an HTTP server exposing the fetch operations as a small JSON
API, plus health and Prometheus metrics endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		port, _ := cmd.Flags().GetInt("port")
		return runServer(cmd.Context(), a, port)
	},
}

// server holds the operations behind the HTTP handlers.
type server struct {
	app          *app
	accounts     *usecase.FetchAccount
	repositories *usecase.FetchRepositories
	search       *usecase.SearchAccounts
}

func runServer(ctx context.Context, a *app, port int) error {
	logger := logging.NewLogger("server")

	s := &server{
		app:          a,
		accounts:     usecase.NewFetchAccount(a.gateway, a.tokens),
		repositories: usecase.NewFetchRepositories(a.gateway, a.tokens),
		search:       usecase.NewSearchAccounts(a.gateway, a.tokens),
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)

	router.Get("/healthz", s.handleHealth)
	router.Handle("/metrics", promhttp.Handler())
	router.Route("/v1", func(r chi.Router) {
		r.Get("/users/{login}", s.handleAccount)
		r.Get("/users/{login}/repos", s.handleRepositories)
		r.Get("/search/users", s.handleSearch)
		r.Get("/rate_limit", s.handleRateLimit)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Int("port", port).Msg("Server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.app.client.HealthCheck(r.Context())
	status := http.StatusOK
	if !health.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"healthy":     health.Healthy,
		"status_code": health.StatusCode,
		"latency_ms":  health.Latency.Milliseconds(),
	})
}

func (s *server) handleAccount(w http.ResponseWriter, r *http.Request) {
	result, err := s.accounts.Execute(r.Context(), usecase.FetchAccountInput{
		Login:        chi.URLParam(r, "login"),
		UseCache:     true,
		ForceRefresh: r.URL.Query().Get("refresh") == "true",
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleRepositories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := s.repositories.Execute(r.Context(), usecase.FetchRepositoriesInput{
		Login:            chi.URLParam(r, "login"),
		Page:             intParam(q.Get("page")),
		PerPage:          intParam(q.Get("per_page")),
		Sort:             q.Get("sort"),
		Direction:        q.Get("direction"),
		Language:         q.Get("language"),
		Type:             q.Get("type"),
		MinStars:         intParam(q.Get("min_stars")),
		ActiveOnly:       q.Get("active_only") == "true",
		SortBy:           q.Get("sort_by"),
		IncludeAnalytics: q.Get("analytics") == "true",
		UseCache:         true,
		ForceRefresh:     q.Get("refresh") == "true",
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := s.search.Execute(r.Context(), usecase.SearchAccountsInput{
		Query:    q.Get("q"),
		Page:     intParam(q.Get("page")),
		PerPage:  intParam(q.Get("per_page")),
		Sort:     q.Get("sort"),
		UseCache: true,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleRateLimit(w http.ResponseWriter, r *http.Request) {
	state, err := s.app.gateway.RateLimit(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// intParam parses a numeric query parameter; empty or malformed values
// fall through as zero so the operation's defaults and validation apply.
func intParam(raw string) int {
	n, _ := strconv.Atoi(raw)
	return n
}

// writeError maps the error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch apierr.KindOf(err) {
	case apierr.KindValidation:
		status = http.StatusBadRequest
	case apierr.KindNotFound:
		status = http.StatusNotFound
	case apierr.KindRateLimit:
		status = http.StatusTooManyRequests
	}
	if errors.Is(err, usecase.ErrSuperseded) {
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  string(apierr.KindOf(err)),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Int("port", 8080, "listen port")
}
