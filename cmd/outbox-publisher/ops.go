package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillment-backend/pkg/logger"
)

const opsShutdownTimeout = 5 * time.Second

const maxDLQListLimit = 200

type healthChecker func(context.Context) error

type dlqLister interface {
	ListDLQ(tx *gorm.DB, limit int) ([]models.OutboxDLQ, error)
}

func newOpsRouter(gatherer prometheus.Gatherer, checks map[string]healthChecker, dlq dlqLister) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		for name, check := range checks {
			if err := check(req.Context()); err != nil {
				http.Error(w, name+" unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	if dlq != nil {
		r.Get("/dlq", func(w http.ResponseWriter, req *http.Request) {
			limit := 50
			if raw := req.URL.Query().Get("limit"); raw != "" {
				parsed, err := strconv.Atoi(raw)
				if err != nil || parsed < 1 {
					http.Error(w, "invalid limit", http.StatusBadRequest)
					return
				}
				limit = min(parsed, maxDLQListLimit)
			}
			rows, err := dlq.ListDLQ(nil, limit)
			if err != nil {
				http.Error(w, "dlq unavailable", http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(rows)
		})
	}
	return r
}

// serveOps runs the ops listener until ctx is done.
func serveOps(ctx context.Context, addr string, handler http.Handler, logg *logger.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "addr", addr), "ops server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), opsShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
