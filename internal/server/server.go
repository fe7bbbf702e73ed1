// Package server runs the HTTP servers of every service with the same
// tracing, timeouts and shutdown behaviour.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/freshbasket/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

// New adds /healthz, and /metrics when metrics is non-nil, to mux and wraps
// it with server tracing.
func New(port, serviceName string, mux *http.ServeMux, metrics http.Handler) *http.Server {
	mux.HandleFunc("GET /healthz", HandleHealth)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	return &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(mux, serviceName,
			otelhttp.WithSpanNameFormatter(telemetry.ServerSpanName),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Run serves until ctx is done and then shuts down gracefully.
func Run(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
