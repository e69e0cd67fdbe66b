// Command usersapi serves the /api/users CRUD resource over HTTP.
package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"usersapi/internal/adapters/apidoc"
	"usersapi/internal/adapters/users"
	"usersapi/internal/config"
	"usersapi/internal/core"
	"usersapi/internal/telemetry"
	"usersapi/pkg/domain"
)

const (
	serviceName       = "usersapi"
	readHeaderTimeout = 5 * time.Second
)

var exitFunc = os.Exit

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli(ctx, os.Stderr)
	stop()
	exitFunc(code)
}

func cli(ctx context.Context, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "usersapi: %v\n", err)
		return 2
	}
	logger := newLogger(stderr, cfg.Level())
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("usersapi stopped", "error", err)
		return 1
	}
	return 0
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// app holds the wired process components.
type app struct {
	store           domain.PersistentStore
	api             http.Handler
	metrics         http.Handler
	shutdownTracing func(context.Context) error
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.TelemetryConfig())
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}

	store, err := core.OpenPersistentStore(ctx, cfg.StorageConfig())
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("open store: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promRecorder, err := core.NewPrometheusMetricsRecorder(reg)
	if err != nil {
		_ = store.Close()
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("metrics recorder: %w", err)
	}

	svc := core.NewService(store,
		core.WithLogger(logger),
		core.WithMetricsRecorder(core.MultiMetricsRecorder{promRecorder, core.NewExpvarMetricsRecorder("")}),
		core.WithTracer(core.NewOTelTracer(nil)),
	)
	handler := users.NewHandler(svc,
		users.WithLogger(logger),
		users.WithBodyTimeout(cfg.BodyReadTimeout),
		users.WithMaxBodyBytes(cfg.MaxBodyBytes),
	)

	metrics := http.NewServeMux()
	metrics.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	metrics.Handle("/debug/vars", expvar.Handler())
	metrics.Handle("/openapi.yaml", apidoc.NewOpenAPIHandler())

	logger.Info("store opened", "driver", string(cfg.StorageConfig().Driver))
	return &app{
		store:           store,
		api:             instrumentHandler(reg, handler),
		metrics:         metrics,
		shutdownTracing: shutdownTracing,
	}, nil
}

func instrumentHandler(reg prometheus.Registerer, next http.Handler) http.Handler {
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "usersapi",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Requests currently being served.",
	})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "usersapi",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by status code and method.",
	}, []string{"code", "method"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "usersapi",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by status code and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"code", "method"})
	reg.MustRegister(inFlight, requests, duration)

	return promhttp.InstrumentHandlerInFlight(inFlight,
		promhttp.InstrumentHandlerDuration(duration,
			promhttp.InstrumentHandlerCounter(requests, next)))
}

func (a *app) close(ctx context.Context) error {
	return errors.Join(a.store.Close(), a.shutdownTracing(ctx))
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) (err error) {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if cerr := a.close(closeCtx); cerr != nil && err == nil {
			err = fmt.Errorf("close: %w", cerr)
		}
	}()

	apiLn, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr(), err)
	}
	var metricsLn net.Listener
	if cfg.MetricsAddr != "" {
		metricsLn, err = net.Listen("tcp", cfg.MetricsAddr)
		if err != nil {
			_ = apiLn.Close()
			return fmt.Errorf("listen metrics %s: %w", cfg.MetricsAddr, err)
		}
	}
	return serve(ctx, a, apiLn, metricsLn, cfg.ShutdownTimeout, logger)
}

// serve runs the API (and optional metrics) server until ctx is done or a
// server fails, then shuts both down gracefully.
func serve(ctx context.Context, a *app, apiLn, metricsLn net.Listener, shutdownTimeout time.Duration, logger *slog.Logger) error {
	errCh := make(chan error, 2)
	servers := []*http.Server{{Handler: a.api, ReadHeaderTimeout: readHeaderTimeout}}
	listeners := []net.Listener{apiLn}
	if metricsLn != nil {
		servers = append(servers, &http.Server{Handler: a.metrics, ReadHeaderTimeout: readHeaderTimeout})
		listeners = append(listeners, metricsLn)
	}
	for i, srv := range servers {
		srv := srv // per-iteration copy (go directive is 1.21)
		ln := listeners[i]
		logger.Info("listening", "addr", ln.Addr().String())
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case serveErr = <-errCh:
		logger.Error("server failed", "error", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	errs := []error{serveErr}
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}
