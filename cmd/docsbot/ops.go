package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

const opsShutdownTimeout = 5 * time.Second

// ops exports the open telemetry metrics to prometheus and serves them along with a health check
type ops struct {
	registry      *prometheus.Registry
	meterProvider *sdkmetric.MeterProvider
}

// newOps creates the metric pipeline and installs its meter provider as the global one
func newOps() (o *ops, err error) {
	o = new(ops)
	o.registry = prometheus.NewRegistry()
	o.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	exporter, err := otelprom.New(otelprom.WithRegisterer(o.registry))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create prometheus exporter")
	}

	o.meterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(o.meterProvider)

	return o, nil
}

func (o *ops) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{}))

	return r
}

// serve listens on addr in the background. Listening failures are logged
func (o *ops) serve(addr string, logger *zap.Logger) (server *http.Server) {
	server = &http.Server{Addr: addr, Handler: o.router(), ReadHeaderTimeout: 10 * time.Second}

	go func() {
		logger.Info("Serving metrics and health checks", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Ops server failed", zap.Error(err))
		}
	}()

	return server
}

// shutdown stops server, if any, and flushes the meter provider
func (o *ops) shutdown(server *http.Server) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), opsShutdownTimeout)
	defer cancel()

	if server != nil {
		if err = server.Shutdown(ctx); err != nil {
			return errors.Wrap(err, "failed to shut down ops server")
		}
	}

	return o.meterProvider.Shutdown(ctx)
}
