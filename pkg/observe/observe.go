// Package observe wires the OpenTelemetry meter provider of the commands to
// a Prometheus scrape endpoint.
package observe

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xaionaro-go/observability"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const MetricsPath = "/metrics"

type Provider struct {
	MeterProvider *sdkmetric.MeterProvider
	Registry      *prometheus.Registry
}

// InitProvider creates a meter provider exporting into a dedicated
// Prometheus registry and installs it as the global one.
func InitProvider() (*Provider, error) {
	registry := prometheus.NewRegistry()
	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(mp)
	return &Provider{
		MeterProvider: mp,
		Registry:      registry,
	}, nil
}

func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{})
}

// Serve exposes the metrics at MetricsPath on the listener until ctx is
// cancelled.
func (p *Provider) Serve(ctx context.Context, listener net.Listener) {
	mux := http.NewServeMux()
	mux.Handle(MetricsPath, p.Handler())
	srv := &http.Server{Handler: mux}

	observability.Go(ctx, func() {
		<-ctx.Done()
		if err := srv.Close(); err != nil {
			logger.Errorf(ctx, "unable to close the metrics server: %v", err)
		}
	})
	observability.Go(ctx, func() {
		logger.Infof(ctx, "serving metrics at %v%s", listener.Addr(), MetricsPath)
		err := srv.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf(ctx, "the metrics server stopped: %v", err)
		}
	})
}

func (p *Provider) Shutdown(ctx context.Context) error {
	return p.MeterProvider.Shutdown(ctx)
}
