// Package metrics exports conversation and parser counters to Prometheus
// through OpenTelemetry.
package metrics

import (
	"context"
	"net/http"

	"github.com/mudler/m2context/pkg/sentence"
	"github.com/mudler/xlog"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	api "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "github.com/mudler/m2context"

type Metrics struct {
	registry *prom.Registry
	provider *metric.MeterProvider

	turns           api.Int64Counter
	incompleteTurns api.Int64Counter
	toolCalls       api.Int64Counter
	tokens          api.Int64Counter
}

// SetupMetrics bootstraps the OpenTelemetry pipeline on a dedicated
// Prometheus registry. Call Shutdown when done.
func SetupMetrics() (*Metrics, error) {
	registry := prom.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, err
	}
	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	meter := provider.Meter(meterName)

	m := &Metrics{registry: registry, provider: provider}

	if m.turns, err = meter.Int64Counter("m2context_turns", api.WithDescription("finalized model turns")); err != nil {
		return nil, err
	}
	if m.incompleteTurns, err = meter.Int64Counter("m2context_incomplete_turns", api.WithDescription("turns with force-sealed tool calls")); err != nil {
		return nil, err
	}
	if m.toolCalls, err = meter.Int64Counter("m2context_tool_calls", api.WithDescription("parsed tool calls")); err != nil {
		return nil, err
	}
	if m.tokens, err = meter.Int64Counter("m2context_tokens", api.WithDescription("tokens counted by conversations")); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) TurnFinalized(msg sentence.Message) {
	ctx := context.Background()
	m.turns.Add(ctx, 1, api.WithAttributes(attribute.String("role", msg.Role().String())))
	if msg.Incomplete() {
		m.incompleteTurns.Add(ctx, 1)
	}
	for _, tc := range msg.ToolCalls() {
		m.toolCalls.Add(ctx, 1, api.WithAttributes(
			attribute.String("tool", tc.Name),
			attribute.Bool("incomplete", tc.Incomplete),
		))
	}
}

func (m *Metrics) TokensCounted(prompt, output int) {
	ctx := context.Background()
	if prompt > 0 {
		m.tokens.Add(ctx, int64(prompt), api.WithAttributes(attribute.String("kind", "prompt")))
	}
	if output > 0 {
		m.tokens.Add(ctx, int64(output), api.WithAttributes(attribute.String("kind", "output")))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Gather() ([]*dto.MetricFamily, error) {
	return m.registry.Gather()
}

func (m *Metrics) Shutdown(ctx context.Context) error {
	if err := m.provider.Shutdown(ctx); err != nil {
		xlog.Warn("Metrics shutdown failed", "error", err)
		return err
	}
	return nil
}
