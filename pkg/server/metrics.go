package server

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/xaionaro-go/voicedenoise/pkg/server"

// Metrics holds the instruments of the server. A nil *Metrics records nothing.
type Metrics struct {
	SessionsActive metric.Int64UpDownCounter
}

func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	sessionsActive, err := mp.Meter(meterName).Int64UpDownCounter("voicedenoise.sessions.active",
		metric.WithDescription("Currently connected denoising sessions."),
	)
	if err != nil {
		return nil, err
	}
	return &Metrics{SessionsActive: sessionsActive}, nil
}

func (m *Metrics) addSessions(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.SessionsActive.Add(ctx, delta)
}
