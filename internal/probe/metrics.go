package probe

import (
	"bytes"
	"context"
	"fmt"
	"io"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/relaygate/relaygate/internal/tunnel"
)

// MetricsOutcome summarises the backend's Prometheus exposition as seen
// through the tunnel. Enabled only when probe.metrics_path is configured.
type MetricsOutcome struct {
	Status        int     `json:"status,omitempty"`
	FamilyCount   int     `json:"family_count,omitempty"`
	SampleCount   int     `json:"sample_count,omitempty"`
	UptimeSeconds float64 `json:"uptime_seconds,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// metricsStep scrapes the backend's metrics endpoint through the tunnel and
// summarises the exposition. Uses the health timeout — a metrics scrape
// should be as cheap as a health check.
func (p *Prober) metricsStep(ctx context.Context) *MetricsOutcome {
	res, err := p.client.Forward(ctx, p.cfg.MetricsPath, tunnel.Options{
		Timeout: p.cfg.HealthTimeout,
	})
	if err != nil {
		return &MetricsOutcome{Error: err.Error()}
	}
	if res.Status != 200 {
		return &MetricsOutcome{
			Status: res.Status,
			Error:  fmt.Sprintf("unexpected status %d", res.Status),
		}
	}

	mfs, err := parseMetrics(bytes.NewReader(res.Body))
	if err != nil {
		return &MetricsOutcome{Status: res.Status, Error: err.Error()}
	}

	out := &MetricsOutcome{Status: res.Status, FamilyCount: len(mfs)}
	for _, mf := range mfs {
		out.SampleCount += len(mf.GetMetric())
	}
	if mf, ok := mfs["process_uptime_seconds"]; ok {
		out.UptimeSeconds = sumFamily(mf)
	}
	return out
}

// parseMetrics decodes a Prometheus text exposition from r into metric
// families. A partial result with a non-fatal parse warning is still
// returned successfully.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	return mfs, nil
}

// sumFamily adds up all counter, gauge, or untyped values in a MetricFamily.
func sumFamily(mf *dto.MetricFamily) float64 {
	if mf == nil {
		return 0
	}
	var total float64
	for _, m := range mf.GetMetric() {
		switch {
		case m.Counter != nil:
			total += m.Counter.GetValue()
		case m.Gauge != nil:
			total += m.Gauge.GetValue()
		case m.Untyped != nil:
			total += m.Untyped.GetValue()
		}
	}
	return total
}
