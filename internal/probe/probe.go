package probe

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/relaygate/relaygate/internal/config"
	"github.com/relaygate/relaygate/internal/tunnel"
)

// Backend paths exercised by the probe. These mirror the protected surface
// the gateway itself exposes, so a passing probe means the forwarding path
// works end to end.
const (
	healthPath   = "/health"
	terminalPath = "/api/terminal"
)

// probeCommand is the synthetic command the terminal step runs. Its echo
// coming back proves the backend executed something, without side effects.
const probeCommand = `{"command":"echo relaygate-probe"}`

// Outcome is the result of one probe step: either a completed HTTP exchange
// (any status code counts) or an error string. Exactly one of the two is
// meaningful; Error != "" marks the failure case.
type Outcome struct {
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	BodyLength  int    `json:"body_length,omitempty"`
	BodyPreview string `json:"body_preview,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Report is one complete probe run. It describes the tunnel and what each
// step observed; it never contains the secret itself, only its presence and
// character length.
type Report struct {
	Timestamp     string          `json:"timestamp"` // RFC3339
	TunnelURL     string          `json:"tunnel_url"`
	SecretPresent bool            `json:"secret_present"`
	SecretLength  int             `json:"secret_length"`
	Health        Outcome         `json:"health"`
	Terminal      Outcome         `json:"terminal"`
	Metrics       *MetricsOutcome `json:"metrics,omitempty"`
}

// Prober exercises the tunnel client against the backend on demand.
type Prober struct {
	client *tunnel.Client
	cfg    config.ProbeConfig
}

// New creates a Prober that probes through client with the given settings.
func New(client *tunnel.Client, cfg config.ProbeConfig) *Prober {
	return &Prober{client: client, cfg: cfg}
}

// Run executes all probe steps and returns a complete report. Steps are
// independent: a failed step records its error and the next one still runs.
// Run never returns an error — everything it observes goes in the report.
func (p *Prober) Run(ctx context.Context) *Report {
	rep := &Report{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		TunnelURL:     p.client.BaseURL(),
		SecretPresent: p.client.SecretLength() > 0,
		SecretLength:  p.client.SecretLength(),
	}

	rep.Health = p.healthStep(ctx)
	rep.Terminal = p.terminalStep(ctx)
	if p.cfg.MetricsPath != "" {
		rep.Metrics = p.metricsStep(ctx)
	}

	return rep
}

// healthStep hits the backend health endpoint with the short timeout.
// A 4xx/5xx answer is still an observation, not a failure.
func (p *Prober) healthStep(ctx context.Context) Outcome {
	res, err := p.client.Forward(ctx, healthPath, tunnel.Options{
		Timeout: p.cfg.HealthTimeout,
	})
	if err != nil {
		return Outcome{Error: err.Error()}
	}
	return Outcome{
		Status:      res.Status,
		ContentType: res.Header.Get("Content-Type"),
		BodyLength:  len(res.Body),
		BodyPreview: truncate(string(res.Body), p.cfg.PreviewLimit),
	}
}

// terminalStep runs a synthetic echo through the backend terminal endpoint
// with the long timeout.
func (p *Prober) terminalStep(ctx context.Context) Outcome {
	hdr := http.Header{}
	hdr.Set("Content-Type", "application/json")

	res, err := p.client.Forward(ctx, terminalPath, tunnel.Options{
		Method:  http.MethodPost,
		Header:  hdr,
		Body:    strings.NewReader(probeCommand),
		Timeout: p.cfg.TerminalTimeout,
	})
	if err != nil {
		return Outcome{Error: err.Error()}
	}
	return Outcome{
		Status:      res.Status,
		ContentType: res.Header.Get("Content-Type"),
		BodyLength:  len(res.Body),
		BodyPreview: truncate(string(res.Body), p.cfg.PreviewLimit),
	}
}

// truncate bounds s to limit runes.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
