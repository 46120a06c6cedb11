package probe_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/relaygate/relaygate/internal/config"
	"github.com/relaygate/relaygate/internal/probe"
	"github.com/relaygate/relaygate/internal/tunnel"
)

func probeConfig() config.ProbeConfig {
	return config.ProbeConfig{
		HealthTimeout:   2 * time.Second,
		TerminalTimeout: 5 * time.Second,
		PreviewLimit:    500,
	}
}

// fakeBackend serves /health and /api/terminal the way the real backend does.
func fakeBackend(t *testing.T, terminalBody string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})
	mux.HandleFunc("/api/terminal", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(b), "echo") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(terminalBody)) //nolint:errcheck
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRun_HappyPath(t *testing.T) {
	srv := fakeBackend(t, "relaygate-probe\n")
	p := probe.New(tunnel.New(srv.URL, "s3cret"), probeConfig())

	rep := p.Run(context.Background())

	if rep.Timestamp == "" {
		t.Error("report missing timestamp")
	}
	if rep.TunnelURL != srv.URL {
		t.Errorf("tunnel_url: got %q, want %q", rep.TunnelURL, srv.URL)
	}
	if !rep.SecretPresent || rep.SecretLength != len("s3cret") {
		t.Errorf("secret presence/length: got %v/%d", rep.SecretPresent, rep.SecretLength)
	}
	if rep.Health.Error != "" {
		t.Fatalf("health step error: %s", rep.Health.Error)
	}
	if rep.Health.Status != http.StatusOK {
		t.Errorf("health status: got %d, want 200", rep.Health.Status)
	}
	if rep.Health.BodyPreview != `{"status":"ok"}` {
		t.Errorf("health body: got %q", rep.Health.BodyPreview)
	}
	if rep.Terminal.Error != "" {
		t.Fatalf("terminal step error: %s", rep.Terminal.Error)
	}
	if rep.Terminal.ContentType != "text/plain" {
		t.Errorf("terminal content-type: got %q", rep.Terminal.ContentType)
	}
	if rep.Terminal.BodyLength != len("relaygate-probe\n") {
		t.Errorf("terminal body_length: got %d", rep.Terminal.BodyLength)
	}
	if rep.Metrics != nil {
		t.Error("metrics step ran without metrics_path configured")
	}
}

func TestRun_ErrorStatusIsAnObservation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom")) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)

	rep := probe.New(tunnel.New(srv.URL, "s"), probeConfig()).Run(context.Background())

	if rep.Health.Error != "" {
		t.Errorf("health: a 500 must not be an error, got %q", rep.Health.Error)
	}
	if rep.Health.Status != http.StatusInternalServerError {
		t.Errorf("health status: got %d, want 500", rep.Health.Status)
	}
	if rep.Health.BodyPreview != "boom" {
		t.Errorf("health body: got %q", rep.Health.BodyPreview)
	}
}

func TestRun_UnreachableBackend_CompleteReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	cfg := probeConfig()
	cfg.MetricsPath = "/metrics"
	rep := probe.New(tunnel.New(addr, "s"), cfg).Run(context.Background())

	if rep.Health.Error == "" {
		t.Error("health step: want an error for an unreachable backend")
	}
	if rep.Terminal.Error == "" {
		t.Error("terminal step: want an error for an unreachable backend")
	}
	if rep.Metrics == nil || rep.Metrics.Error == "" {
		t.Error("metrics step: want an error for an unreachable backend")
	}
	if rep.Timestamp == "" || rep.TunnelURL == "" {
		t.Error("report incomplete despite step failures")
	}
}

func TestRun_BodyPreviewBounded(t *testing.T) {
	long := strings.Repeat("x", 10_000)
	srv := fakeBackend(t, long)

	cfg := probeConfig()
	cfg.PreviewLimit = 500
	rep := probe.New(tunnel.New(srv.URL, "s"), cfg).Run(context.Background())

	if rep.Terminal.Error != "" {
		t.Fatalf("terminal step error: %s", rep.Terminal.Error)
	}
	if got := len(rep.Terminal.BodyPreview); got > 500 {
		t.Errorf("body_preview length: got %d, want <= 500", got)
	}
	if rep.Terminal.BodyLength != len(long) {
		t.Errorf("body_length: got %d, want %d (true length)", rep.Terminal.BodyLength, len(long))
	}
}

func TestRun_SecretNeverInReport(t *testing.T) {
	const secret = "hunter2-very-secret"
	srv := fakeBackend(t, "relaygate-probe\n")

	rep := probe.New(tunnel.New(srv.URL, secret), probeConfig()).Run(context.Background())

	data, err := json.Marshal(rep)
	if err != nil {
		t.Fatalf("marshal report: %v", err)
	}
	if strings.Contains(string(data), secret) {
		t.Errorf("report leaks the secret: %s", data)
	}
	if rep.SecretLength != len(secret) {
		t.Errorf("secret_length: got %d, want %d", rep.SecretLength, len(secret))
	}
}

func TestRun_MetricsStep(t *testing.T) {
	exposition := `# HELP process_uptime_seconds Uptime.
# TYPE process_uptime_seconds gauge
process_uptime_seconds 123.5
# HELP requests_total Total requests.
# TYPE requests_total counter
requests_total{route="/files"} 10
requests_total{route="/chat"} 5
`
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/api/terminal", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.Write([]byte(exposition)) //nolint:errcheck
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := probeConfig()
	cfg.MetricsPath = "/metrics"
	rep := probe.New(tunnel.New(srv.URL, "s"), cfg).Run(context.Background())

	m := rep.Metrics
	if m == nil {
		t.Fatal("metrics outcome missing")
	}
	if m.Error != "" {
		t.Fatalf("metrics step error: %s", m.Error)
	}
	if m.FamilyCount != 2 {
		t.Errorf("family_count: got %d, want 2", m.FamilyCount)
	}
	if m.SampleCount != 3 {
		t.Errorf("sample_count: got %d, want 3", m.SampleCount)
	}
	if m.UptimeSeconds != 123.5 {
		t.Errorf("uptime_seconds: got %v, want 123.5", m.UptimeSeconds)
	}
}

func TestRun_MetricsStep_GarbageBodyDoesNotAffectOtherSteps(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok")) //nolint:errcheck
	})
	mux.HandleFunc("/api/terminal", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("relaygate-probe")) //nolint:errcheck
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{ this is not an exposition")) //nolint:errcheck
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := probeConfig()
	cfg.MetricsPath = "/metrics"
	rep := probe.New(tunnel.New(srv.URL, "s"), cfg).Run(context.Background())

	if rep.Metrics == nil || rep.Metrics.Error == "" {
		t.Error("metrics step: want a parse error for a garbage body")
	}
	if rep.Health.Error != "" || rep.Terminal.Error != "" {
		t.Error("health/terminal steps must be unaffected by a metrics parse failure")
	}
}
