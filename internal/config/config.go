package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultHTTPPort        = 8080
	DefaultRelayTimeout    = 30 * time.Second
	DefaultHealthTimeout   = 5 * time.Second
	DefaultTerminalTimeout = 20 * time.Second
	DefaultPreviewLimit    = 500
)

// Config is the top-level configuration parsed from the `gateway:` section
// of config.yaml.
type Config struct {
	Gateway GatewayConfig `yaml:"gateway"`
}

// GatewayConfig holds all gateway settings.
type GatewayConfig struct {
	// HTTPPort is the port the gateway listens on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// BaseDir is the root directory for file operations. The gateway does
	// not interpret it; it is handed to the file route collaborators.
	BaseDir string `yaml:"base_dir"`

	// Backend describes the single tunnel target all forwarded calls go to.
	Backend BackendConfig `yaml:"backend"`

	// Auth configures the inbound bearer-token gate on /api/* routes.
	Auth AuthConfig `yaml:"auth"`

	// Relay controls inbound request forwarding.
	Relay RelayConfig `yaml:"relay"`

	// Probe controls the on-demand diagnostic probe.
	Probe ProbeConfig `yaml:"probe"`
}

// BackendConfig describes the backend the tunnel client forwards to.
type BackendConfig struct {
	// URL is the backend origin, e.g. "http://127.0.0.1:5299".
	// It must be an absolute http(s) URL with no path, query or fragment.
	URL string `yaml:"url"`

	// SecretEnv is the name of the environment variable that holds the
	// outbound bearer secret. An unset or empty variable degrades to
	// unauthenticated forwarding; main logs a warning in that case.
	SecretEnv string `yaml:"secret_env"`
}

// Secret returns the outbound bearer secret resolved from the environment.
func (b BackendConfig) Secret() string {
	if b.SecretEnv == "" {
		return ""
	}
	return os.Getenv(b.SecretEnv)
}

// AuthConfig controls inbound client authentication.
type AuthConfig struct {
	// TokenEnv is the name of the environment variable that holds the
	// expected inbound bearer token. The variable must resolve non-empty:
	// a missing inbound token is a startup error, never an open gate.
	TokenEnv string `yaml:"token_env"`
}

// Token returns the expected inbound bearer token resolved from the environment.
func (a AuthConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// RelayConfig controls inbound request forwarding.
type RelayConfig struct {
	// Timeout bounds each forwarded call (default 30s).
	Timeout time.Duration `yaml:"timeout"`
}

// ProbeConfig controls the diagnostic probe.
type ProbeConfig struct {
	// HealthTimeout bounds the health probe step (default 5s).
	HealthTimeout time.Duration `yaml:"health_timeout"`

	// TerminalTimeout bounds the terminal probe step (default 20s).
	TerminalTimeout time.Duration `yaml:"terminal_timeout"`

	// PreviewLimit caps the number of characters of response body kept in
	// the report (default 500).
	PreviewLimit int `yaml:"preview_limit"`

	// MetricsPath, when set (e.g. "/metrics"), enables a third probe step
	// that scrapes the backend's Prometheus exposition through the tunnel.
	MetricsPath string `yaml:"metrics_path"`
}

// Load reads and parses the config file at path. Missing fields are filled
// with defaults before validation. Validation resolves the inbound token
// from the environment, so required variables must be set before Load.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gateway config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("gateway config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("gateway config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Gateway: GatewayConfig{
			HTTPPort: DefaultHTTPPort,
			Relay: RelayConfig{
				Timeout: DefaultRelayTimeout,
			},
			Probe: ProbeConfig{
				HealthTimeout:   DefaultHealthTimeout,
				TerminalTimeout: DefaultTerminalTimeout,
				PreviewLimit:    DefaultPreviewLimit,
			},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	gw := cfg.Gateway

	if gw.HTTPPort <= 0 || gw.HTTPPort > 65535 {
		return fmt.Errorf("gateway.http_port %d is out of range [1, 65535]", gw.HTTPPort)
	}

	if gw.Backend.URL == "" {
		return fmt.Errorf("gateway.backend.url is required")
	}
	u, err := url.Parse(gw.Backend.URL)
	if err != nil {
		return fmt.Errorf("gateway.backend.url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("gateway.backend.url %q: scheme must be http or https", gw.Backend.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("gateway.backend.url %q: missing host", gw.Backend.URL)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("gateway.backend.url %q: must be a bare origin without path or query", gw.Backend.URL)
	}

	if gw.Auth.TokenEnv == "" {
		return fmt.Errorf("gateway.auth.token_env is required")
	}
	if gw.Auth.Token() == "" {
		return fmt.Errorf("gateway.auth.token_env %q resolves to an empty token", gw.Auth.TokenEnv)
	}

	if gw.Relay.Timeout <= 0 {
		return fmt.Errorf("gateway.relay.timeout must be positive")
	}
	if gw.Probe.HealthTimeout <= 0 || gw.Probe.TerminalTimeout <= 0 {
		return fmt.Errorf("gateway.probe timeouts must be positive")
	}
	if gw.Probe.PreviewLimit <= 0 {
		return fmt.Errorf("gateway.probe.preview_limit must be positive")
	}

	return nil
}
