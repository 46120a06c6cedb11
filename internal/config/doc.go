// Package config loads the gateway configuration from the `gateway:` section
// of config.yaml.
//
// Config fields:
//   - HTTPPort           — port the gateway listens on (default 8080)
//   - BaseDir            — root directory handed to the file route collaborators
//   - Backend.URL        — backend origin all forwarded calls target
//   - Backend.SecretEnv  — environment variable holding the outbound bearer secret
//   - Auth.TokenEnv      — environment variable holding the inbound bearer token
//   - Relay.Timeout      — per-request forwarding timeout (default 30s)
//   - Probe.*            — diagnostic probe timeouts, preview limit, metrics path
//
// Secrets never live in the YAML file; the file names the environment
// variable and accessors resolve it. Load(path) applies defaults before
// unmarshalling, then validates. The inbound token must resolve non-empty:
// a gateway without an inbound token refuses to start rather than running
// with an open gate. The outbound secret may be empty, which degrades to
// unauthenticated forwarding.
//
// The returned Config is immutable for the process lifetime; there is no
// hot-reload, and no other package reads the environment directly.
package config
