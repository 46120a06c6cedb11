// Package probe implements the on-demand diagnostic probe: a black-box
// integration check of the forwarding path, run synchronously when an
// operator hits the diagnostic endpoint.
//
// Run executes up to three independent steps through the tunnel client:
//
//  1. health   — GET /health with the short timeout
//  2. terminal — POST /api/terminal with a synthetic echo command and the
//     long timeout
//  3. metrics  — optional; scrapes the backend's Prometheus exposition and
//     summarises it (family/sample counts, uptime if exposed)
//
// Every HTTP status, including 4xx/5xx, is an observation; only transport
// failures populate a step's error field. A failed step never stops the
// next one, and Run never returns an error — it always produces a complete
// Report. Body previews are bounded, and the report carries only the
// secret's presence and length, never its value.
package probe
