// Package api implements the gateway's inbound HTTP surface.
//
// New(token, routes, prober) returns an http.Handler that serves:
//
//	GET /health        — liveness, no credential required, always 200
//	    /api/files     — gated, collaborator handler
//	    /api/file      — gated, collaborator handler
//	    /api/chat      — gated, collaborator handler
//	    /api/terminal  — gated, collaborator handler
//	GET /api/diag      — gated; runs the diagnostic probe, always 200
//
// Every /api/* prefix is wrapped in the bearer-token gate before its
// handler is reached; /health bypasses the gate so orchestration systems
// can probe liveness without a credential. Prefixes are disjoint, so
// dispatch needs no precedence rules. The diagnostic response carries
// Cache-Control: no-store.
//
// JSON types are defined in types.go. No external HTTP framework is used.
package api
