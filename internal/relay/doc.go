// Package relay turns an inbound protected request into one tunnel.Forward
// call: same method, same path and query, body passed through, hop-by-hop
// and inbound Authorization headers stripped. Backend responses come back
// verbatim; a failed forward becomes 504 when the tunnel timed out and 502
// otherwise. Every relay carries an X-Request-Id on both legs and is logged
// with slog.
package relay
