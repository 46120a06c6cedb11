package relay

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/relaygate/relaygate/internal/tunnel"
)

// hopByHop headers are connection-scoped and must not be forwarded.
// The inbound Authorization is also stripped: the tunnel injects the
// gateway's own credential on the outbound leg.
var skipHeaders = []string{
	"Authorization",
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Handler returns an http.Handler that relays every inbound request to the
// backend through client, bounded by timeout. The backend's status, headers
// and body come back verbatim; transport failures map to 504 (timeout) or
// 502 (anything else). Each relay gets an X-Request-Id, echoed on the
// response and attached to the outbound call.
func Handler(client *tunnel.Client, timeout time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		start := time.Now()

		hdr := r.Header.Clone()
		for _, k := range skipHeaders {
			hdr.Del(k)
		}
		hdr.Set("X-Request-Id", reqID)

		path := r.URL.Path
		if r.URL.RawQuery != "" {
			path += "?" + r.URL.RawQuery
		}

		res, err := client.Forward(r.Context(), path, tunnel.Options{
			Method:  r.Method,
			Header:  hdr,
			Body:    r.Body,
			Timeout: timeout,
		})

		w.Header().Set("X-Request-Id", reqID)
		if err != nil {
			status := http.StatusBadGateway
			var ferr *tunnel.ForwardError
			if errors.As(err, &ferr) && ferr.Timeout() {
				status = http.StatusGatewayTimeout
			}
			slog.Error("relay: backend unreachable",
				"request_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration", time.Since(start),
				"err", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]string{"error": "backend unreachable"}) //nolint:errcheck
			return
		}

		for k, vs := range res.Header {
			for _, v := range vs {
				w.Header().Add(k, v)
			}
		}
		w.WriteHeader(res.Status)
		w.Write(res.Body) //nolint:errcheck

		slog.Info("relay: forwarded",
			"request_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", res.Status,
			"duration", time.Since(start))
	})
}
