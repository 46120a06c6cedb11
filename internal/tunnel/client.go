package tunnel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Options carries the caller-controlled parts of one forwarded call.
// The zero value means GET with no headers, no body, and no deadline.
type Options struct {
	// Method is the HTTP method; empty defaults to GET.
	Method string

	// Header holds caller-supplied request headers. Any Authorization
	// value in it is discarded — the client always injects its own.
	Header http.Header

	// Body is the request body, or nil.
	Body io.Reader

	// Timeout bounds the whole call. Zero means no deadline beyond
	// whatever the caller's context carries.
	Timeout time.Duration
}

// Result is a completed backend response. Any HTTP status, including
// 4xx/5xx, is a Result — only transport-level failures become errors.
type Result struct {
	Status int
	Header http.Header
	Body   []byte
}

// ForwardError is the single error shape Forward returns. Timeout and
// network failures are collapsed at this boundary; the cause is retained
// so callers that need the distinction can still make it.
type ForwardError struct {
	URL   string
	Cause error
}

func (e *ForwardError) Error() string {
	return fmt.Sprintf("tunnel: forward %s: %v", e.URL, e.Cause)
}

func (e *ForwardError) Unwrap() error { return e.Cause }

// Timeout reports whether the forward failed because its deadline expired.
func (e *ForwardError) Timeout() bool {
	if errors.Is(e.Cause, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(e.Cause, &nerr) && nerr.Timeout()
}

// Client forwards requests to the single configured backend, injecting the
// outbound bearer secret into every call. It holds no per-call state and is
// safe for concurrent use.
type Client struct {
	baseURL string
	secret  string
	client  *http.Client
}

// New creates a Client targeting baseURL (a bare origin, no trailing slash
// required). secret is sent verbatim as "Bearer <secret>"; empty means
// unauthenticated forwarding.
func New(baseURL, secret string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		client: &http.Client{
			Transport: &authRoundTripper{base: http.DefaultTransport, secret: secret},
		},
	}
}

// BaseURL returns the backend origin this client forwards to.
func (c *Client) BaseURL() string { return c.baseURL }

// SecretLength returns the character length of the outbound secret.
// Zero means unauthenticated forwarding. The secret itself is never exposed.
func (c *Client) SecretLength() int { return len(c.secret) }

// Forward issues one call against path (which may carry a query string)
// and returns the backend's response. opts.Timeout, when set, bounds the
// call; on expiry the in-flight request is aborted and a *ForwardError
// whose Timeout() is true is returned. DNS failures, refused connections
// and abrupt closes surface as the same *ForwardError shape.
func (c *Client) Forward(ctx context.Context, path string, opts Options) (*Result, error) {
	url := c.baseURL + path

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	body := opts.Body
	if body == nil {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, &ForwardError{URL: url, Cause: err}
	}
	for k, vs := range opts.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &ForwardError{URL: url, Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ForwardError{URL: url, Cause: err}
	}

	return &Result{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   data,
	}, nil
}

// authRoundTripper injects the outbound bearer secret into every request.
// Caller-supplied Authorization headers are dropped so exactly one
// credential ever reaches the backend.
type authRoundTripper struct {
	base   http.RoundTripper
	secret string
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Del("Authorization")
	if t.secret != "" {
		req.Header.Set("Authorization", "Bearer "+t.secret)
	}
	return t.base.RoundTrip(req)
}
