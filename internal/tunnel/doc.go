// Package tunnel implements the outbound leg of the gateway: a client that
// relays requests to the single configured backend.
//
// New(baseURL, secret) builds a Client whose transport injects
// "Authorization: Bearer <secret>" into every outgoing request, replacing
// any Authorization value the caller supplied. Forward(ctx, path, opts)
// issues one call with an optional per-call timeout; the timeout aborts the
// in-flight request via context deadline.
//
// Failure model: any completed HTTP response — including 4xx/5xx — is a
// Result. Transport failures (DNS, refused connection, abrupt close) and
// timeouts all surface as *ForwardError; callers treat both as "backend
// unreachable", but ForwardError.Timeout() keeps the distinction available.
//
// The client never retries and never logs the secret.
package tunnel
