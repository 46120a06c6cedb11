// Package auth provides the bearer-token gate applied to all protected
// gateway routes.
//
// Middleware(token) wraps a handler and rejects any request whose
// "Authorization: Bearer <token>" header does not match the configured
// inbound token. Rejections are 401 with Cache-Control: no-store and the
// wrapped handler never runs. An empty configured token rejects every
// request — the gate fails closed rather than opening when unconfigured.
package auth
