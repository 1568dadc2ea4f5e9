// Package api contains the HTTP handlers, request/response models, and
// error mapping for the handoff task queue REST surface. Handlers
// depend on the service layer only; persistence details never reach
// this package.
package api
