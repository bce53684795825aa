package http

import (
	"net/http"

	"github.com/go-credential-api/internal/application/credential"
	"github.com/go-credential-api/internal/transport/http/middleware"
)

// Deps holds everything the router needs.
type Deps struct {
	Credentials credential.Service
	Verifier    middleware.Verifier

	// Limiter throttles the public auth routes. Nil disables throttling.
	Limiter func(http.Handler) http.Handler

	// Metrics serves /metrics. Nil leaves the route unmounted.
	Metrics http.Handler
}
