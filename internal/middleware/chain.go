package middleware

import (
	"net/http"
	"slices"
)

// Middleware wraps a handler with extra behavior.
type Middleware = func(http.Handler) http.Handler

// Chain wraps h so that a request passes through middlewares in the order
// given, the first one outermost:
//
//	Chain(mux, RequestID, AuthMiddleware(auth), RequestLogging)
//
// assigns the request id first, then authenticates, then logs.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	wrapped := h
	for _, mw := range slices.Backward(middlewares) {
		wrapped = mw(wrapped)
	}
	return wrapped
}
