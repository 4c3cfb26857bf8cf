package middleware

import "net/http"

// Chain applies middleware so that the first argument executes first.
//
// Example:
//
//	handler := Chain(mux,
//	    CORS(origins),     // Executes first
//	    RequestLogging,    // Executes second
//	)
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	// Apply in reverse so execution follows the declared order
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
