package server

import (
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

const traceIDHeader = "X-Trace-ID"

// TraceIDMiddleware exposes the trace id of the active span as a
// response header so clients can reference it when reporting problems.
// Requests without a valid span context pass through untouched.
func TraceIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		span := trace.SpanFromContext(r.Context())
		if span != nil && span.SpanContext().IsValid() {
			w.Header().Set(traceIDHeader, span.SpanContext().TraceID().String())
		}
		next.ServeHTTP(w, r)
	})
}
