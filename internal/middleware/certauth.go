// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"net/http"
)

type ctxKey string

const operatorKey ctxKey = "operator"

// HealthPath is served without a client certificate so probes can reach it.
const HealthPath = "/api/health"

// CertAuth is a middleware that enforces mutual TLS authentication.
//
// Every request except HealthPath must present a client certificate. The
// certificate's Common Name identifies the operator managing accounts and is
// stored in the request context.
func CertAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == HealthPath {
			next.ServeHTTP(w, r)
			return
		}
		operator := peerCommonName(r)
		if operator == "" {
			http.Error(w, "no client certificate provided", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), operatorKey, operator)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetOperatorFromContext returns the operator set by CertAuth, or "" if none.
func GetOperatorFromContext(ctx context.Context) string {
	val := ctx.Value(operatorKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

func peerCommonName(r *http.Request) string {
	if r.TLS == nil || len(r.TLS.PeerCertificates) == 0 {
		return ""
	}
	return r.TLS.PeerCertificates[0].Subject.CommonName
}
