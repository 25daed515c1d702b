package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dgallion1/pdfoutline/internal/auth"
)

const (
	tokenCookie    = "token"
	redirectCookie = "auth_redirect"
)

// AuthMiddleware accepts either a Bearer token or the sealed token cookie.
// Rejected requests remember their URL so a later login can return there.
func AuthMiddleware(sealer *auth.Sealer, secure bool, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				if sealer.Verify(strings.TrimPrefix(h, "Bearer ")) {
					next.ServeHTTP(w, r)
					return
				}
				jsonError(w, "invalid token", http.StatusUnauthorized)
				return
			}

			if c, err := r.Cookie(tokenCookie); err == nil {
				if err := sealer.Open(c.Value); err == nil {
					next.ServeHTTP(w, r)
					return
				}
				log.Warn("rejected token cookie", "path", r.URL.Path)
			}

			http.SetCookie(w, &http.Cookie{
				Name:     redirectCookie,
				Value:    r.URL.RequestURI(),
				Path:     "/",
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
			jsonError(w, "missing authorization", http.StatusUnauthorized)
		})
	}
}

// RequestLogger logs incoming requests.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: 200}
			next.ServeHTTP(sw, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
