package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/vncsmyrnk/evaluation/internal/core/authz"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
)

type contextKey string

const principalKey contextKey = "principal"

func principalFrom(ctx context.Context) domain.Principal {
	p, ok := ctx.Value(principalKey).(domain.Principal)
	if !ok {
		return domain.Anonymous()
	}
	return p
}

// credential reads the bearer token from the Authorization header and
// falls back to the access_token cookie.
func credential(r *http.Request) string {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		return h
	}
	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}

// authenticate resolves the caller on every request. Requests without a
// credential continue as anonymous.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := h.svc.Auth.Principal(r.Context(), credential(r))
		if err != nil {
			writeMessage(w, r, http.StatusUnauthorized, "Invalid or expired token.")
			return
		}
		ctx := context.WithValue(r.Context(), principalKey, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// guard applies the static rule of op before the handler runs.
func (h *Handler) guard(op authz.Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := principalFrom(r.Context())
			if err := h.svc.Authz.Decide(p, op).Err(); err != nil {
				h.writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
