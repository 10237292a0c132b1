package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/threatscope/internal/common"
	"github.com/dmitrijs2005/threatscope/internal/logging"
	"github.com/dmitrijs2005/threatscope/internal/server/services"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const identityKey ctxKey = "identity"

// Authenticator resolves a raw bearer token to the caller's identity.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (services.Identity, error)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. A missing header or a bare scheme yields "" with no error; any
// other shape is common.ErrTokenInvalid.
func bearerToken(r *http.Request) (string, error) {
	h := strings.TrimSpace(r.Header.Get(common.AuthorizationHeaderName))
	if h == "" {
		return "", nil
	}
	parts := strings.Fields(h)
	if !strings.EqualFold(parts[0], common.BearerScheme) {
		return "", common.ErrTokenInvalid
	}
	switch len(parts) {
	case 1:
		return "", nil
	case 2:
		return parts[1], nil
	}
	return "", common.ErrTokenInvalid
}

// authenticate runs the auth gate before every wrapped handler and stores
// the resolved identity in the request context.
func authenticate(a Authenticator, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				writeError(w, r, log, err)
				return
			}

			id, err := a.Authenticate(r.Context(), token)
			if err != nil {
				writeError(w, r, log, err)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RoleChecker enforces the admin role.
type RoleChecker interface {
	RequireAdmin(id services.Identity) error
}

// requireAdmin rejects non-admin callers before the request body is read,
// so they get 403 whatever else is wrong with the request. The services
// repeat the check.
func requireAdmin(rc RoleChecker, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := rc.RequireAdmin(identityFrom(r)); err != nil {
				writeError(w, r, log, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// identityFrom returns the identity stored by authenticate.
func identityFrom(r *http.Request) services.Identity {
	id, _ := r.Context().Value(identityKey).(services.Identity)
	return id
}

// accessLog writes one line per request and makes the chi request id
// available to every logger call downstream.
func accessLog(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logging.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
			r = r.WithContext(ctx)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.Info(ctx, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"remote", r.RemoteAddr,
			)
		})
	}
}
