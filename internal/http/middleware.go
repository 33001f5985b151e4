package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/office-reservations/internal/application"
	"github.com/example/office-reservations/internal/logging"
)

// UserIDHeader carries the caller's user ID when Basic credentials are absent.
const UserIDHeader = "X-User-ID"

// PrincipalResolver turns request credentials into an application principal.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, userID string) (application.Principal, error)
	VerifyCredentials(ctx context.Context, email, password string) (application.User, error)
}

// RequirePrincipal authenticates the request with HTTP Basic credentials or
// the X-User-ID header and stores the principal in the request context.
func RequirePrincipal(resolver PrincipalResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var (
				principal application.Principal
				err       error
			)
			if email, password, ok := r.BasicAuth(); ok {
				var user application.User
				if user, err = resolver.VerifyCredentials(ctx, email, password); err == nil {
					principal = user.Principal()
				}
			} else if userID := strings.TrimSpace(r.Header.Get(UserIDHeader)); userID != "" {
				principal, err = resolver.ResolvePrincipal(ctx, userID)
			} else {
				w.Header().Set("WWW-Authenticate", `Basic realm="reservations"`)
				responder.writeError(ctx, w, http.StatusUnauthorized, codeUnauthenticated, errMissingPrincipal)
				return
			}

			if err != nil {
				if errors.Is(err, application.ErrInvalidCredentials) {
					responder.writeError(ctx, w, http.StatusUnauthorized, codeUnauthenticated, errInvalidCredentials)
					return
				}
				responder.handleServiceError(ctx, w, err)
				return
			}

			if logger := logging.FromContext(ctx); logger != nil {
				ctx = logging.ContextWithLogger(ctx, logger.With("principal_id", principal.UserID, "company_id", principal.CompanyID))
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(ctx, principal)))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// RequestLogger attaches a request scoped logger and logs each request's outcome.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	base = defaultLogger(base)
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := logging.ContextWithLogger(r.Context(), logger)
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(recorder, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "status", recorder.status, "duration", time.Since(start))
		})
	}
}
