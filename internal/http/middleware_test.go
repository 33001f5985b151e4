package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/office-reservations/internal/application"
	"github.com/example/office-reservations/internal/logging"
)

type fakePrincipalResolver struct {
	principals map[string]application.Principal
	passwords  map[string]string
	err        error
}

func (f fakePrincipalResolver) ResolvePrincipal(_ context.Context, userID string) (application.Principal, error) {
	if f.err != nil {
		return application.Principal{}, f.err
	}
	principal, ok := f.principals[userID]
	if !ok {
		return application.Principal{}, application.ErrInvalidCredentials
	}
	return principal, nil
}

func (f fakePrincipalResolver) VerifyCredentials(_ context.Context, email, password string) (application.User, error) {
	if f.passwords[email] != password {
		return application.User{}, application.ErrInvalidCredentials
	}
	principal := f.principals[email]
	return application.User{ID: principal.UserID, CompanyID: principal.CompanyID, Email: email, Role: principal.Role}, nil
}

func TestRequirePrincipal(t *testing.T) {
	t.Parallel()

	alice := application.Principal{UserID: "alice", CompanyID: "acme", Role: application.RoleUser}
	resolver := fakePrincipalResolver{
		principals: map[string]application.Principal{
			"alice":             alice,
			"alice@example.com": alice,
		},
		passwords: map[string]string{"alice@example.com": "correct horse"},
	}

	tests := []struct {
		name       string
		resolver   PrincipalResolver
		prepare    func(*http.Request)
		wantStatus int
	}{
		{
			name:       "missing credentials",
			resolver:   resolver,
			prepare:    func(*http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown user header",
			resolver:   resolver,
			prepare:    func(r *http.Request) { r.Header.Set(UserIDHeader, "mallory") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong password",
			resolver:   resolver,
			prepare:    func(r *http.Request) { r.SetBasicAuth("alice@example.com", "nope") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "resolver failure",
			resolver:   fakePrincipalResolver{err: errors.New("database unavailable")},
			prepare:    func(r *http.Request) { r.Header.Set(UserIDHeader, "alice") },
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "user header",
			resolver:   resolver,
			prepare:    func(r *http.Request) { r.Header.Set(UserIDHeader, "alice") },
			wantStatus: http.StatusOK,
		},
		{
			name:       "basic credentials",
			resolver:   resolver,
			prepare:    func(r *http.Request) { r.SetBasicAuth("alice@example.com", "correct horse") },
			wantStatus: http.StatusOK,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var captured application.Principal
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured, _ = PrincipalFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			tc.prepare(req)
			recorder := httptest.NewRecorder()

			RequirePrincipal(tc.resolver, slog.New(slog.NewTextHandler(io.Discard, nil)))(next).ServeHTTP(recorder, req)

			if recorder.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d (%s)", tc.wantStatus, recorder.Code, recorder.Body.String())
			}
			if tc.wantStatus == http.StatusOK && captured != alice {
				t.Fatalf("expected principal %+v, got %+v", alice, captured)
			}
		})
	}
}

func TestRequestLoggerAttachesLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if logging.FromContext(r.Context()) == nil {
			t.Error("expected request logger in context")
		}
		w.WriteHeader(http.StatusTeapot)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/rooms", nil))

	output := buf.String()
	if !strings.Contains(output, "request_id=1") || !strings.Contains(output, "status=418") {
		t.Fatalf("unexpected log output: %s", output)
	}
}

func TestDescribeServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{application.ErrDuplicatedTime, http.StatusConflict, codeDuplicatedTime},
		{application.ErrRoomNotFound, http.StatusNotFound, codeRoomNotFound},
		{application.ErrNotFound, http.StatusNotFound, codeNotFound},
		{application.ErrUnauthorized, http.StatusForbidden, codePermissionDenied},
		{application.ErrAlreadyExists, http.StatusConflict, codeAlreadyExists},
		{&application.ValidationError{FieldErrors: map[string]string{"start": "start is required"}}, http.StatusUnprocessableEntity, codeValidation},
		{errors.New("boom"), http.StatusInternalServerError, codeInternal},
	}

	for _, tc := range tests {
		status, body := describeServiceError(tc.err)
		if status != tc.wantStatus || body.ErrorCode != tc.wantCode {
			t.Fatalf("%v: expected %d/%s, got %d/%s", tc.err, tc.wantStatus, tc.wantCode, status, body.ErrorCode)
		}
	}
}
