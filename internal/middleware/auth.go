package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cvforge/cvforge-api/internal/model"
	"github.com/cvforge/cvforge-api/internal/service"
)

type contextKey string

const userKey contextKey = "user"

// Authenticator resolves a bearer token to the user it was issued to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// AuthFailureRecorder counts rejected requests.
type AuthFailureRecorder interface {
	RecordAuthFailure()
}

// Authenticate returns middleware that requires a valid Bearer token and puts
// the verified user in the request context. Every rejection gets the same
// response. failures may be nil.
func Authenticate(authn Authenticator, failures AuthFailureRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reject := func() {
				if failures != nil {
					failures.RecordAuthFailure()
				}
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			}

			scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
			token = strings.TrimSpace(token)
			if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
				reject()
				return
			}

			user, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, service.ErrUnauthenticated) {
					reject()
					return
				}
				slog.Error("authenticate request", "error", err)
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			setLogUser(r.Context(), user.ID)
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext extracts the authenticated user from the request context.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
