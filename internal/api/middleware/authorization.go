package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	internaljwt "docvia-widget/internal/jwt"
)

type sessionContextKey struct{}

// SessionParser verifies a bearer token and returns the session it carries.
type SessionParser interface {
	ParseSession(token string) (internaljwt.Session, error)
}

// RejectionObserver is told why a request was refused.
type RejectionObserver interface {
	SessionRejected(reason string)
}

const (
	RejectMissingToken = "missing_token"
	RejectInvalidToken = "invalid_token"
)

// ValidateSessionJWT rejects requests without a valid widget session token
// and stores the parsed session in the request context. observer may be nil.
func ValidateSessionJWT(parser SessionParser, observer RejectionObserver) Middleware {
	reject := func(w http.ResponseWriter, reason, message string) {
		if observer != nil {
			observer.SessionRejected(reason)
		}
		unauthorized(w, message)
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				reject(w, RejectMissingToken, "Unauthorized")
				return
			}

			session, err := parser.ParseSession(tokenString)
			if err != nil {
				reject(w, RejectInvalidToken, "Invalid or expired token")
				return
			}

			next(w, r.WithContext(context.WithValue(r.Context(), sessionContextKey{}, session)))
		}
	}
}

func SessionFromContext(ctx context.Context) (internaljwt.Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(internaljwt.Session)
	return session, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
