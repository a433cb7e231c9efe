package auth

import (
	"context"
	"net/http"
	"strings"

	"cdr.dev/slog"
	"firebase.google.com/go/auth"
)

// A private key for context that only this package can access. This is important
// to prevent collisions between different context uses
var userCtxKey = &contextKey{"user"}

type contextKey struct {
	name string
}

// TokenVerifier checks a Firebase ID token. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Middleware verifies the bearer token, if any, and packs it into the request
// context. Requests without a token pass through anonymously.
func Middleware(verifier TokenVerifier, logger slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			t := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
			if len(t) == 2 && strings.EqualFold(t[0], "Bearer") {
				token, err := verifier.VerifyIDToken(ctx, t[1])
				if err != nil {
					logger.Debug(ctx, "reject id token", slog.Error(err))
					http.Error(w, "Invalid token", http.StatusForbidden)
					return
				}

				logger.Debug(ctx, "verified id token", slog.F("uid", token.UID))
				ctx = WithToken(ctx, token)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithToken returns a copy of ctx carrying token.
func WithToken(ctx context.Context, token *auth.Token) context.Context {
	return context.WithValue(ctx, userCtxKey, token)
}

// ForContext finds the user from the context. REQUIRES Middleware to have run.
func ForContext(ctx context.Context) *auth.Token {
	raw, _ := ctx.Value(userCtxKey).(*auth.Token)
	return raw
}

// UserID returns the signed-in user's ID, or "" for anonymous requests.
func UserID(ctx context.Context) string {
	token := ForContext(ctx)
	if token == nil {
		return ""
	}
	if token.UID != "" {
		return token.UID
	}
	return token.Subject
}

// Insecure accepts any token and uses it as the user ID. Local development
// only.
type Insecure struct{}

func (Insecure) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	return &auth.Token{UID: idToken, Subject: idToken}, nil
}
