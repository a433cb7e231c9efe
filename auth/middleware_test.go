package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"cdr.dev/slog/sloggers/slogtest"
	firebase "firebase.google.com/go/auth"
	"github.com/stretchr/testify/assert"
	"golang.org/x/xerrors"
)

type fakeVerifier map[string]string

func (f fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*firebase.Token, error) {
	uid, ok := f[idToken]
	if !ok {
		return nil, xerrors.New("token expired")
	}
	return &firebase.Token{UID: uid, Subject: uid}, nil
}

func serve(t *testing.T, authorization string) (*httptest.ResponseRecorder, string) {
	t.Helper()

	var seen string
	handler := Middleware(fakeVerifier{"good-token": "abcdefg"}, slogtest.Make(t, nil))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = UserID(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/streak", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, seen
}

func TestMiddleware(t *testing.T) {
	t.Run("ValidToken", func(t *testing.T) {
		rec, uid := serve(t, "Bearer good-token")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "abcdefg", uid)
	})

	t.Run("NoToken", func(t *testing.T) {
		rec, uid := serve(t, "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, uid)
	})

	t.Run("NotBearer", func(t *testing.T) {
		rec, uid := serve(t, "Basic dXNlcjpwYXNz")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, uid)
	})

	t.Run("InvalidToken", func(t *testing.T) {
		rec, uid := serve(t, "Bearer bad-token")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Invalid token\n", rec.Body.String())
		assert.Empty(t, uid)
	})
}

func TestUserID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, UserID(ctx))
	assert.Nil(t, ForContext(ctx))

	assert.Equal(t, "abcdefg", UserID(WithToken(ctx, &firebase.Token{Subject: "abcdefg"})))
	assert.Equal(t, "uid", UserID(WithToken(ctx, &firebase.Token{UID: "uid", Subject: "sub"})))
}

func TestInsecure(t *testing.T) {
	token, err := Insecure{}.VerifyIDToken(context.Background(), "abcdefg")
	assert.NoError(t, err)
	assert.Equal(t, "abcdefg", token.UID)
}
