package auth

import (
	"context"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/auth"
	"golang.org/x/xerrors"
	"google.golang.org/api/option"
)

// NewClient creates a Firebase auth client. An empty credentialsFile falls
// back to application default credentials.
func NewClient(ctx context.Context, credentialsFile string) (*auth.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, xerrors.Errorf("initialize firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, xerrors.Errorf("initialize firebase auth: %w", err)
	}
	return client, nil
}

// UserGetter looks up Firebase users. *auth.Client satisfies it.
type UserGetter interface {
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
}

// EmailLookup resolves a user's email address from their Firebase record.
func EmailLookup(users UserGetter) func(ctx context.Context, userID string) (string, error) {
	return func(ctx context.Context, userID string) (string, error) {
		user, err := users.GetUser(ctx, userID)
		if err != nil {
			return "", xerrors.Errorf("get firebase user %q: %w", userID, err)
		}
		if user.UserInfo == nil {
			return "", nil
		}
		return user.Email, nil
	}
}
