package streak

import "context"

// IdentitySource reports who is signed in. An empty string means nobody.
type IdentitySource interface {
	Current() string
	// Subscribe returns a channel that receives the new identity after
	// every change, and a function that ends the subscription.
	Subscribe() (<-chan string, func())
}

// Follow initializes the engine for the current identity and again after
// every change, until ctx is done or the subscription is closed.
func (e *Engine) Follow(ctx context.Context, src IdentitySource) error {
	changes, unsubscribe := src.Subscribe()
	defer unsubscribe()

	e.Initialize(ctx, src.Current())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case userID, ok := <-changes:
			if !ok {
				return nil
			}
			e.Initialize(ctx, userID)
		}
	}
}
