package ecocito

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const logoutTimeout = time.Second * 30

// WithSession creates a client, logs in and runs fn. When login succeeded
// the session is always logged out afterwards, even if fn fails or ctx
// was cancelled, and a logout failure is joined with fn's error.
func WithSession(ctx context.Context, opts ClientOptions, fn func(ctx context.Context, client *Client) error) (err error) {
	client, err := NewClient(opts)
	if err != nil {
		return err
	}
	err = client.Login(ctx)
	if err != nil {
		return err
	}

	defer func() {
		logoutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logoutTimeout)
		defer cancel()

		logoutErr := client.Logout(logoutCtx)
		if logoutErr != nil {
			err = errors.Join(err, fmt.Errorf("logout: %w", logoutErr))
		}
	}()

	return fn(ctx, client)
}
