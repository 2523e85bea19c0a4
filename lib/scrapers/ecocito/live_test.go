package ecocito

import (
	"context"
	devenv "ecocito-bridge/dev/env"
	"ecocito-bridge/lib/telemetry"
	"ecocito-bridge/lib/timezone"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// runs against the real portal when dev/.state/ecocito_config.json exists
func TestLivePortal(t *testing.T) {
	config, err := devenv.GetPortalTestConfig()
	if err != nil {
		t.Skip("no portal test config:", err)
	}

	cleanup := telemetry.SetupForTesting(t, "test:scrapers/ecocito")
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	now := time.Now()
	err = WithSession(ctx, ClientOptions{
		Subdomain: config.Subdomain,
		Username:  config.Username,
		Password:  config.Password,
	}, func(ctx context.Context, client *Client) error {
		records, err := client.FetchAllRecords(ctx, timezone.MonthsBefore(now, 2), now, DefaultPageSize)
		if err != nil {
			return err
		}
		t.Log("records", records)
		return nil
	})
	require.NoError(t, err)
}
