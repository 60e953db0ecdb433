package typesenseutil

import (
	"context"
	"fmt"
	"time"

	"github.com/typesense/typesense-go/v4/typesense"
	"go.uber.org/zap"
)

// ConnectToTypesense returns a client after a health check against host.
func ConnectToTypesense(ctx context.Context, host, apiKey string, logger *zap.Logger) (*typesense.Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(host),
		typesense.WithAPIKey(apiKey),
	)

	if _, err := client.Health(ctx, 30*time.Second); err != nil {
		return nil, fmt.Errorf("typesense health: %w", err)
	}

	logger.Info("✅ Typesense connected", zap.String("host", host))
	return client, nil
}
