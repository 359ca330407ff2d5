package ports

import (
	"context"
)

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value     string            // The secret value (e.g., provider API key)
	Version   string            // Secret version identifier
	Metadata  map[string]string // Additional secret metadata
	CreatedAt string            // When this version was created
}

// SecretManagerAdapter defines the port for retrieving secrets from a secret
// management service. The service only ever reads the provider API key, so
// the port is read-only; rotation happens out of band.
// Supported backends: local filesystem, AWS Secrets Manager, HashiCorp Vault.
type SecretManagerAdapter interface {
	// GetSecret retrieves a secret by its path/name
	// Path format depends on implementation:
	//   - local: a file path under the configured base directory
	//   - AWS: "billing-sync/provider/api-key" or a full ARN
	//   - Vault: "secret/data/billing-sync/provider"
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
