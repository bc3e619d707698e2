package config

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// SecretProvider abstracts the retrieval of secrets so deployments can choose
// between mounted secret files (container orchestrators) and plain environment
// variables (local development). The interface enables dependency injection
// for testing.
type SecretProvider interface {
	// GetSecretsBatch resolves multiple secret references at once. The refs
	// slice contains provider-specific identifiers (file paths for
	// FileProvider, variable names for EnvVarProvider). Returns a map of
	// ref -> plaintext value for all successfully resolved references;
	// unresolvable refs are omitted.
	GetSecretsBatch(ctx context.Context, refs []string) (map[string]string, error)
}

// EnvVarProvider implements SecretProvider by resolving secret values from OS
// environment variables. This is the primary provider for local development
// where secrets are set directly in the environment or via a .env file.
type EnvVarProvider struct{}

// NewEnvVarProvider creates a new EnvVarProvider.
func NewEnvVarProvider() *EnvVarProvider {
	return &EnvVarProvider{}
}

// GetSecretsBatch resolves each ref by looking it up as an OS environment
// variable. Only refs found in the environment are included in the returned
// map; missing refs are silently omitted.
func (p *EnvVarProvider) GetSecretsBatch(_ context.Context, refs []string) (map[string]string, error) {
	result := make(map[string]string, len(refs))
	for _, ref := range refs {
		if val, ok := os.LookupEnv(ref); ok {
			result[ref] = val
		}
	}
	return result, nil
}

// FileProvider implements SecretProvider by reading secret values from files,
// the convention used by container secret mounts (e.g. /run/secrets/<name>).
// Values are trimmed of trailing whitespace since mounted secrets commonly
// end with a newline.
type FileProvider struct{}

// NewFileProvider creates a new FileProvider.
func NewFileProvider() *FileProvider {
	return &FileProvider{}
}

// GetSecretsBatch reads each ref as a file path. A ref whose file does not
// exist is omitted from the result; any other read failure is returned as an
// error since it indicates a deployment problem rather than a missing secret.
func (p *FileProvider) GetSecretsBatch(_ context.Context, refs []string) (map[string]string, error) {
	result := make(map[string]string, len(refs))
	for _, ref := range refs {
		data, err := os.ReadFile(ref)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading secret file %s: %w", ref, err)
		}
		result[ref] = strings.TrimRight(string(data), "\r\n")
	}
	return result, nil
}
