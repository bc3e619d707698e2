package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvVarProviderResolvesFromEnvironment(t *testing.T) {
	t.Setenv("GRITCAST_TEST_SECRET", "value-one")

	p := NewEnvVarProvider()
	got, err := p.GetSecretsBatch(context.Background(), []string{"GRITCAST_TEST_SECRET", "GRITCAST_TEST_MISSING"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"GRITCAST_TEST_SECRET": "value-one"}, got)
}

func TestFileProviderReadsAndTrims(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "owm_key")
	require.NoError(t, os.WriteFile(path, []byte("file-secret\n"), 0o600))

	p := NewFileProvider()
	got, err := p.GetSecretsBatch(context.Background(), []string{path})
	require.NoError(t, err)

	assert.Equal(t, "file-secret", got[path])
}

func TestFileProviderOmitsMissingFiles(t *testing.T) {
	p := NewFileProvider()
	got, err := p.GetSecretsBatch(context.Background(), []string{filepath.Join(t.TempDir(), "absent")})
	require.NoError(t, err)
	assert.Empty(t, got)
}
