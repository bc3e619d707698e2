package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"gritcast/internal/features"
	"gritcast/internal/forest"
	"gritcast/internal/types"
)

// Artifact suffixes. Each bundle artifact is a gzipped JSON document at
// prefix + suffix.
const (
	artifactDecision    = "_decision_model.json.gz"
	artifactAmount      = "_amount_model.json.gz"
	artifactEncoders    = "_encoders.json.gz"
	artifactFeatureCols = "_feature_cols.json.gz"
	artifactRouteLookup = "_route_lookup.json.gz"
)

var artifactSuffixes = []string{
	artifactDecision,
	artifactAmount,
	artifactEncoders,
	artifactFeatureCols,
	artifactRouteLookup,
}

// Store persists and loads model bundles under a shared path prefix, e.g.
// prefix "models/gritting" yields models/gritting_decision_model.json.gz and
// four siblings. The five artifacts are always written and read together;
// a bundle with any artifact missing is treated as absent.
type Store struct {
	prefix string
}

// NewStore returns a Store rooted at the given path prefix.
func NewStore(prefix string) *Store {
	return &Store{prefix: prefix}
}

// Prefix returns the configured path prefix.
func (s *Store) Prefix() string {
	return s.prefix
}

// Save writes all five bundle artifacts, creating any missing directories.
func (s *Store) Save(b *Bundle) error {
	if dir := filepath.Dir(s.prefix); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating bundle directory: %w", err)
		}
	}

	writes := []struct {
		suffix string
		value  any
	}{
		{artifactDecision, b.Decision},
		{artifactAmount, b.Amount},
		{artifactEncoders, b.Encoders},
		{artifactFeatureCols, b.FeatureCols},
		{artifactRouteLookup, b.Routes},
	}
	for _, w := range writes {
		if err := s.writeArtifact(s.prefix+w.suffix, w.value); err != nil {
			return err
		}
	}
	return nil
}

// Exists reports whether a complete bundle is present at the prefix.
func (s *Store) Exists() bool {
	return len(s.missingArtifacts()) == 0
}

// Load reads the bundle. It fails with a models-not-found error if any of the
// five artifacts is absent, and verifies the persisted feature column list
// against this build's compiled feature order before returning.
func (s *Store) Load() (*Bundle, error) {
	if missing := s.missingArtifacts(); len(missing) > 0 {
		return nil, types.ErrModelsNotFound(nil).WithDetails(map[string]any{
			"missing_artifacts": missing,
		})
	}

	var b Bundle
	b.Decision = &forest.Forest{}
	b.Amount = &forest.Forest{}

	reads := []struct {
		suffix string
		dst    any
	}{
		{artifactDecision, b.Decision},
		{artifactAmount, b.Amount},
		{artifactEncoders, &b.Encoders},
		{artifactFeatureCols, &b.FeatureCols},
		{artifactRouteLookup, &b.Routes},
	}
	for _, r := range reads {
		if err := s.readArtifact(s.prefix+r.suffix, r.dst); err != nil {
			return nil, err
		}
	}

	if b.Encoders.Precip == nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalModelSkew,
			"bundle encoders artifact has no precipitation encoder",
			nil,
		)
	}

	if err := features.VerifyColumns(b.FeatureCols); err != nil {
		return nil, err
	}

	return &b, nil
}

// missingArtifacts returns the suffixes of artifacts absent from disk.
func (s *Store) missingArtifacts() []string {
	var missing []string
	for _, suffix := range artifactSuffixes {
		if _, err := os.Stat(s.prefix + suffix); err != nil {
			missing = append(missing, suffix)
		}
	}
	return missing
}

func (s *Store) writeArtifact(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating artifact %s: %w", filepath.Base(path), err)
	}

	zw := gzip.NewWriter(f)
	if err := json.NewEncoder(zw).Encode(v); err != nil {
		zw.Close()
		f.Close()
		return fmt.Errorf("encoding artifact %s: %w", filepath.Base(path), err)
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("flushing artifact %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func (s *Store) readArtifact(path string, dst any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening artifact %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("decompressing artifact %s: %w", filepath.Base(path), err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return fmt.Errorf("reading artifact %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decoding artifact %s: %w", filepath.Base(path), err)
	}
	return nil
}
