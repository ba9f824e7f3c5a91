// Package devseed loads evidence fixtures from YAML for local development.
package devseed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/onco-dash/citewatch/internal/core"
	"github.com/onco-dash/citewatch/internal/domain/model"
)

//go:embed evidence.yaml
var defaultFixture []byte

// Fixture is the top-level YAML document.
type Fixture struct {
	Evidence []model.UpsertEvidenceRequest `yaml:"evidence"`
}

// Default returns the fixture shipped with the binary.
func Default() (*Fixture, error) {
	return Load(bytes.NewReader(defaultFixture))
}

// LoadFile reads a YAML fixture from path.
func LoadFile(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a fixture. Unknown keys are rejected so typos surface early.
func Load(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var fx Fixture
	if err := dec.Decode(&fx); err != nil {
		if errors.Is(err, io.EOF) {
			return &fx, nil
		}
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	seen := make(map[string]struct{}, len(fx.Evidence))
	for i := range fx.Evidence {
		rec := &fx.Evidence[i]
		rec.Normalize()
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("evidence[%d]: %w", i, err)
		}
		if _, dup := seen[rec.UniqueHash]; dup {
			return nil, fmt.Errorf("evidence[%d]: duplicate unique_hash %q", i, rec.UniqueHash)
		}
		seen[rec.UniqueHash] = struct{}{}
	}
	return &fx, nil
}

// Apply upserts every fixture record and returns how many were written.
func Apply(ctx context.Context, repo core.EvidenceRepository, fx *Fixture) (int, error) {
	if repo == nil {
		return 0, errors.New("evidence repository is required")
	}
	if fx == nil {
		return 0, nil
	}
	for i := range fx.Evidence {
		if _, err := repo.Upsert(ctx, &fx.Evidence[i]); err != nil {
			return i, fmt.Errorf("upsert %s: %w", fx.Evidence[i].UniqueHash, err)
		}
	}
	return len(fx.Evidence), nil
}
