// Package fleet supplies consistent fleet-state snapshots to the planner.
// A snapshot is a single, mutually consistent view of every trainset; the
// scheduler never reads per-field live state, so a plan can never be
// computed from a torn mix of old and new data.
package fleet

import (
	"context"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/kmrl-ops/induction-cli/internal/model"
)

// Provider returns the current fleet snapshot. Implementations must return
// a view that is internally consistent and safe for the caller to keep;
// subsequent feed updates must not show through.
type Provider interface {
	Snapshot(ctx context.Context) ([]model.Trainset, error)
}

// StaticProvider serves a fixed in-memory snapshot. Used for tests and for
// simulate requests that carry their own fleet state.
type StaticProvider struct {
	trainsets []model.Trainset
}

// NewStatic copies the given trainsets into a StaticProvider.
func NewStatic(trainsets []model.Trainset) *StaticProvider {
	owned := make([]model.Trainset, len(trainsets))
	copy(owned, trainsets)
	return &StaticProvider{trainsets: owned}
}

// Snapshot returns a fresh copy so callers can never mutate provider state.
func (p *StaticProvider) Snapshot(_ context.Context) ([]model.Trainset, error) {
	out := make([]model.Trainset, len(p.trainsets))
	copy(out, p.trainsets)
	return out, nil
}

// fleetFile is the on-disk YAML shape for a fleet snapshot.
type fleetFile struct {
	Trainsets []model.Trainset `yaml:"trainsets"`
}

// FileProvider loads the fleet snapshot from a YAML file on every call, so
// a re-run picks up feed updates while one run sees one consistent read.
type FileProvider struct {
	Path string
}

// NewFile creates a FileProvider for the given path.
func NewFile(path string) *FileProvider {
	return &FileProvider{Path: path}
}

// Snapshot reads, validates, and id-sorts the fleet file.
func (p *FileProvider) Snapshot(_ context.Context) ([]model.Trainset, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "fleet: read %s", p.Path)
	}

	var file fleetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrapf(err, "fleet: parse %s", p.Path)
	}
	if len(file.Trainsets) == 0 {
		return nil, eris.Errorf("fleet: %s contains no trainsets", p.Path)
	}

	for _, ts := range file.Trainsets {
		if err := ts.Validate(); err != nil {
			return nil, eris.Wrapf(err, "fleet: %s", p.Path)
		}
	}

	sort.Slice(file.Trainsets, func(i, j int) bool {
		return file.Trainsets[i].ID < file.Trainsets[j].ID
	})
	return file.Trainsets, nil
}
