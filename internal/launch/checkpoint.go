// internal/launch/checkpoint.go
package launch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when no checkpoint exists for the requested run.
var ErrNotFound = errors.New("checkpoint not found")

// Checkpoint records the on-chain resources a run has created so far. A
// stage whose output field is empty has not completed; resume re-enters the
// pipeline at the first empty field. Addresses are stored base58-encoded.
type Checkpoint struct {
	RunID     string    `yaml:"run_id"`
	Network   string    `yaml:"network"`
	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`

	Inputs Inputs `yaml:"inputs"`

	Mint     string `yaml:"mint,omitempty"`
	MarketID string `yaml:"market_id,omitempty"`
	PoolID   string `yaml:"pool_id,omitempty"`

	SwapsDone bool `yaml:"swaps_done,omitempty"`
}

// NewCheckpoint starts a fresh run record.
func NewCheckpoint(network string, inputs Inputs) *Checkpoint {
	now := time.Now().UTC()
	return &Checkpoint{
		RunID:     uuid.New().String(),
		Network:   network,
		CreatedAt: now,
		UpdatedAt: now,
		Inputs:    inputs,
	}
}

// CheckpointStore persists run checkpoints as YAML files, one per run.
type CheckpointStore struct {
	dir string
}

func NewCheckpointStore(dir string) (*CheckpointStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint dir: %w", err)
	}
	return &CheckpointStore{dir: dir}, nil
}

func (s *CheckpointStore) path(runID string) string {
	return filepath.Join(s.dir, runID+".yaml")
}

// Save writes the checkpoint atomically so a crash mid-write never leaves a
// truncated file behind.
func (s *CheckpointStore) Save(cp *Checkpoint) error {
	cp.UpdatedAt = time.Now().UTC()

	data, err := yaml.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	tmp := s.path(cp.RunID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, s.path(cp.RunID)); err != nil {
		return fmt.Errorf("failed to commit checkpoint: %w", err)
	}
	return nil
}

// Load reads the checkpoint for the given run id.
func (s *CheckpointStore) Load(runID string) (*Checkpoint, error) {
	data, err := os.ReadFile(s.path(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := yaml.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint %s: %w", runID, err)
	}
	return &cp, nil
}

// Latest returns the most recently updated checkpoint, for `resume` without
// an explicit run id.
func (s *CheckpointStore) Latest() (*Checkpoint, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}

	var checkpoints []*Checkpoint
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		cp, err := s.Load(strings.TrimSuffix(name, ".yaml"))
		if err != nil {
			continue // skip unreadable files, they are not this run's problem
		}
		checkpoints = append(checkpoints, cp)
	}
	if len(checkpoints) == 0 {
		return nil, ErrNotFound
	}

	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].UpdatedAt.After(checkpoints[j].UpdatedAt)
	})
	return checkpoints[0], nil
}
