package io

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/slok/domaudit/internal/model"
)

// StagesYAMLRepository loads stage catalogs from YAML files.
type StagesYAMLRepository struct {
	fs fs.FS
}

// NewStagesYAMLRepository creates a new YAML stage catalog repository.
func NewStagesYAMLRepository(filesystem fs.FS) *StagesYAMLRepository {
	return &StagesYAMLRepository{fs: filesystem}
}

// GetStages loads a stage catalog from a YAML file and returns a validated domain model.
// A missing file returns model.ErrNotFound.
func (r *StagesYAMLRepository) GetStages(ctx context.Context, path string) (model.StageCatalog, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stages file %q: %w", path, model.ErrNotFound)
		}
		return nil, fmt.Errorf("reading stages file: %w", err)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var cfg StagesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	stages := cfg.toModel()
	if err := stages.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return stages, nil
}

// StagesConfig represents the YAML structure for a stage catalog.
type StagesConfig struct {
	Stages []StageConfig `yaml:"stages"`
}

// StageConfig represents the YAML structure for a single stage. Position is
// optional, when no stage sets it they are spread evenly.
type StageConfig struct {
	ID       string   `yaml:"id"`
	Label    string   `yaml:"label"`
	Position *float64 `yaml:"position,omitempty"`
}

func (c StagesConfig) validate() error {
	if len(c.Stages) == 0 {
		return fmt.Errorf("at least one stage is required")
	}

	withPos := 0
	for i, s := range c.Stages {
		if s.ID == "" {
			return fmt.Errorf("stage %d: id is required", i)
		}
		if s.Label == "" {
			return fmt.Errorf("stage %q: label is required", s.ID)
		}
		if s.Position != nil {
			withPos++
		}
	}
	if withPos != 0 && withPos != len(c.Stages) {
		return fmt.Errorf("position must be set on all stages or on none")
	}

	return nil
}

func (c StagesConfig) toModel() model.StageCatalog {
	stages := make(model.StageCatalog, 0, len(c.Stages))
	spread := true
	for i, s := range c.Stages {
		st := model.Stage{Index: i, ID: s.ID, Label: s.Label}
		if s.Position != nil {
			st.Position = *s.Position
			spread = false
		}
		stages = append(stages, st)
	}

	if spread {
		return model.Spread(stages)
	}
	return stages
}
