package io

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/domaudit/internal/model"
)

func TestStagesYAMLRepository_GetStages(t *testing.T) {
	tests := map[string]struct {
		fs        fstest.MapFS
		path      string
		expStages model.StageCatalog
		expErr    bool
		errMsg    string
		errIs     error
	}{
		"Stages with positions should load successfully": {
			fs: fstest.MapFS{
				"stages.yaml": &fstest.MapFile{
					Data: []byte(`stages:
  - id: dns
    label: Resolving DNS...
    position: 10
  - id: tls
    label: Checking TLS...
    position: 80
`),
				},
			},
			path: "stages.yaml",
			expStages: model.StageCatalog{
				{Index: 0, ID: "dns", Label: "Resolving DNS...", Position: 10},
				{Index: 1, ID: "tls", Label: "Checking TLS...", Position: 80},
			},
		},
		"Stages without positions should be spread evenly": {
			fs: fstest.MapFS{
				"stages.yaml": &fstest.MapFile{
					Data: []byte(`stages:
  - id: a
    label: A
  - id: b
    label: B
  - id: c
    label: C
`),
				},
			},
			path: "stages.yaml",
			expStages: model.StageCatalog{
				{Index: 0, ID: "a", Label: "A", Position: 5},
				{Index: 1, ID: "b", Label: "B", Position: 50},
				{Index: 2, ID: "c", Label: "C", Position: 95},
			},
		},
		"Missing file should return not found": {
			fs:     fstest.MapFS{},
			path:   "stages.yaml",
			expErr: true,
			errIs:  model.ErrNotFound,
		},
		"Invalid YAML should fail": {
			fs: fstest.MapFS{
				"stages.yaml": &fstest.MapFile{Data: []byte("stages: [")},
			},
			path:   "stages.yaml",
			expErr: true,
			errMsg: "parsing YAML",
		},
		"Empty catalog should fail": {
			fs: fstest.MapFS{
				"stages.yaml": &fstest.MapFile{Data: []byte("stages: []\n")},
			},
			path:   "stages.yaml",
			expErr: true,
			errMsg: "at least one stage is required",
		},
		"Mixed positions should fail": {
			fs: fstest.MapFS{
				"stages.yaml": &fstest.MapFile{
					Data: []byte(`stages:
  - id: a
    label: A
    position: 10
  - id: b
    label: B
`),
				},
			},
			path:   "stages.yaml",
			expErr: true,
			errMsg: "position must be set on all stages or on none",
		},
		"Missing label should fail": {
			fs: fstest.MapFS{
				"stages.yaml": &fstest.MapFile{Data: []byte("stages:\n  - id: a\n")},
			},
			path:   "stages.yaml",
			expErr: true,
			errMsg: "label is required",
		},
		"Out of range position should fail": {
			fs: fstest.MapFS{
				"stages.yaml": &fstest.MapFile{Data: []byte("stages:\n  - id: a\n    label: A\n    position: 120\n")},
			},
			path:   "stages.yaml",
			expErr: true,
			errIs:  model.ErrNotValid,
		},
		"Duplicated IDs should fail": {
			fs: fstest.MapFS{
				"stages.yaml": &fstest.MapFile{Data: []byte("stages:\n  - id: a\n    label: A\n  - id: a\n    label: B\n")},
			},
			path:   "stages.yaml",
			expErr: true,
			errIs:  model.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			repo := NewStagesYAMLRepository(test.fs)
			stages, err := repo.GetStages(context.Background(), test.path)

			if test.expErr {
				require.Error(t, err)
				if test.errMsg != "" {
					assert.Contains(t, err.Error(), test.errMsg)
				}
				if test.errIs != nil {
					assert.True(t, errors.Is(err, test.errIs))
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, test.expStages, stages)
		})
	}
}

func TestStagesYAMLRepository_CancelledContext(t *testing.T) {
	fs := fstest.MapFS{"stages.yaml": &fstest.MapFile{Data: []byte("stages:\n  - id: a\n    label: A\n")}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStagesYAMLRepository(fs).GetStages(ctx, "stages.yaml")
	assert.ErrorIs(t, err, context.Canceled)
}
