package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/domaudit/internal/log"
	"github.com/slok/domaudit/internal/model"
)

func TestLoadStages(t *testing.T) {
	dir := t.TempDir()
	validPath := filepath.Join(dir, "stages.yaml")
	require.NoError(t, os.WriteFile(validPath, []byte(`
stages:
  - id: dns
    label: Resolving DNS...
  - id: report
    label: Compiling report...
`), 0o600))
	invalidPath := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalidPath, []byte("stages: []\n"), 0o600))
	missingPath := filepath.Join(dir, "missing.yaml")

	tests := map[string]struct {
		path        string
		defaultPath string
		expIDs      []string
		expErr      error
		expAnyErr   bool
	}{
		"No path should use the built-in stages.": {
			path:   "",
			expIDs: []string{"init", "registration", "hosting", "email", "tech", "wordpress", "ads", "security", "report"},
		},
		"A missing default file should use the built-in stages.": {
			path:        missingPath,
			defaultPath: missingPath,
			expIDs:      []string{"init", "registration", "hosting", "email", "tech", "wordpress", "ads", "security", "report"},
		},
		"A missing explicit file should fail.": {
			path:        missingPath,
			defaultPath: filepath.Join(dir, "other.yaml"),
			expErr:      model.ErrNotFound,
		},
		"A valid file should be loaded.": {
			path:   validPath,
			expIDs: []string{"dns", "report"},
		},
		"An invalid file should fail.": {
			path:      invalidPath,
			expAnyErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			stages, err := loadStages(context.Background(), test.path, test.defaultPath, log.Noop)

			if test.expErr != nil {
				assert.ErrorIs(t, err, test.expErr)
				return
			}
			if test.expAnyErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			ids := make([]string, 0, len(stages))
			for _, s := range stages {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, test.expIDs, ids)
		})
	}
}
