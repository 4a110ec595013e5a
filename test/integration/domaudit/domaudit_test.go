package domaudit_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	intdomaudit "github.com/slok/domaudit/test/integration/domaudit"
)

// writeStages writes a small stage catalog and returns its path.
func writeStages(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "stages.yaml")
	data := "stages:\n  - id: dns\n    label: Resolving DNS...\n  - id: report\n    label: Compiling report...\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestStages(t *testing.T) {
	config := intdomaudit.NewConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dir := t.TempDir()
	customPath := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(customPath, []byte("stages:\n  - id: dns\n    label: Resolving DNS...\n"), 0o600))

	tests := map[string]struct {
		stagesFile string
		expIDs     []string
		expErr     bool
	}{
		"A custom stages file should be used.": {
			stagesFile: customPath,
			expIDs:     []string{"dns"},
		},
		"A missing explicit stages file should fail.": {
			stagesFile: filepath.Join(dir, "missing.yaml"),
			expErr:     true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			stdout, stderr, err := intdomaudit.RunCmd(ctx, config, test.stagesFile, "stages --format json")
			if test.expErr {
				assert.Error(t, err)
				assert.Contains(t, string(stderr), "Error:")
				return
			}
			require.NoError(t, err, string(stderr))

			var got []struct {
				ID string `json:"id"`
			}
			require.NoError(t, json.Unmarshal(stdout, &got))
			ids := []string{}
			for _, s := range got {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, test.expIDs, ids)
		})
	}
}

func TestPlainAuditFake(t *testing.T) {
	config := intdomaudit.NewConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stagesFile := writeStages(t)

	tests := map[string]struct {
		engineArgs string
		domain     string
		expErr     bool
		expStderr  string
	}{
		"A fake audit should print the result.": {
			engineArgs: "--engine fake --fake-latency 100ms",
			domain:     "www.example.com",
		},
		"A failed fake audit should fail with the reason.": {
			engineArgs: "--engine fake --fake-latency 50ms --fake-fail backend-down",
			domain:     "example.com",
			expErr:     true,
			expStderr:  "audit failed: backend-down",
		},
		"An audit over the max wait should fail.": {
			engineArgs: "--engine fake --fake-latency 1m --max-wait 100ms",
			domain:     "example.com",
			expErr:     true,
			expStderr:  "timed out",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			stdout, stderr, err := intdomaudit.RunPlainAudit(ctx, config, stagesFile, test.engineArgs, test.domain)
			if test.expErr {
				assert.Error(t, err)
				assert.Contains(t, string(stderr), test.expStderr)
				return
			}
			require.NoError(t, err, string(stderr))

			var got map[string]any
			require.NoError(t, json.Unmarshal(stdout, &got))
			assert.Equal(t, "example.com", got["domain"])
			assert.Equal(t, "succeeded", got["status"])
			assert.Contains(t, string(stderr), "100%")
		})
	}
}

func TestPlainAuditHTTP(t *testing.T) {
	config := intdomaudit.NewConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audit/example.com" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"hosting": {"Provider": "Example Cloud"}}`)
	}))
	defer srv.Close()

	stagesFile := writeStages(t)
	stdout, stderr, err := intdomaudit.RunPlainAudit(ctx, config, stagesFile, "--engine http --backend-url "+srv.URL, "example.com")
	require.NoError(t, err, string(stderr))

	var got struct {
		Sections map[string]map[string]any `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(stdout, &got))
	assert.Equal(t, "Example Cloud", got.Sections["hosting"]["Provider"])
}
