package remote_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/domaudit/internal/auditor/remote"
)

func TestNewAuditor(t *testing.T) {
	tests := map[string]struct {
		cfg    remote.AuditorConfig
		expErr bool
	}{
		"A valid base URL should not fail": {
			cfg: remote.AuditorConfig{BaseURL: "http://localhost:8000/"},
		},
		"A missing base URL should fail": {
			cfg:    remote.AuditorConfig{},
			expErr: true,
		},
		"A non HTTP base URL should fail": {
			cfg:    remote.AuditorConfig{BaseURL: "ftp://example.com"},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := remote.NewAuditor(test.cfg)
			if test.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAuditorAudit(t *testing.T) {
	tests := map[string]struct {
		handler     http.HandlerFunc
		expErr      string
		expSections []string
	}{
		"A successful response should return the sections": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"whois":{"Registrar":"Example"},"security":{"SSL Valid":true}}`))
			},
			expSections: []string{"security", "whois"},
		},
		"A server error should be reported with its status": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			expErr: "Server error: 500",
		},
		"A not found should be reported with its status": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			expErr: "Server error: 404",
		},
		"An invalid body should fail": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
			expErr: "could not decode audit response",
		},
		"A null body should fail": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`null`))
			},
			expErr: "audit response is empty",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				test.handler(w, r)
			}))
			defer srv.Close()

			now := time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC)
			a, err := remote.NewAuditor(remote.AuditorConfig{
				BaseURL: srv.URL + "/",
				Now:     func() time.Time { return now },
			})
			require.NoError(t, err)

			res, err := a.Audit(context.Background(), "example.com")
			assert.Equal(t, "/audit/example.com", gotPath)

			if test.expErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), test.expErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "example.com", res.Domain)
			assert.Equal(t, now, res.ReceivedAt)
			assert.Equal(t, test.expSections, res.SectionNames())
		})
	}
}

func TestAuditorAuditUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	a, err := remote.NewAuditor(remote.AuditorConfig{BaseURL: url})
	require.NoError(t, err)

	_, err = a.Audit(context.Background(), "example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not reach audit backend")
}
