package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/slok/domaudit/internal/log"
	"github.com/slok/domaudit/internal/model"
)

const maxBodyBytes = 16 << 20

// AuditorConfig configures the remote auditor.
type AuditorConfig struct {
	// BaseURL is the audit backend base URL (e.g. "http://localhost:8000").
	BaseURL string
	// HTTPClient is the client used for the requests. The loader doesn't impose a
	// network timeout, set one on the client if needed.
	HTTPClient *http.Client
	// Logger for logging.
	Logger log.Logger
	// Now is the time source for the received timestamp.
	Now func() time.Time
}

func (c *AuditorConfig) defaults() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base URL scheme must be http or https")
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "auditor.Remote"})
	if c.Now == nil {
		c.Now = time.Now
	}
	return nil
}

// Auditor runs audits against the backend `GET /audit/{domain}` endpoint.
type Auditor struct {
	baseURL    string
	httpClient *http.Client
	logger     log.Logger
	now        func() time.Time
}

// NewAuditor creates a new remote auditor.
func NewAuditor(cfg AuditorConfig) (*Auditor, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Auditor{
		baseURL:    cfg.BaseURL,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
		now:        cfg.Now,
	}, nil
}

// Audit requests the audit of a domain. Non 2xx responses fail with
// "Server error: <status code>".
func (a *Auditor) Audit(ctx context.Context, domain string) (*model.AuditResult, error) {
	endpoint := a.baseURL + "/audit/" + url.PathEscape(domain)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := a.now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not reach audit backend: %w", err)
	}
	defer resp.Body.Close()

	a.logger.WithCtxValues(ctx).Debugf("Audit backend answered %d for %s in %s", resp.StatusCode, domain, a.now().Sub(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("Server error: %d", resp.StatusCode)
	}

	var sections map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&sections); err != nil {
		return nil, fmt.Errorf("could not decode audit response: %w", err)
	}
	if sections == nil {
		return nil, fmt.Errorf("audit response is empty")
	}

	return &model.AuditResult{
		Domain:     domain,
		Sections:   sections,
		ReceivedAt: a.now().UTC(),
	}, nil
}
