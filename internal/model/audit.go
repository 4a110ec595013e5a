package model

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// AuditResult is the payload returned by the remote audit. The sections are
// opaque to the loader, only printers look inside them.
type AuditResult struct {
	Domain     string
	Sections   map[string]any
	ReceivedAt time.Time
}

// SectionNames returns the result section names sorted.
func (a AuditResult) SectionNames() []string {
	names := make([]string, 0, len(a.Sections))
	for k := range a.Sections {
		names = append(names, k)
	}
	sort.Strings(names)

	return names
}

var (
	schemeRegexp = regexp.MustCompile(`^https?://`)
	wwwRegexp    = regexp.MustCompile(`^www\.`)
	pathRegexp   = regexp.MustCompile(`/.*$`)
)

// NormalizeDomain trims and lowercases a user entered domain, removing the scheme,
// the `www.` prefix and any path.
func NormalizeDomain(domain string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = schemeRegexp.ReplaceAllString(d, "")
	d = wwwRegexp.ReplaceAllString(d, "")
	d = pathRegexp.ReplaceAllString(d, "")

	if d == "" {
		return "", fmt.Errorf("domain is required: %w", ErrNotValid)
	}

	return d, nil
}
