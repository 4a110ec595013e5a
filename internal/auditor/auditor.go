package auditor

import (
	"context"

	"github.com/slok/domaudit/internal/model"
)

// Auditor runs the remote domain audit. It has exactly two outcomes: a result or
// an error whose text is shown to the user verbatim.
type Auditor interface {
	Audit(ctx context.Context, domain string) (*model.AuditResult, error)
}

//go:generate mockery --case underscore --output auditormock --outpkg auditormock --name Auditor
