package storage

import (
	"context"

	"github.com/slok/domaudit/internal/model"
)

// RunRepository keeps the finished audit runs of the current session.
type RunRepository interface {
	SaveRun(ctx context.Context, r model.OperationRun) error
	GetRun(ctx context.Context, id string) (*model.OperationRun, error)
	// ListRuns returns the runs, newest first.
	ListRuns(ctx context.Context) ([]model.OperationRun, error)
}
