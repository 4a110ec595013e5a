package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/slok/domaudit/internal/log"
	"github.com/slok/domaudit/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	// Limit is the maximum number of kept runs, the oldest are evicted. 0 keeps all.
	Limit  int
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Limit < 0 {
		return fmt.Errorf("limit can't be negative")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.RunRepository.
type Repository struct {
	runs   map[string]model.OperationRun
	limit  int
	mu     sync.RWMutex
	logger log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		runs:   make(map[string]model.OperationRun),
		limit:  cfg.Limit,
		logger: cfg.Logger,
	}, nil
}

// SaveRun creates or replaces a run in the repository.
func (r *Repository) SaveRun(ctx context.Context, run model.OperationRun) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required: %w", model.ErrNotValid)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs[run.ID] = run
	r.logger.Debugf("Saved run in repository: %s", run.ID)

	// Evict the oldest runs over the limit.
	for r.limit > 0 && len(r.runs) > r.limit {
		oldest := ""
		for id, existing := range r.runs {
			if oldest == "" || existing.StartedAt.Before(r.runs[oldest].StartedAt) ||
				(existing.StartedAt.Equal(r.runs[oldest].StartedAt) && id < oldest) {
				oldest = id
			}
		}
		delete(r.runs, oldest)
		r.logger.Debugf("Evicted run from repository: %s", oldest)
	}

	return nil
}

// GetRun retrieves a run by ID.
func (r *Repository) GetRun(ctx context.Context, id string) (*model.OperationRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, model.ErrNotFound)
	}

	// Return a copy
	runCopy := run
	return &runCopy, nil
}

// ListRuns returns all runs, newest first.
func (r *Repository) ListRuns(ctx context.Context) ([]model.OperationRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]model.OperationRun, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, run)
	}

	// ULIDs sort by time, they break ties between runs started at the same instant.
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.After(runs[j].StartedAt)
		}
		return runs[i].ID > runs[j].ID
	})

	return runs, nil
}
