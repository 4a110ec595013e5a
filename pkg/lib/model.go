package lib

import (
	"sort"
	"time"

	"github.com/slok/domaudit/internal/app/loader"
	"github.com/slok/domaudit/internal/model"
)

// EngineType identifies the audit engine implementation.
type EngineType string

const (
	// EngineHTTP audits against the backend HTTP API.
	EngineHTTP EngineType = "http"

	// EngineFake audits in process without a backend.
	// Use this for unit testing without infrastructure dependencies.
	EngineFake EngineType = "fake"
)

// Stage is one named step of the simulated audit pipeline.
type Stage struct {
	// Index is the stage position in the catalog.
	Index int
	// ID is the stage identifier (e.g. "hosting").
	ID string
	// Label is the text shown while the stage is active.
	Label string
	// Position is the horizontal position of the stage in the [0,100] range.
	Position float64
}

// Result is a finished audit.
type Result struct {
	// RunID is the unique identifier (ULID) of the audit run.
	RunID string
	// Domain is the normalized audited domain.
	Domain string
	// StartedAt is when the audit was issued.
	StartedAt time.Time
	// ReceivedAt is when the backend result was received.
	ReceivedAt time.Time
	// Sections is the opaque backend payload, keyed by section name.
	Sections map[string]any
}

// SectionNames returns the sorted section names of the result.
func (r Result) SectionNames() []string {
	names := make([]string, 0, len(r.Sections))
	for k := range r.Sections {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Progress is a loader snapshot while the audit is pending.
type Progress struct {
	// Domain is the normalized audited domain.
	Domain string
	// StageIndex is the current simulated stage index.
	StageIndex int
	// StageID is the current simulated stage ID.
	StageID string
	// StageLabel is the current simulated stage label.
	StageLabel string
	// Percent is the simulated progress in [0,100].
	Percent int
	// Finishing is true once the audit succeeded and the loader holds its final state.
	Finishing bool
	// Slow is true when the audit takes longer than [Config].SlowAfter.
	Slow bool
	// Elapsed is the time since the audit was issued.
	Elapsed time.Duration
}

// AuditOpts are the optional settings of an audit.
type AuditOpts struct {
	// OnProgress is called on every loader change while the audit is running.
	// It's called from the loader goroutines, it must not block.
	OnProgress func(p Progress)
}

// --- Internal conversion helpers ---

func toInternalStages(ss []Stage) model.StageCatalog {
	if ss == nil {
		return nil
	}
	result := make(model.StageCatalog, len(ss))
	for i, s := range ss {
		result[i] = model.Stage{Index: s.Index, ID: s.ID, Label: s.Label, Position: s.Position}
	}
	return result
}

func fromInternalStages(ss model.StageCatalog) []Stage {
	result := make([]Stage, len(ss))
	for i, s := range ss {
		result[i] = Stage{Index: s.Index, ID: s.ID, Label: s.Label, Position: s.Position}
	}
	return result
}

func fromInternalRun(r model.OperationRun) *Result {
	res := &Result{
		RunID:     r.ID,
		Domain:    r.Domain,
		StartedAt: r.StartedAt,
	}
	if r.Result != nil {
		res.ReceivedAt = r.Result.ReceivedAt
		res.Sections = r.Result.Sections
	}
	return res
}

func fromInternalView(v loader.View) Progress {
	st := v.Stage()
	p := Progress{
		StageIndex: st.Index,
		StageID:    st.ID,
		StageLabel: st.Label,
		Percent:    v.Progress,
		Finishing:  v.Phase == loader.PhaseSucceeding,
		Slow:       v.Slow,
		Elapsed:    v.Elapsed,
	}
	if v.Run != nil {
		p.Domain = v.Run.Domain
	}
	return p
}
