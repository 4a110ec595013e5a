package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/slok/domaudit/internal/model"
)

// JSONPrinter prints audit information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// resultOutput represents a finished run output.
type resultOutput struct {
	ID         string         `json:"id"`
	Domain     string         `json:"domain"`
	Status     string         `json:"status"`
	StartedAt  time.Time      `json:"started_at"`
	ReceivedAt *time.Time     `json:"received_at,omitempty"`
	Error      string         `json:"error,omitempty"`
	Sections   map[string]any `json:"sections,omitempty"`
}

// stageOutput represents a stage in the catalog output.
type stageOutput struct {
	Index    int     `json:"index"`
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Position float64 `json:"position"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintResult prints a finished run in JSON format.
func (j *JSONPrinter) PrintResult(run model.OperationRun) error {
	output := resultOutput{
		ID:        run.ID,
		Domain:    run.Domain,
		Status:    string(run.Status),
		StartedAt: run.StartedAt.UTC(),
		Error:     run.ErrorReason,
	}

	if run.Result != nil {
		utcTime := run.Result.ReceivedAt.UTC()
		output.ReceivedAt = &utcTime
		output.Sections = run.Result.Sections
	}

	return j.encode(output)
}

// PrintStages prints a stage catalog in JSON format.
func (j *JSONPrinter) PrintStages(stages model.StageCatalog) error {
	items := make([]stageOutput, len(stages))
	for i, s := range stages {
		items[i] = stageOutput{Index: s.Index, ID: s.ID, Label: s.Label, Position: s.Position}
	}

	return j.encode(items)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
