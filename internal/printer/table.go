package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/slok/domaudit/internal/model"
)

// TablePrinter prints audit information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintResult prints the audit result of a finished run, one row per section field.
func (t *TablePrinter) PrintResult(run model.OperationRun) error {
	fmt.Fprintf(t.writer, "Domain:     %s\n", run.Domain)
	fmt.Fprintf(t.writer, "Run:        %s\n", run.ID)
	fmt.Fprintf(t.writer, "Status:     %s\n", run.Status)
	fmt.Fprintf(t.writer, "Started:    %s\n", FormatTimestamp(run.StartedAt))

	if run.Status == model.RunStatusFailed {
		fmt.Fprintf(t.writer, "Error:      %s\n", run.ErrorReason)
		return nil
	}
	if run.Result == nil {
		return nil
	}

	fmt.Fprintf(t.writer, "Audited in: %s\n\n", FormatElapsed(run.Result.ReceivedAt.Sub(run.StartedAt)))

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header.
	fmt.Fprintln(tw, "SECTION\tFIELD\tVALUE")

	// Print rows.
	for _, name := range run.Result.SectionNames() {
		section := run.Result.Sections[name]
		fields, ok := section.(map[string]any)
		if !ok {
			fmt.Fprintf(tw, "%s\t-\t%s\n", name, FormatValue(section))
			continue
		}

		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", name, k, FormatValue(fields[k]))
		}
	}

	return nil
}

// PrintStages prints a stage catalog in a table format.
func (t *TablePrinter) PrintStages(stages model.StageCatalog) error {
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "#\tID\tPOSITION\tLABEL")
	for _, s := range stages {
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%s\n", s.Index, s.ID, s.Position, s.Label)
	}

	return nil
}

// PrintMessage prints a simple message.
func (t *TablePrinter) PrintMessage(msg string) error {
	_, err := fmt.Fprintln(t.writer, msg)
	return err
}

// FormatValue formats an opaque payload value in a single line.
func FormatValue(v any) string {
	switch vv := v.(type) {
	case nil:
		return "-"
	case string:
		if vv == "" {
			return "-"
		}
		return vv
	case bool, float64, int:
		return fmt.Sprint(vv)
	case []any:
		parts := make([]string, 0, len(vv))
		for _, e := range vv {
			parts = append(parts, FormatValue(e))
		}
		if len(parts) == 0 {
			return "-"
		}
		return strings.Join(parts, ", ")
	default:
		b, err := json.Marshal(vv)
		if err != nil {
			return fmt.Sprint(vv)
		}
		return string(b)
	}
}
