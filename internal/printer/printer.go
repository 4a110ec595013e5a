package printer

import "github.com/slok/domaudit/internal/model"

// Printer knows how to print audit information in different formats.
type Printer interface {
	PrintResult(run model.OperationRun) error
	PrintStages(stages model.StageCatalog) error
	PrintMessage(msg string) error
}
