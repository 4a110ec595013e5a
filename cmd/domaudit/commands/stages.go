package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/domaudit/internal/log"
	"github.com/slok/domaudit/internal/model"
	"github.com/slok/domaudit/internal/printer"
	"github.com/slok/domaudit/internal/storage/io"
)

// StagesCommand prints the effective stage catalog.
type StagesCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewStagesCommand returns the stages command.
func NewStagesCommand(rootCmd *RootCommand, app *kingpin.Application) *StagesCommand {
	c := &StagesCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("stages", "Show the stage catalog used by the loader.")
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c StagesCommand) Name() string { return c.Cmd.FullCommand() }

func (c StagesCommand) Run(ctx context.Context) error {
	stages, err := loadStages(ctx, c.rootCmd.StagesFile, defaultStagesPath(), c.rootCmd.Logger)
	if err != nil {
		return err
	}

	// Print output.
	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default:
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintStages(stages); err != nil {
		return fmt.Errorf("could not print stages: %w", err)
	}

	return nil
}

// loadStages loads the stage catalog from path. A missing file at the default
// location falls back to the built-in stages, any other missing file is an error.
func loadStages(ctx context.Context, path, defaultPath string, logger log.Logger) (model.StageCatalog, error) {
	if path == "" {
		return model.DefaultStages(), nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("could not resolve stages file path: %w", err)
	}

	repo := io.NewStagesYAMLRepository(os.DirFS("/"))
	stages, err := repo.GetStages(ctx, absPath[1:])
	if err != nil {
		if errors.Is(err, model.ErrNotFound) && path == defaultPath {
			logger.Debugf("No stages file at %s, using built-in stages", path)
			return model.DefaultStages(), nil
		}
		return nil, fmt.Errorf("could not load stages: %w", err)
	}

	logger.Debugf("Loaded %d stages from %s", len(stages), absPath)

	return stages, nil
}
