package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default domaudit data directory name (relative to home).
	DefaultDataDir = ".domaudit"
	// StagesFile is the stage catalog filename inside the data directory.
	StagesFile = "stages.yaml"
	// LogFile is the log filename used while the terminal UI owns the screen.
	LogFile = "domaudit.log"

	// DefaultBackendURL is the audit backend used when none is configured.
	DefaultBackendURL = "http://localhost:8000"
)

// DataDir returns the domaudit data directory inside home.
func DataDir(home string) string {
	return filepath.Join(home, DefaultDataDir)
}

// StagesPath returns the default stage catalog path.
func StagesPath(home string) string {
	return filepath.Join(DataDir(home), StagesFile)
}

// LogPath returns the default TUI log path.
func LogPath(home string) string {
	return filepath.Join(DataDir(home), LogFile)
}
