package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the log directory under a knowledge directory (<dir>/_meta/logs).
func DefaultLogDir(knowledgeDir string) string {
	return filepath.Join(knowledgeDir, "_meta", "logs")
}

// DefaultLogPath returns the default log file path for knowledgeDir.
func DefaultLogPath(knowledgeDir string) string {
	return filepath.Join(DefaultLogDir(knowledgeDir), "lore.log")
}

// EnsureLogDir creates the directory containing logPath if it doesn't exist.
func EnsureLogDir(logPath string) error {
	return os.MkdirAll(filepath.Dir(logPath), 0o755)
}
