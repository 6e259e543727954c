package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the cartefin home directory.
	DefaultDirName = ".cartefin"

	// UploadsDirName is the subdirectory for staged document uploads.
	UploadsDirName = "uploads"

	// ReportsDirName is the subdirectory for rendered financing reports.
	ReportsDirName = "reports"

	// DBFileName is the SQLite database file name.
	DBFileName = "cartefin.db"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the cartefin home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.cartefin).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// UploadsPath returns the path to the staged uploads directory.
func (d *Dir) UploadsPath() string {
	return filepath.Join(d.path, UploadsDirName)
}

// ReportsPath returns the path to the rendered reports directory.
func (d *Dir) ReportsPath() string {
	return filepath.Join(d.path, ReportsDirName)
}

// DBPath returns the path to the SQLite database file.
func (d *Dir) DBPath() string {
	return filepath.Join(d.path, DBFileName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// UploadPath returns the staging path for an uploaded file.
func (d *Dir) UploadPath(filename string) string {
	return filepath.Join(d.UploadsPath(), filepath.Base(filename))
}

// ReportPath returns the path for a dossier's rendered Markdown report.
func (d *Dir) ReportPath(dossierID string) string {
	return filepath.Join(d.ReportsPath(), dossierID+".md")
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.UploadsPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create uploads directory: %w", err)
	}
	if err := os.MkdirAll(d.ReportsPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create reports directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
