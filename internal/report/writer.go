// Package report persists a YAML summary of a release run.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"fontrelease/internal/artifact"
)

// Stage is the outcome of one pipeline stage.
type Stage struct {
	Name     string `yaml:"name"`
	Status   string `yaml:"status"`
	Duration string `yaml:"duration,omitempty"`
	Error    string `yaml:"error,omitempty"`
}

// Release describes the draft created by the run, if any.
type Release struct {
	ID     int64            `yaml:"id"`
	URL    string           `yaml:"url,omitempty"`
	Assets []artifact.Asset `yaml:"assets"`
}

// Report is the run summary.
type Report struct {
	RunID     string    `yaml:"run_id"`
	Trigger   string    `yaml:"trigger"`
	Version   string    `yaml:"version,omitempty"`
	Succeeded bool      `yaml:"succeeded"`
	StartedAt time.Time `yaml:"started_at"`
	Duration  string    `yaml:"duration"`
	Stages    []Stage   `yaml:"stages"`
	Release   *Release  `yaml:"release,omitempty"`
	Error     string    `yaml:"error,omitempty"`
}

// Writer writes reports to a YAML file.
type Writer struct {
	path string
}

// NewWriter creates a new Writer for the given file path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Write marshals the report and replaces the file atomically.
func (w *Writer) Write(r *Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if dir := filepath.Dir(w.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	// Write to temp, then rename
	tmpPath := w.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if err := os.Rename(tmpPath, w.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

// Read loads a report previously written by [Writer.Write].
func Read(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &r, nil
}
