// Package manifest records what a build step read and wrote.
package manifest

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Manifest describes one build step run. It sits next to the outputs and
// never feeds back into them.
type Manifest struct {
	RunID       string         `yaml:"run_id"`
	Step        string         `yaml:"step"`
	StartedAt   time.Time      `yaml:"started_at"`
	FinishedAt  time.Time      `yaml:"finished_at"`
	Settings    map[string]any `yaml:"settings,omitempty"`
	Inputs      []string       `yaml:"inputs"`
	Outputs     []Output       `yaml:"outputs"`
	Diagnostics map[string]int `yaml:"diagnostics,omitempty"`
}

// Output is one written file with its data row count.
type Output struct {
	Path string `yaml:"path"`
	Rows int    `yaml:"rows"`
}

// New starts a manifest for step.
func New(step string) *Manifest {
	return &Manifest{
		RunID:     uuid.New().String(),
		Step:      step,
		StartedAt: time.Now().UTC(),
		Settings:  map[string]any{},
	}
}

// Input records an input path.
func (m *Manifest) Input(path string) {
	m.Inputs = append(m.Inputs, path)
}

// Output records an output path and its row count.
func (m *Manifest) Output(path string, rows int) {
	m.Outputs = append(m.Outputs, Output{Path: path, Rows: rows})
}

// Set records a build setting.
func (m *Manifest) Set(key string, value any) {
	m.Settings[key] = value
}

// Diagnose records a diagnostic counter.
func (m *Manifest) Diagnose(counts map[string]int) {
	if m.Diagnostics == nil {
		m.Diagnostics = make(map[string]int, len(counts))
	}
	for k, v := range counts {
		m.Diagnostics[k] = v
	}
}

// TotalRows sums the rows of every output.
func (m *Manifest) TotalRows() int {
	var n int
	for _, o := range m.Outputs {
		n += o.Rows
	}
	return n
}

// FileName returns the manifest file name for step.
func FileName(step string) string {
	return step + ".manifest.yaml"
}

// Write stamps the finish time and writes the manifest into dir.
func (m *Manifest) Write(dir string) (string, error) {
	m.FinishedAt = time.Now().UTC()
	sort.Strings(m.Inputs)
	sort.Slice(m.Outputs, func(i, j int) bool { return m.Outputs[i].Path < m.Outputs[j].Path })

	data, err := yaml.Marshal(m)
	if err != nil {
		return "", eris.Wrap(err, "manifest: marshal")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "manifest: create directory %s", dir)
	}
	path := filepath.Join(dir, FileName(m.Step))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "manifest: write %s", path)
	}
	return path, nil
}

// Read loads a manifest written by Write.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "manifest: read %s", path)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrap(err, "manifest: parse")
	}
	return &m, nil
}
