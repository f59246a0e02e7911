// Package driver wires the Engine to the host filesystem: the package.yml
// project manifest, git-sourced dependency vendoring, and the
// interpreter.SourceProvider the Evaluator asks for module bytes through.
package driver

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DependencySpec names one git-sourced import dependency from a manifest's
// `dependencies:` block.
type DependencySpec struct {
	Git string `yaml:"git"`
	Rev string `yaml:"rev"`
}

// Manifest is the decoded shape of package.yml: a script entrypoint plus
// optional git-sourced import dependencies.
type Manifest struct {
	Path         string                    `yaml:"-"`
	Entry        string                    `yaml:"entry"`
	Dependencies map[string]DependencySpec `yaml:"dependencies"`
}

// ValidationError reports every problem found with a manifest at once,
// rather than stopping at the first one.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	msg := "invalid package.yml:"
	for _, issue := range e.Issues {
		msg += "\n  - " + issue
	}
	return msg
}

// LoadManifest reads and decodes path, rejecting unknown fields exactly as
// the teacher's manifest loader does, then validates the result.
func LoadManifest(path string) (*Manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest %s: %w", path, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var m Manifest
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve manifest path %s: %w", path, err)
	}
	m.Path = abs

	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	var issues []string
	if m.Entry == "" {
		issues = append(issues, "entry: must name a script entrypoint")
	}
	for name, dep := range m.Dependencies {
		if dep.Git == "" {
			issues = append(issues, fmt.Sprintf("dependencies.%s.git: must name a git source", name))
		}
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// EntryPath resolves Entry relative to the manifest's own directory.
func (m *Manifest) EntryPath() string {
	if filepath.IsAbs(m.Entry) {
		return filepath.Clean(m.Entry)
	}
	return filepath.Join(filepath.Dir(m.Path), filepath.FromSlash(m.Entry))
}

// FindManifest searches start and its ancestors for package.yml, the way
// the teacher's CLI locates a project root.
func FindManifest(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve start directory %s: %w", start, err)
	}
	if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		candidate := filepath.Join(dir, "package.yml")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// PonzHome resolves the dependency cache directory: PONZ_HOME if set,
// otherwise ~/.ponzlang.
func PonzHome() (string, error) {
	if home := os.Getenv("PONZ_HOME"); home != "" {
		return filepath.Abs(home)
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}
	return filepath.Join(userHome, ".ponzlang"), nil
}
