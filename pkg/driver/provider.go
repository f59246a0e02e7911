package driver

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileProvider is the filesystem SourceProvider spec.md §6's "Import
// resolution" names: a path is taken verbatim from the import string and
// opened relative to the process working directory. Any vendored
// dependency directories are layered in as additional search roots, so an
// import path that doesn't resolve against the working directory is
// retried against each vendor root in order.
type FileProvider struct {
	WorkDir     string
	VendorRoots []string
}

// NewFileProvider builds a FileProvider rooted at the process working
// directory, with no vendor roots.
func NewFileProvider() (*FileProvider, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}
	return &FileProvider{WorkDir: wd}, nil
}

// ReadSource implements interpreter.SourceProvider.
func (p *FileProvider) ReadSource(path string) (string, error) {
	candidates := make([]string, 0, 1+len(p.VendorRoots))
	if filepath.IsAbs(path) {
		candidates = append(candidates, path)
	} else {
		candidates = append(candidates, filepath.Join(p.WorkDir, filepath.FromSlash(path)))
		for _, root := range p.VendorRoots {
			candidates = append(candidates, filepath.Join(root, filepath.FromSlash(path)))
		}
	}

	var lastErr error
	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if err == nil {
			return string(data), nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("read %s: %w", path, lastErr)
}
