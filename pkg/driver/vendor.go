package driver

import (
	"fmt"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// VendorGitDependency clones dep's git source into <cacheDir>/<name> and
// checks out dep.Rev, if given, before the script runs. A clone already
// present at the target directory is left alone — vendoring is a fetch-once
// step, not a sync, matching spec.md §6's "Persisted state: None" for the
// Language itself (this is host-driver plumbing ahead of the run, not a
// Language feature).
func VendorGitDependency(cacheDir, name string, dep DependencySpec) (string, error) {
	target := filepath.Join(cacheDir, name)
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return target, nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("prepare vendor directory for %s: %w", name, err)
	}

	repo, err := git.PlainClone(target, false, &git.CloneOptions{
		URL: dep.Git,
	})
	if err != nil {
		return "", fmt.Errorf("clone %s (%s): %w", name, dep.Git, err)
	}

	if dep.Rev == "" {
		return target, nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("open worktree for %s: %w", name, err)
	}
	if err := worktree.Checkout(&git.CheckoutOptions{
		Hash: plumbing.NewHash(dep.Rev),
	}); err != nil {
		return "", fmt.Errorf("checkout %s@%s: %w", name, dep.Rev, err)
	}
	return target, nil
}

// VendorDependencies vendors every git-sourced dependency in m into
// cacheDir, returning the set of vendored directories keyed by dependency
// name for use as additional SourceProvider search roots.
func VendorDependencies(cacheDir string, m *Manifest) (map[string]string, error) {
	dirs := make(map[string]string, len(m.Dependencies))
	for name, dep := range m.Dependencies {
		dir, err := VendorGitDependency(cacheDir, name, dep)
		if err != nil {
			return nil, err
		}
		dirs[name] = dir
	}
	return dirs, nil
}
