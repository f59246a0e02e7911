package driver

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileProviderReadsWorkDirRelativePath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "mod.pz"), "let x = 1\n")

	p := &FileProvider{WorkDir: dir}
	src, err := p.ReadSource("mod.pz")
	require.NoError(t, err)
	require.Equal(t, "let x = 1\n", src)
}

func TestFileProviderFallsBackToVendorRoots(t *testing.T) {
	workDir := t.TempDir()
	vendorDir := t.TempDir()
	writeFile(t, filepath.Join(vendorDir, "lib.pz"), "let v = 2\n")

	p := &FileProvider{WorkDir: workDir, VendorRoots: []string{vendorDir}}
	src, err := p.ReadSource("lib.pz")
	require.NoError(t, err)
	require.Equal(t, "let v = 2\n", src)
}

func TestFileProviderPrefersWorkDirOverVendorRoot(t *testing.T) {
	workDir := t.TempDir()
	vendorDir := t.TempDir()
	writeFile(t, filepath.Join(workDir, "shared.pz"), "let from = 1\n")
	writeFile(t, filepath.Join(vendorDir, "shared.pz"), "let from = 2\n")

	p := &FileProvider{WorkDir: workDir, VendorRoots: []string{vendorDir}}
	src, err := p.ReadSource("shared.pz")
	require.NoError(t, err)
	require.Equal(t, "let from = 1\n", src)
}

func TestFileProviderReportsNotFoundAcrossAllRoots(t *testing.T) {
	p := &FileProvider{WorkDir: t.TempDir(), VendorRoots: []string{t.TempDir()}}
	_, err := p.ReadSource("missing.pz")
	require.Error(t, err)
}

func TestFileProviderTreatsAbsolutePathVerbatim(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "abs.pz")
	writeFile(t, abs, "let a = 1\n")

	p := &FileProvider{WorkDir: t.TempDir()}
	src, err := p.ReadSource(abs)
	require.NoError(t, err)
	require.Equal(t, "let a = 1\n", src)
}

func TestNewFileProviderResolvesWorkingDirectory(t *testing.T) {
	p, err := NewFileProvider()
	require.NoError(t, err)
	require.NotEmpty(t, p.WorkDir)
}
