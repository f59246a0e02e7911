// Command ponzlang is the Engine's CLI driver: `ponzlang <script-path>`
// per spec.md §6, a manifest-aware no-args mode that runs package.yml's
// entrypoint, and a `ponzlang deps install` subcommand that vendors
// git-sourced import dependencies ahead of the run. Modeled on the
// teacher's cmd/able/main.go run/runEntry/runDeps split.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/devgithub-sl/ponzlang/pkg/driver"
	"github.com/devgithub-sl/ponzlang/pkg/interpreter"
	"github.com/devgithub-sl/ponzlang/pkg/lexer"
	"github.com/devgithub-sl/ponzlang/pkg/parser"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		return runManifest()
	}
	switch args[0] {
	case "deps":
		return runDeps(args[1:])
	default:
		return runScript(args[0])
	}
}

// runScript implements spec.md §6's `engine <script-path>` directly,
// against the process working directory.
func runScript(path string) int {
	provider, err := driver.NewFileProvider()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return 1
	}
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return 1
	}
	return execute(string(src), provider)
}

// runManifest is the no-args mode: locate package.yml from the working
// directory upward and run its entry script, with git-sourced
// dependencies layered in as additional import search roots.
func runManifest() int {
	manifestPath, err := driver.FindManifest(".")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			printUsage()
			return 0
		}
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return 1
	}
	manifest, err := driver.LoadManifest(manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return 1
	}

	provider, err := driver.NewFileProvider()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return 1
	}
	if len(manifest.Dependencies) > 0 {
		cacheDir, err := driver.PonzHome()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			return 1
		}
		dirs, err := driver.VendorDependencies(cacheDir, manifest)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			return 1
		}
		for _, dir := range dirs {
			provider.VendorRoots = append(provider.VendorRoots, dir)
		}
	}

	src, err := os.ReadFile(manifest.EntryPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return 1
	}
	return execute(string(src), provider)
}

func runDeps(args []string) int {
	if len(args) == 0 || args[0] != "install" {
		fmt.Fprintln(os.Stderr, "ponzlang deps install")
		return 1
	}
	manifestPath, err := driver.FindManifest(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to locate package.yml: %s\n", err)
		return 1
	}
	manifest, err := driver.LoadManifest(manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return 1
	}
	cacheDir, err := driver.PonzHome()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return 1
	}
	dirs, err := driver.VendorDependencies(cacheDir, manifest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return 1
	}
	for name, dir := range dirs {
		fmt.Fprintf(os.Stdout, "vendored %s -> %s\n", name, dir)
	}
	fmt.Fprintln(os.Stdout, "Dependencies installed.")
	return 0
}

// execute runs Lexer→Parser→Evaluator against src, printing diagnostics to
// stderr per spec.md §6/§7.
func execute(src string, provider interpreter.SourceProvider) int {
	tokens, lexDiags := lexer.New(src).Scan()
	if len(lexDiags) > 0 {
		for _, d := range lexDiags {
			fmt.Fprintln(os.Stderr, d)
		}
		return 1
	}

	stmts, parseDiags := parser.New(tokens).Parse()
	if len(parseDiags) > 0 {
		for _, d := range parseDiags {
			fmt.Fprintln(os.Stderr, d)
		}
		return 1
	}

	eval := interpreter.New(provider)
	if err := eval.Run(stmts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	eval.Executor().Wait()
	return 0
}

func printUsage() {
	fmt.Fprintln(os.Stderr, strings.TrimSpace(`
Usage:
  ponzlang <script-path>
  ponzlang
  ponzlang deps install
`))
}
