package interpreter

import "os"

// stderrWriter is where the evaluator writes its one-line diagnostics,
// per spec.md §6 ("Diagnostics... written to the diagnostic channel
// (stderr)"). Kept as a variable, not a bare os.Stderr reference, so
// tests can redirect it.
var stderrWriter = os.Stderr
