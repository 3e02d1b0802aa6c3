package main

import (
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

// TestMain lets testscript re-exec this binary as the `wyrd` command inside
// each script, the same "compiled-helper-as-subcommand" trick sentra's own
// CLI tests would need if they drove cmd/sentra end to end instead of
// calling package functions directly.
func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"wyrd": func() int {
			main()
			return 0
		},
	}))
}

// TestScripts runs the scenario demos from spec.md §8 (LET, SPECIALIZE,
// HIJACK with the pre-hijack copy staying independently callable, and
// THROW/CATCH) through the CLI's -demo flag, so main.go's flag parsing and
// demo dispatch run end to end and each script checks the printed result.
func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
	})
}
