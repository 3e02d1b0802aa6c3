// Command wyrd is the interpreter's REPL/batch-run shell.
//
// The textual scanner/loader that would turn typed-in source into cells
// is explicitly out of scope for this module (spec.md §1 lists "the
// PARSE sublanguage" and "boot-image generation and symbol-table build
// tooling" as external collaborators, and no [MODULE] in spec.md
// describes a tokenizer). What this command does implement, in the
// teacher's shape (cmd/sentra/main.go + internal/repl/repl.go), is the
// ambient CLI shell around the evaluator: flag parsing, an isatty-aware
// prompt, and a fixed set of example programs built directly against the
// host API (internal/host) and run through the real evaluator/binder/
// action-composition stack, so `wyrd -demo specialize` exercises the same
// code path a future real parser's output would.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/wyrd-lang/wyrd/internal/cell"
	"github.com/wyrd-lang/wyrd/internal/host"
	"github.com/wyrd-lang/wyrd/internal/introspect"
)

func main() {
	demo := flag.String("demo", "", "run a built-in example program (let, specialize, hijack, throw-catch) and print its result")
	verbose := flag.Bool("v", false, "dump the interpreter's level stack after running a demo")
	flag.Parse()

	sess := host.NewSession()

	if *demo != "" {
		runDemo(sess, *demo)
		if *verbose {
			snap := introspect.FromInterp(sess.Interp)()
			fmt.Println(introspect.DumpSnapshot(snap))
		}
		return
	}

	repl(sess)
}

func repl(sess *host.Session) {
	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("wyrd (no text reader wired yet — type a demo name: let, specialize, hijack, throw-catch; 'quit' to exit)")
	for {
		if interactive {
			fmt.Print(">> ")
		}
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		if line == "quit" || line == "" {
			if line == "quit" {
				return
			}
			continue
		}
		runDemo(sess, line)
	}
}

func runDemo(sess *host.Session, name string) {
	prog, ok := demos[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown demo %q (have: let, specialize, hijack, throw-catch)\n", name)
		return
	}
	result, err := prog(sess)
	if err != nil {
		fmt.Fprintf(os.Stderr, "** error: %v\n", err)
		return
	}
	fmt.Println(formatCell(result))
}

func formatCell(c cell.Cell) string {
	switch c.Header.Heart {
	case cell.HeartInteger:
		return fmt.Sprintf("%d", c.AsInteger())
	case cell.HeartDecimal:
		return fmt.Sprintf("%g", c.AsDecimal())
	case cell.HeartString:
		return c.AsString()
	case cell.HeartLogic:
		return fmt.Sprintf("%v", c.AsLogic())
	case cell.HeartNone:
		return "none"
	default:
		return fmt.Sprintf("<%s>", c.Header.Heart)
	}
}
