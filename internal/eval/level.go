package eval

import (
	"github.com/wyrd-lang/wyrd/internal/bind"
	"github.com/wyrd-lang/wyrd/internal/cell"
	"github.com/wyrd-lang/wyrd/internal/ctx"
	"github.com/wyrd-lang/wyrd/internal/errs"
	"github.com/wyrd-lang/wyrd/internal/feed"
	"github.com/wyrd-lang/wyrd/internal/sym"
)

// Level is one pushed activation record (spec.md §4.4). Control flow itself
// does not run through Level at all — callActionImpl/dispatch (eval.go,
// compose.go) recurse on Go's own call stack, and THROW/CATCH propagate as
// an ordinary *errs.Thrown error value. A Level exists purely so the live
// call chain is introspectable (spec.md §9, internal/introspect: FRAME!
// inspection walks Interp.Levels()) — see DESIGN.md's "Level / Trampoline"
// entry for why a Bounce-returning executor loop was removed rather than
// kept unwired alongside this.
type Level struct {
	Feed  *feed.Feed
	Flags LevelFlags
	State int // sub-phase, for introspection only
	Label *sym.Symbol
	Frame *ctx.Context // associated varlist, if any (action calls)
	Prior *Level

	NextArgFromOut bool // enfix: next arg comes from the prior step's output

	Callee *Action
}

type LevelFlags uint16

const (
	LevelFlagNoGroups LevelFlags = 1 << iota // path evaluation under GET: don't run groups
)

// Interp is the explicit, passed-everywhere interpreter handle spec.md §9
// calls for in place of hidden singletons: symbol table, binder, root
// modules, the data stack (refinement accumulation, spec.md §4.3), the
// level stack, and the current throw state all live here, and one process
// may host many of these independently (spec.md §5).
type Interp struct {
	Syms   *sym.Table
	Binder *bind.Binder

	System *ctx.Context // protected root module
	Lib    *ctx.Context // library module consulted on read-miss

	DataStack []cell.Cell // refinement accumulation stack (spec.md §4.3)
	levels    []*Level

	Thrown *errs.Thrown

	// dataStackBaseline is a slot for data-stack balance diagnostics
	// (spec.md §5 "resource discipline"). No code records depths into it
	// or compares against it, so data-stack balance across a call is not
	// checked.
	dataStackBaseline []int
}

func NewInterp() *Interp {
	syms := sym.NewTable()
	sys := ctx.NewModule(cell.None(), true)
	lib := ctx.NewModule(cell.None(), false)
	binder := bind.New()
	binder.Library = lib
	binder.Global = lib
	return &Interp{Syms: syms, Binder: binder, System: sys, Lib: lib}
}

func (in *Interp) PushLevel(l *Level) { in.levels = append(in.levels, l) }

func (in *Interp) PopLevel() *Level {
	n := len(in.levels)
	if n == 0 {
		return nil
	}
	l := in.levels[n-1]
	in.levels = in.levels[:n-1]
	return l
}

func (in *Interp) TopLevel() *Level {
	if len(in.levels) == 0 {
		return nil
	}
	return in.levels[len(in.levels)-1]
}

// Levels returns a snapshot of the live level stack, bottom first — used by
// internal/introspect and FRAME! inspection. Callers must not mutate it.
func (in *Interp) Levels() []*Level { return in.levels }

// PushData pushes v onto the data stack (spec.md §4.3 refinement
// accumulation; also used generically by composition/path code).
func (in *Interp) PushData(v cell.Cell) { in.DataStack = append(in.DataStack, v) }

func (in *Interp) PopData() cell.Cell {
	n := len(in.DataStack)
	v := in.DataStack[n-1]
	in.DataStack = in.DataStack[:n-1]
	return v
}

func (in *Interp) DataDepth() int { return len(in.DataStack) }

// MarkDataStack/CutDataStackTo bracket a call's refinement accumulation so
// "data-stack depth returns to the pre-call value" (spec.md §8) is
// mechanically checkable.
func (in *Interp) MarkDataStack() int { return len(in.DataStack) }

func (in *Interp) CutDataStackTo(mark int) []cell.Cell {
	cut := append([]cell.Cell(nil), in.DataStack[mark:]...)
	in.DataStack = in.DataStack[:mark]
	return cut
}
