// Package eval implements spec.md §4.4/§4.5/§4.3/§4.6: the Level, the
// action-call fulfillment sub-protocol, path dispatch, the
// action-composition primitives, and the type-checking protocol. These are
// kept in one package deliberately: they are mutually recursive (dispatch
// delegates into sublevel calls, composition dispatchers delegate into
// their underlying action, path groups evaluate inline, type-checking may
// invoke an action as a predicate) the same way Ren-C's own C core keeps
// them in one evaluator translation unit rather than separate modules. All
// of this delegation runs as plain Go recursion on Go's own call stack,
// not through a Bounce-returning trampoline — see DESIGN.md's "Level /
// Trampoline" entry.
package eval

import (
	"github.com/wyrd-lang/wyrd/internal/bind"
	"github.com/wyrd-lang/wyrd/internal/cell"
	"github.com/wyrd-lang/wyrd/internal/ctx"
	"github.com/wyrd-lang/wyrd/internal/sym"
)

// ParamClass is a parameter's evaluation-taking rule (spec.md §4.4 step 2).
type ParamClass uint8

const (
	ClassNormal ParamClass = iota
	ClassMeta
	ClassHardQuoted
	ClassSoftQuoted
	ClassRefinement
)

// ParamFlags are per-parameter flag bits (spec.md §3.5).
type ParamFlags uint16

const (
	FlagRefinement ParamFlags = 1 << iota
	FlagSkippable
	FlagEndable
	FlagConst
	FlagVanishable
)

// Param describes one formal parameter, including the RETURN pseudo-param.
type Param struct {
	Name  *sym.Symbol
	Class ParamClass
	Flags ParamFlags
	Test  cell.Cell // HeartBlock cell: the raw test-block (possibly empty == accept all)
}

func (p Param) Is(f ParamFlags) bool { return p.Flags&f != 0 }

// Kind distinguishes an action's composition family — which of the details
// fields below are meaningful (spec.md §4.5's table).
type Kind uint8

const (
	KindNative Kind = iota
	KindUserFunc
	KindSpecialize
	KindAdapt
	KindChain
	KindEnclose
	KindHijack
	KindLambda
	KindTypechecker
)

// NativeFn is a Go-implemented action body that runs to completion
// synchronously and returns a value or an error (raised or thrown).
// Natives that need to run a block as a sub-evaluation (IF's branch,
// FOR-EACH's body, ...) just call evalBranch (evalFeedToEnd) and recurse
// on the Go call stack; KindUserFunc/KindLambda actions with a Body block
// are the non-native case, dispatched the same recursive way from
// callActionImpl.
type NativeFn func(in *Interp, l *Level, args *ctx.Context) (cell.Cell, error)

// Action is spec.md §3.5's composed callable: a details array worth of
// per-kind data, a paramlist describing the call frame, and a dispatcher.
//
// Grounded on vmregister.ClosureObj (Function + captured Upvalues — "wrap
// one callable, add data") for the wrap-and-delegate kinds, and on
// vmregister.ClassObj.Parent (an identity field that HIJACK-style mutation
// rewrites in place) for Hijack.
type Action struct {
	Kind  Kind
	Label *sym.Symbol
	Enfix bool // spec.md §4.4 "Enfix": first argument is deferred from the prior step's output

	Paramlist *ctx.Context // keys = param names (in call order) + RETURN
	Params    []Param      // index-aligned with Paramlist's keyed slots

	Native NativeFn // KindNative

	Body     cell.Cell       // KindUserFunc/KindLambda/KindAdapt(prelude): HeartBlock cell
	BodySpec *bind.Specifier // virtual-binding specifier the body evaluates under

	Underlying *Action   // KindSpecialize/KindAdapt/KindEnclose/KindChain[0]: the wrapped action
	Prefilled  *ctx.Context // KindSpecialize: pre-filled frame (nil slots == "ask caller")
	Pipeline   []*Action // KindChain: the pipeline, in order
	Outer      *Action   // KindEnclose: the outer function given the built-but-unrun frame

	TypecheckHeart cell.HeartByte // KindTypechecker, type-word form
	TypecheckSet   map[cell.HeartByte]bool // KindTypechecker, typeset form (nil == type-word form)

	Adjunct *ctx.Context // optional meta/help object
}

// Archetype returns a cell referencing this action as a value.
func (a *Action) Archetype() cell.Cell {
	c := cell.Cell{Header: cell.Header{Heart: cell.HeartAction}}
	c.First.Obj = a
	c.Extra = a
	return c
}

func ActionOf(c cell.Cell) *Action {
	a, _ := c.First.Obj.(*Action)
	return a
}

// IsBaseOf implements bind.ActionIdentity: a is base-of other if walking
// other's Underlying chain reaches a (or other == a). This is what makes a
// relative word binding valid across SPECIALIZE/ADAPT/CHAIN/ENCLOSE layers
// (spec.md §4.1 step 2).
func (a *Action) IsBaseOf(other bind.ActionIdentity) bool {
	o, ok := other.(*Action)
	if !ok {
		return false
	}
	for cur := o; cur != nil; cur = cur.Underlying {
		if cur == a {
			return true
		}
	}
	return false
}

// ParamCount returns the number of formal parameters (excluding RETURN,
// which callers access via ReturnParam).
func (a *Action) ParamCount() int { return len(a.Params) }

// ReturnParam returns the RETURN pseudo-parameter if this action's
// paramlist declares one.
func (a *Action) ReturnParam() (Param, bool) {
	for _, p := range a.Params {
		if p.Name != nil && p.Name.ID() == sym.ReturnID {
			return p, true
		}
	}
	return Param{}, false
}

// NewFrame builds a fresh varlist-bearing context shaped like a.Paramlist,
// every slot initialized to none — the "build the callee's frame varlist"
// step of fulfillment (spec.md §4.4 step 1).
func (a *Action) NewFrame() *ctx.Context {
	self := a.Archetype()
	self.Extra = a
	frame := ctx.New(self)
	for i := 1; i <= a.Paramlist.Len(); i++ {
		frame.Attach(a.Paramlist.KeyAt(i), cell.None())
	}
	frame.Varlist.Cells[0].Extra = a
	return frame
}
