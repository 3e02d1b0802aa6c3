// Package eval's eval.go is the per-expression evaluator: the piece that
// walks a Feed one expression at a time, dispatching self-evaluating
// values, word lookups (with the "fetching an action antiform invokes it"
// activation rule), set-words, groups, and handing sequences off to
// path.go. Action-call fulfillment (param walk, typecheck, dispatch,
// return-typecheck) runs as plain Go recursion with ordinary error
// returns rather than through a Level/Bounce trampoline — see DESIGN.md's
// "Level / Trampoline" entry for why the Run-loop/Bounce machinery spec.md
// §4.4 describes was removed rather than kept unwired.
//
// Grounded on sentra/internal/vm.go's main instruction-dispatch switch
// (fetch opcode, branch on it, recurse into a callee's own bytecode for a
// CALL op) — generalized from a flat opcode byte to spec.md's richer
// per-heart evaluation rules.
package eval

import (
	"github.com/wyrd-lang/wyrd/internal/bind"
	"github.com/wyrd-lang/wyrd/internal/cell"
	"github.com/wyrd-lang/wyrd/internal/ctx"
	"github.com/wyrd-lang/wyrd/internal/errs"
	"github.com/wyrd-lang/wyrd/internal/feed"
	"github.com/wyrd-lang/wyrd/internal/series"
	"github.com/wyrd-lang/wyrd/internal/sym"
)

// EvalBlock evaluates every expression of arr's array in sequence under
// spec, returning the last non-stale result (spec.md §4: a block's value
// is its last expression's value; invisibles contribute nothing).
func EvalBlock(in *Interp, arr *series.Series, spec *bind.Specifier) (cell.Cell, error) {
	f := feed.NewArray(arr, 0, spec)
	return evalFeedToEnd(in, nil, f)
}

func evalFeedToEnd(in *Interp, frame *ctx.Context, f *feed.Feed) (cell.Cell, error) {
	result := cell.None()
	for !f.AtEnd() {
		v, err := evalExpr(in, frame, f)
		if err != nil {
			return cell.None(), err
		}
		if v.IsStale() {
			continue
		}
		result = v
	}
	return result, nil
}

// EvalStep evaluates a single already-fetched cell as if it were the sole
// content of a one-element feed — the seam path.go uses to run a group
// path-head or group-in-path step, and that CHAIN's native uses to
// evaluate each pipeline element.
func EvalStep(in *Interp, l *Level, c cell.Cell) (cell.Cell, error) {
	var frame *ctx.Context
	var spec *bind.Specifier
	if l != nil {
		frame = l.Frame
	}
	switch c.Header.Heart {
	case cell.HeartGroup, cell.HeartBlock:
		arr, ok := c.ArrayValue().(*series.Series)
		if !ok {
			return cell.None(), errs.InternalPanic("eval: array cell missing concrete series")
		}
		if c.Header.Heart == cell.HeartBlock {
			return c, nil
		}
		f := feed.NewArray(arr, c.ArrayIndex(), spec)
		return evalFeedToEnd(in, frame, f)
	default:
		singleton := series.NewSingular(c)
		f := feed.NewArray(singleton, 0, spec)
		return evalExpr(in, frame, f)
	}
}

// evalExpr consumes exactly one expression's worth of cells from f
// (possibly more than one cell, for a word that turns out to name an
// action, or for a trailing chain of enfix operators) and returns its
// value.
//
// spec.md §4.4 "Enfix": an operator marked enfix defers fulfillment of its
// first argument, rolling the previous step's output into that slot. Here
// that means: compute the primary step's value, then keep consuming
// following enfix-bound words/paths, feeding each one the running value as
// its first argument, until the next cell in the feed isn't one.
func evalExpr(in *Interp, frame *ctx.Context, f *feed.Feed) (cell.Cell, error) {
	v, err := evalExprPrimary(in, frame, f)
	if err != nil {
		return cell.None(), err
	}
	for {
		a, calleeWord, ok := peekEnfix(in, frame, f)
		if !ok {
			return v, nil
		}
		f.Next() // consume the operator word/path now that we know to use it
		v, err = callActionLeft(in, frame, f, a, calleeWord, v)
		if err != nil {
			return cell.None(), err
		}
	}
}

// peekEnfix reports whether the next (not-yet-consumed) cell in f is a word
// that resolves to an enfix action, without consuming it. Deliberately
// restricted to plain words (not paths/tuples): path dispatch can have
// side effects (refinement words pushed onto the data stack, §4.3), so
// speculatively walking a path here and then re-walking it in
// evalExprPrimary if it turns out not to be enfix would double those
// effects.
func peekEnfix(in *Interp, frame *ctx.Context, f *feed.Feed) (*Action, cell.Cell, bool) {
	if f.AtEnd() {
		return nil, cell.Cell{}, false
	}
	c := f.Peek()
	if c.Header.Heart != cell.HeartWord {
		return nil, cell.Cell{}, false
	}
	v, err := resolveWord(in, frame, f.Spec, c, bind.ModeRead)
	if err != nil || !isActivation(v) {
		return nil, cell.Cell{}, false
	}
	a := actionFromActivation(v)
	if !a.Enfix {
		return nil, cell.Cell{}, false
	}
	return a, c, true
}

// evalExprPrimary is evalExpr's non-enfix-aware core: one complete
// self-contained step (a literal, a word fetch/call, a path, a set-word
// assignment, ...).
func evalExprPrimary(in *Interp, frame *ctx.Context, f *feed.Feed) (cell.Cell, error) {
	c := f.Next()

	switch c.Header.Heart {
	case cell.HeartEnd:
		return cell.None(), nil

	case cell.HeartWord:
		if isWordNamed(c, "let") {
			return evalLet(in, frame, f)
		}
		v, err := resolveWord(in, frame, f.Spec, c, bind.ModeRead)
		if err != nil {
			return cell.None(), err
		}
		if isActivation(v) {
			return callAction(in, frame, f, actionFromActivation(v), c)
		}
		return v, nil

	case cell.HeartGetWord:
		v, err := resolveWord(in, frame, f.Spec, c, bind.ModeRead)
		if err != nil {
			return cell.None(), err
		}
		if isActivation(v) {
			return v.Unquasi(), nil
		}
		return v, nil

	case cell.HeartLitWord:
		return cell.Word(cell.HeartWord, c.Symbol()), nil

	case cell.HeartSetWord:
		val, err := evalExpr(in, frame, f)
		if err != nil {
			return cell.None(), err
		}
		loc, err := in.Binder.Resolve(c, f.Spec, bind.ModeWrite, frame)
		if err != nil {
			return cell.None(), err
		}
		if err := loc.Set(val); err != nil {
			return cell.None(), errs.ProtectedSeries()
		}
		return val, nil

	case cell.HeartGroup:
		arr, ok := c.ArrayValue().(*series.Series)
		if !ok {
			return cell.None(), errs.InternalPanic("eval: group missing concrete series")
		}
		sub := feed.NewArray(arr, c.ArrayIndex(), f.Spec)
		return evalFeedToEnd(in, frame, sub)

	case cell.HeartPath, cell.HeartTuple:
		v, err := EvalPath(in, pseudoLevel(frame), c, nil)
		if err != nil {
			return cell.None(), err
		}
		if isActivation(v) {
			return callAction(in, frame, f, actionFromActivation(v), c)
		}
		return v, nil

	case cell.HeartSetPath:
		val, err := evalExpr(in, frame, f)
		if err != nil {
			return cell.None(), err
		}
		if _, err := EvalPath(in, pseudoLevel(frame), c, &val); err != nil {
			return cell.None(), err
		}
		return val, nil

	case cell.HeartGetPath:
		getLevel := pseudoLevel(frame)
		getLevel.Flags |= LevelFlagNoGroups
		v, err := EvalPath(in, getLevel, c, nil)
		if err != nil {
			return cell.None(), err
		}
		if isActivation(v) {
			return v.Unquasi(), nil
		}
		return v, nil

	case cell.HeartAction:
		return callAction(in, frame, f, ActionOf(c), cell.None())
	}

	// Every other heart is self-evaluating (spec.md §4: inert types
	// produce themselves).
	return c, nil
}

func pseudoLevel(frame *ctx.Context) *Level { return &Level{Frame: frame} }

// resolveWord resolves w and loads its current value. It does not write a
// cached Location back into w (bind.CacheIfOwning exists for that and is
// not called from here); every call re-walks the chain, which this
// evaluator's call volumes don't need to avoid.
func resolveWord(in *Interp, frame *ctx.Context, spec *bind.Specifier, w cell.Cell, mode bind.Mode) (cell.Cell, error) {
	loc, err := in.Binder.Resolve(w, spec, mode, frame)
	if err != nil {
		return cell.None(), err
	}
	if !loc.Valid() {
		return cell.None(), nil
	}
	return loc.Get(), nil
}

// isActivation reports whether v is an action stored in its "activation"
// antiform shape — the one that a plain WORD!/PATH! fetch invokes rather
// than hands back inert (spec.md §3.1/§4: fetching an antiform action
// through a plain word is the dispatch trigger).
func isActivation(v cell.Cell) bool {
	return v.Header.Heart == cell.HeartAction && v.Header.Quote.IsAnti()
}

func actionFromActivation(v cell.Cell) *Action {
	return ActionOf(v.Unquasi())
}

// Activation wraps a plain action cell into its antiform ("activation")
// form, the shape a variable holding a callable must use for plain-word
// fetch to trigger a call (spec.md §3.1 invariant 2).
func Activation(a *Action) cell.Cell {
	return a.Archetype().Quasi().Antiform()
}

// callAction runs the full action-call fulfillment protocol (spec.md
// §4.4): build a frame, walk declared params pulling argument cells from
// f per their ParamClass/flags (consuming any refinement words the path
// dispatcher pushed onto the data stack along the way), typecheck each
// filled slot, dispatch, and typecheck the return value.
func callAction(in *Interp, frame *ctx.Context, f *feed.Feed, a *Action, calleeWord cell.Cell) (cell.Cell, error) {
	return callActionImpl(in, frame, f, a, calleeWord, nil)
}

// callActionLeft calls an enfix action a, deferring its first (non-return)
// parameter's fulfillment to the already-evaluated left value rather than
// pulling it from f (spec.md §4.4 "Enfix": "the evaluator rolls the
// previous step's output into the operator's first arg slot").
func callActionLeft(in *Interp, frame *ctx.Context, f *feed.Feed, a *Action, calleeWord cell.Cell, left cell.Cell) (cell.Cell, error) {
	return callActionImpl(in, frame, f, a, calleeWord, &left)
}

func callActionImpl(in *Interp, frame *ctx.Context, f *feed.Feed, a *Action, calleeWord cell.Cell, left *cell.Cell) (cell.Cell, error) {
	if a == nil {
		return cell.None(), errs.InternalPanic("eval: call of nil action")
	}

	callFrame := a.NewFrame()

	// Refinements accumulate on the data stack before this call, pushed by
	// path dispatch (see dispatchStep in path.go); refinementSupplied below
	// consumes them by name as each ClassRefinement param is reached.
	active := true // with no leading refinement param, every normal/skippable param is active
	leftConsumed := false

	for i, p := range a.Params {
		slot := i + 1
		if p.Name != nil && p.Name.ID() != -1 && p.Name.Name() == "return" {
			continue
		}

		if left != nil && !leftConsumed && p.Class != ClassRefinement {
			leftConsumed = true
			if err := checkAndSet(in, a, callFrame, slot, p, *left); err != nil {
				return cell.None(), err
			}
			continue
		}

		switch p.Class {
		case ClassRefinement:
			supplied := refinementSupplied(in, p)
			active = supplied
			if err := callFrame.SetValueAt(slot, cell.Logic(supplied)); err != nil {
				return cell.None(), errs.ProtectedSeries()
			}
			continue

		case ClassHardQuoted:
			if !active {
				continue
			}
			if f.AtEnd() {
				if p.Is(FlagEndable) {
					continue
				}
				return cell.None(), errs.NoArg(paramName(p))
			}
			raw := f.Next()
			if err := checkAndSet(in, a, callFrame, slot, p, raw); err != nil {
				return cell.None(), err
			}

		case ClassSoftQuoted:
			if !active {
				continue
			}
			if f.AtEnd() {
				if p.Is(FlagEndable) {
					continue
				}
				return cell.None(), errs.NoArg(paramName(p))
			}
			raw := f.Peek()
			var val cell.Cell
			var err error
			if raw.Header.Heart == cell.HeartGroup {
				f.Next()
				arr, _ := raw.ArrayValue().(*series.Series)
				sub := feed.NewArray(arr, raw.ArrayIndex(), f.Spec)
				val, err = evalFeedToEnd(in, frame, sub)
			} else {
				val = f.Next()
			}
			if err != nil {
				return cell.None(), err
			}
			if err := checkAndSet(in, a, callFrame, slot, p, val); err != nil {
				return cell.None(), err
			}

		case ClassMeta:
			if !active {
				continue
			}
			if f.AtEnd() {
				if p.Is(FlagEndable) {
					continue
				}
				return cell.None(), errs.NoArg(paramName(p))
			}
			val, err := evalExpr(in, frame, f)
			if err != nil {
				return cell.None(), err
			}
			if val.Header.Quote.IsPlain() {
				val = val.Quote()
			}
			if err := checkAndSet(in, a, callFrame, slot, p, val); err != nil {
				return cell.None(), err
			}

		default: // ClassNormal
			if !active {
				continue
			}
			if f.AtEnd() {
				if p.Is(FlagEndable) {
					continue
				}
				return cell.None(), errs.NoArg(paramName(p))
			}
			// An enfix call's remaining arguments each take one primary
			// step, so a trailing operator is folded in by evalExpr's loop
			// afterward (1 + 2 * 3 is (1 + 2) * 3).
			var val cell.Cell
			var err error
			if left != nil {
				val, err = evalExprPrimary(in, frame, f)
			} else {
				val, err = evalExpr(in, frame, f)
			}
			if err != nil {
				return cell.None(), err
			}
			if err := checkAndSet(in, a, callFrame, slot, p, val); err != nil {
				return cell.None(), err
			}
		}
	}

	// Pushed/popped purely for FRAME!/level-stack introspection (spec.md
	// §9, internal/introspect): control flow itself (including throw
	// unwind, via *errs.Thrown propagated as an ordinary Go error) runs on
	// Go's own call stack. See DESIGN.md's "Level / Trampoline" entry for
	// why a Bounce-returning executor loop was removed rather than kept as
	// unwired machinery alongside this.
	callLevel := &Level{Frame: callFrame, Label: a.Label, Callee: a, NextArgFromOut: left != nil}
	in.PushLevel(callLevel)
	out, err := dispatch(in, a, callFrame)
	in.PopLevel()
	if err != nil {
		return cell.None(), err
	}

	if rp, ok := a.ReturnParam(); ok {
		if !typeOk(rp, out) && !(rp.Is(FlagVanishable) && out.IsStale()) {
			return cell.None(), errs.TypeMismatch("return", "declared return type")
		}
	}
	return out, nil
}

func paramName(p Param) string {
	if p.Name == nil {
		return "?"
	}
	return p.Name.Name()
}

// refinementSupplied looks for p's name among the refinement words pending
// on the data stack (pushed by a preceding PATH! step) and consumes it if
// present.
func refinementSupplied(in *Interp, p Param) bool {
	for i := len(in.DataStack) - 1; i >= 0; i-- {
		c := in.DataStack[i]
		if s, ok := c.Symbol().(interface{ Name() string }); ok && p.Name != nil && s.Name() == p.Name.Name() {
			in.DataStack = append(in.DataStack[:i], in.DataStack[i+1:]...)
			return true
		}
	}
	return false
}

func checkAndSet(in *Interp, a *Action, frame *ctx.Context, slot int, p Param, v cell.Cell) error {
	if !typeOk(p, v) {
		return errs.TypeMismatch(paramName(p), "declared type")
	}
	if err := frame.SetValueAt(slot, v); err != nil {
		return errs.ProtectedSeries()
	}
	return nil
}

// dispatch runs a's body against callFrame per its Kind, recursing through
// the composition dispatchers in compose.go for every non-native kind.
func dispatch(in *Interp, a *Action, callFrame *ctx.Context) (cell.Cell, error) {
	switch a.Kind {
	case KindNative:
		return a.Native(in, &Level{Frame: callFrame}, callFrame)
	case KindUserFunc, KindLambda:
		return EvalBlock(in, bodyArray(a), frameSpec(a, callFrame))
	case KindSpecialize:
		return dispatchSpecialize(in, a, callFrame)
	case KindAdapt:
		return dispatchAdapt(in, a, callFrame)
	case KindChain:
		return dispatchChain(in, a, callFrame)
	case KindEnclose:
		return dispatchEnclose(in, a, callFrame)
	case KindHijack:
		return dispatchHijack(in, a, callFrame)
	case KindTypechecker:
		return dispatchTypechecker(in, a, callFrame)
	}
	return cell.None(), errs.InternalPanic("eval: unknown action kind")
}

func bodyArray(a *Action) *series.Series {
	arr, _ := a.Body.ArrayValue().(*series.Series)
	return arr
}

func frameSpec(a *Action, callFrame *ctx.Context) *bind.Specifier {
	tail := bind.NewFrameTail(callFrame)
	return bind.Merge(a.BodySpec, tail)
}

func isWordNamed(c cell.Cell, name string) bool {
	if c.Header.Heart != cell.HeartWord {
		return false
	}
	s, ok := c.Symbol().(interface{ Name() string })
	return ok && s.Name() == name
}

// evalLet implements spec.md's LET: it must extend the *live* feed's
// specifier chain so every later expression fetched from the same feed
// can see the new binding, which is why it lives here rather than as an
// ordinary NativeFn — a native only ever sees the call frame it was
// given, never the calling feed. Grounded on spec.md §8 scenario 1 ("let
// x: 10, x + 5 → 15, with x unresolvable after the enclosing block
// ends"): the patch this prepends onto f.Spec does not outlive f.
func evalLet(in *Interp, frame *ctx.Context, f *feed.Feed) (cell.Cell, error) {
	target := f.Next()
	nameSym, ok := wordSymbol(target)
	if !ok {
		return cell.None(), errs.New(errs.Script, "bad-let", "let requires a word or set-word target")
	}
	val, err := evalExpr(in, frame, f)
	if err != nil {
		return cell.None(), err
	}
	patch := bind.NewLetPatch(nameSym, val, f.Spec)
	f.Spec = patch
	return val, nil
}

func wordSymbol(c cell.Cell) (*sym.Symbol, bool) {
	switch c.Header.Heart {
	case cell.HeartWord, cell.HeartSetWord, cell.HeartGetWord, cell.HeartLitWord:
		s, ok := c.Symbol().(*sym.Symbol)
		return s, ok
	default:
		return nil, false
	}
}
