// compose.go implements spec.md §4.5's action-composition primitives:
// SPECIALIZE, ADAPT, CHAIN, ENCLOSE, HIJACK, and LAMBDA, plus each
// composed kind's dispatch behavior (called from dispatch() in eval.go).
//
// Grounded on sentra/internal/vmregister's ClosureObj (wrap a Function
// plus captured Upvalues — "wrap one callable, add data") for Specialize/
// Adapt/Enclose/Chain, and on ClassObj.Parent (an identity field later
// code can repoint, so every existing reference sees the new target) for
// Hijack's in-place-mutate-the-identity semantics.
package eval

import (
	"github.com/wyrd-lang/wyrd/internal/bind"
	"github.com/wyrd-lang/wyrd/internal/cell"
	"github.com/wyrd-lang/wyrd/internal/ctx"
	"github.com/wyrd-lang/wyrd/internal/errs"
	"github.com/wyrd-lang/wyrd/internal/sym"
)

// Specialize builds a KindSpecialize action whose paramlist omits any
// param prefilled carries a non-none value for (spec.md §4.5: "the
// specialized action's paramlist is the underlying's minus the prefilled
// ones").
func Specialize(underlying *Action, prefilled *ctx.Context) *Action {
	out := &Action{Kind: KindSpecialize, Underlying: underlying, Prefilled: prefilled, Label: underlying.Label}
	out.Paramlist = ctx.New(cell.None())
	for i, p := range underlying.Params {
		if prefilled != nil {
			if idx := prefilled.IndexOf(p.Name); idx != 0 && prefilled.ValueAt(idx).Header.Heart != cell.HeartNone {
				continue
			}
		}
		out.Paramlist.Attach(p.Name, cell.None())
		out.Params = append(out.Params, underlying.Params[i])
	}
	return out
}

// Adapt builds a KindAdapt action: same paramlist as underlying, a
// prelude body that runs first against the built frame, then falls
// through to underlying (spec.md §4.5).
func Adapt(underlying *Action, prelude cell.Cell, preludeSpec *bind.Specifier) *Action {
	return &Action{
		Kind:       KindAdapt,
		Underlying: underlying,
		Body:       prelude,
		BodySpec:   preludeSpec,
		Paramlist:  underlying.Paramlist,
		Params:     underlying.Params,
		Label:      underlying.Label,
	}
}

// Chain builds a KindChain action: the first stage's paramlist is the
// whole pipeline's public paramlist; every later stage is called with a
// single argument, the prior stage's result (spec.md §4.5).
func Chain(pipeline []*Action) *Action {
	if len(pipeline) == 0 {
		return nil
	}
	first := pipeline[0]
	return &Action{
		Kind:       KindChain,
		Underlying: first,
		Pipeline:   pipeline,
		Paramlist: first.Paramlist,
		Params:    first.Params,
		Label:     first.Label,
	}
}

// Enclose builds a KindEnclose action: outer receives a small object
// exposing FRAME (the built frame as a context cell) and RUN (a nullary
// activation that invokes underlying against that frame), and outer's own
// return value is enclose's result (spec.md §4.5 — "outer runs first,
// decides whether/when to invoke the built frame").
func Enclose(underlying, outer *Action) *Action {
	return &Action{
		Kind:       KindEnclose,
		Underlying: underlying,
		Outer:      outer,
		Paramlist:  underlying.Paramlist,
		Params:     underlying.Params,
		Label:      underlying.Label,
	}
}

// Hijack repoints victim's dispatch at replacement in place, preserving
// victim's identity so every existing reference to it (including words
// already bound to it) observes the new behavior (spec.md §4.5). A copy
// of victim's pre-hijack state is returned so callers that want a
// still-working handle to the original behavior (spec.md §8's scenario 4)
// can keep calling it.
func Hijack(victim, replacement *Action) (preHijackCopy *Action) {
	original := *victim
	preHijackCopy = &original

	victim.Kind = replacement.Kind
	victim.Native = replacement.Native
	victim.Body = replacement.Body
	victim.BodySpec = replacement.BodySpec
	victim.Underlying = replacement.Underlying
	victim.Prefilled = replacement.Prefilled
	victim.Pipeline = replacement.Pipeline
	victim.Outer = replacement.Outer
	victim.TypecheckHeart = replacement.TypecheckHeart
	victim.TypecheckSet = replacement.TypecheckSet
	victim.Paramlist = replacement.Paramlist
	victim.Params = replacement.Params
	return preHijackCopy
}

// Lambda builds a minimal KindLambda action from a flat parameter-name
// list and an unevaluated body block — the quick one-liner constructor
// spec.md §4.5 contrasts with FUNCTION's full parameter-spec dialect.
// Every parameter is ClassNormal with an accept-all test.
func Lambda(syms *sym.Table, paramNames []*sym.Symbol, body cell.Cell, bodySpec *bind.Specifier) *Action {
	a := &Action{Kind: KindLambda, Body: body, BodySpec: bodySpec}
	a.Paramlist = ctx.New(cell.None())
	for _, name := range paramNames {
		a.Paramlist.Attach(name, cell.None())
		a.Params = append(a.Params, Param{Name: name, Class: ClassNormal})
	}
	return a
}

// dispatchSpecialize fills underlying's frame from the prefilled values
// and the caller-supplied ones in callFrame (keyed by matching param
// name, since specialize's own paramlist is a subset), then dispatches
// underlying.
func dispatchSpecialize(in *Interp, a *Action, callFrame *ctx.Context) (cell.Cell, error) {
	under := a.Underlying
	innerFrame := under.NewFrame()
	for i, p := range under.Params {
		slot := i + 1
		if a.Prefilled != nil {
			if idx := a.Prefilled.IndexOf(p.Name); idx != 0 {
				if v := a.Prefilled.ValueAt(idx); v.Header.Heart != cell.HeartNone {
					innerFrame.SetValueAt(slot, v)
					continue
				}
			}
		}
		if idx := callFrame.IndexOf(p.Name); idx != 0 {
			innerFrame.SetValueAt(slot, callFrame.ValueAt(idx))
		}
	}
	return dispatch(in, under, innerFrame)
}

// dispatchAdapt runs the prelude against callFrame (so its set-words can
// rewrite argument slots the caller filled in), then dispatches underlying
// against the same, possibly-modified, frame.
func dispatchAdapt(in *Interp, a *Action, callFrame *ctx.Context) (cell.Cell, error) {
	arr := bodyArray(a)
	if arr != nil {
		spec := frameSpec(a, callFrame)
		if _, err := EvalBlock(in, arr, spec); err != nil {
			return cell.None(), err
		}
	}
	return dispatch(in, a.Underlying, callFrame)
}

// dispatchChain runs the pipeline's first stage against callFrame, then
// threads the result through every later stage as its sole argument.
func dispatchChain(in *Interp, a *Action, callFrame *ctx.Context) (cell.Cell, error) {
	result, err := dispatch(in, a.Pipeline[0], callFrame)
	if err != nil {
		return cell.None(), err
	}
	for _, stage := range a.Pipeline[1:] {
		next := stage.NewFrame()
		if stage.ParamCount() > 0 {
			if err := next.SetValueAt(1, result); err != nil {
				return cell.None(), errs.ProtectedSeries()
			}
		}
		result, err = dispatch(in, stage, next)
		if err != nil {
			return cell.None(), err
		}
	}
	return result, nil
}

// dispatchEnclose calls outer with a single object argument exposing two
// keys: FRAME (the context built for underlying, as a context cell) and
// RUN (a nullary activation that, when invoked, dispatches underlying
// against that same frame and returns its result). This is a deliberately
// narrowed stand-in for full FRAME! apply semantics.
func dispatchEnclose(in *Interp, a *Action, callFrame *ctx.Context) (cell.Cell, error) {
	runNative := &Action{
		Kind: KindNative,
		Native: func(in *Interp, l *Level, args *ctx.Context) (cell.Cell, error) {
			return dispatch(in, a.Underlying, callFrame)
		},
	}
	runNative.Paramlist = ctx.New(cell.None())

	exposed := ctx.New(cell.None())
	exposed.Attach(nil, cell.None())
	exposed.Attach(nil, Activation(runNative))
	exposed.Keylist.Cells[0] = cell.Word(cell.HeartWord, enclosureSym("frame"))
	exposed.Keylist.Cells[1] = cell.Word(cell.HeartWord, enclosureSym("run"))
	exposed.SetValueAt(1, callFrame.AsCell())

	outerFrame := a.Outer.NewFrame()
	if a.Outer.ParamCount() > 0 {
		if err := outerFrame.SetValueAt(1, exposed.AsCell()); err != nil {
			return cell.None(), errs.ProtectedSeries()
		}
	}
	return dispatch(in, a.Outer, outerFrame)
}

// enclosureSym mints an uninterned *sym.Symbol for enclose's synthetic
// FRAME/RUN keys — they're only ever looked up positionally by
// dispatchEnclose itself, never by name from script, so table interning
// would only add contention for no benefit.
func enclosureSym(name string) *sym.Symbol {
	return sym.NewTable().Intern(name)
}

// dispatchHijack exists for completeness; in practice HIJACK mutates the
// victim's Kind in place (see Hijack above) so a level almost never
// dispatches on a still-KindHijack action. If one is reached (e.g. a
// hijack composed but never installed over anything), fall through to
// its replacement, stored in Underlying.
func dispatchHijack(in *Interp, a *Action, callFrame *ctx.Context) (cell.Cell, error) {
	if a.Underlying == nil {
		return cell.None(), errs.InternalPanic("eval: hijack action has no replacement")
	}
	return dispatch(in, a.Underlying, callFrame)
}

// dispatchTypechecker runs the single-argument ACTION! form a type-word
// or TYPECHECKER-built predicate compiles to (spec.md §4.5's
// TYPECHECKER), returning a logic cell.
func dispatchTypechecker(in *Interp, a *Action, callFrame *ctx.Context) (cell.Cell, error) {
	v := callFrame.ValueAt(1)
	return cell.Logic(checkerMatches(a, v)), nil
}
