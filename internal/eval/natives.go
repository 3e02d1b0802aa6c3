// natives.go registers the fixed set of Go-implemented primitives every
// wyrd interpreter boots with: arithmetic, comparison, the composition
// primitives (SPECIALIZE/ADAPT/CHAIN/ENCLOSE/HIJACK/LAMBDA), THROW/CATCH,
// and the type-predicate words every TYPECHECKER-built test block can
// reference by name.
//
// Grounded on sentra's internal/stdlib package (one Go function per
// builtin, registered into a name->callable map at VM construction) —
// generalized from sentra's flat map into spec.md's Action/paramlist
// shape so builtins are genuinely first-class (SPECIALIZE/ADAPT/HIJACK
// work on them exactly like user-defined actions).
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

// RegisterNatives attaches every builtin action into lib, keyed by the
// word it activates under, and returns the type-predicate table (the
// TypecheckHeart-bearing actions registered as integer?/block?/etc., keyed
// by those names) so callers building param test blocks can reference them
// directly.
func RegisterNatives(syms *sym.Table, lib *ctx.Context) map[string]*Action {
	types := registerTypeWords(syms, lib)
	registerArithmetic(syms, lib)
	registerComparison(syms, lib)
	registerControl(syms, lib)
	registerComposition(syms, lib)
	registerObjects(syms, lib)
	registerIteration(syms, lib)
	return types
}

func def(syms *sym.Table, lib *ctx.Context, name string, params []Param, fn NativeFn) *Action {
	a := &Action{Kind: KindNative, Label: syms.Intern(name), Native: fn}
	a.Paramlist = ctx.New(cell.None())
	for _, p := range params {
		a.Paramlist.Attach(p.Name, cell.None())
	}
	a.Params = params
	lib.Attach(syms.Intern(name), Activation(a))
	return a
}

func numParam(syms *sym.Table, name string) Param {
	return Param{Name: syms.Intern(name), Class: ClassNormal}
}

func registerTypeWords(syms *sym.Table, lib *ctx.Context) map[string]*Action {
	pairs := []struct {
		name  string
		heart cell.HeartByte
	}{
		{"none?", cell.HeartNone}, {"logic?", cell.HeartLogic},
		{"integer?", cell.HeartInteger}, {"decimal?", cell.HeartDecimal},
		{"word?", cell.HeartWord}, {"set-word?", cell.HeartSetWord},
		{"get-word?", cell.HeartGetWord}, {"lit-word?", cell.HeartLitWord},
		{"string?", cell.HeartString}, {"block?", cell.HeartBlock},
		{"group?", cell.HeartGroup}, {"path?", cell.HeartPath},
		{"tuple?", cell.HeartTuple}, {"action?", cell.HeartAction},
		{"object?", cell.HeartContext}, {"tag?", cell.HeartTag},
	}
	out := make(map[string]*Action, len(pairs))
	for _, p := range pairs {
		heart := p.heart
		a := def(syms, lib, p.name, []Param{{Name: syms.Intern("value"), Class: ClassNormal}},
			func(in *Interp, l *Level, args *ctx.Context) (cell.Cell, error) {
				return cell.Logic(args.ValueAt(1).Header.Heart == heart), nil
			})
		a.Kind = KindTypechecker
		a.TypecheckHeart = heart
		out[p.name] = a
	}
	return out
}

func registerArithmetic(syms *sym.Table, lib *ctx.Context) {
	bin := func(name string, intOp func(a, b int64) (int64, error), decOp func(a, b float64) float64) {
		def(syms, lib, name, []Param{numParam(syms, "a"), numParam(syms, "b")},
			func(in *Interp, l *Level, args *ctx.Context) (cell.Cell, error) {
				a, b := args.ValueAt(1), args.ValueAt(2)
				if !isNumber(a) {
					return cell.None(), errs.TypeMismatch("a", "integer! decimal!")
				}
				if !isNumber(b) {
					return cell.None(), errs.TypeMismatch("b", "integer! decimal!")
				}
				if a.Header.Heart == cell.HeartDecimal || b.Header.Heart == cell.HeartDecimal {
					return cell.Decimal(decOp(asFloat(a), asFloat(b))), nil
				}
				r, err := intOp(a.AsInteger(), b.AsInteger())
				if err != nil {
					return cell.None(), err
				}
				return cell.Integer(r), nil
			})
	}
	bin("add", func(a, b int64) (int64, error) { return a + b, nil }, func(a, b float64) float64 { return a + b })
	bin("subtract", func(a, b int64) (int64, error) { return a - b, nil }, func(a, b float64) float64 { return a - b })
	bin("multiply", func(a, b int64) (int64, error) { return a * b, nil }, func(a, b float64) float64 { return a * b })
	bin("divide", func(a, b int64) (int64, error) {
		if b == 0 {
			return 0, errs.ZeroDivide()
		}
		return a / b, nil
	}, func(a, b float64) float64 { return a / b })

	// Infix aliases (spec.md §4.4 "Enfix"): same dispatchers as the prefix
	// forms above, just marked Enfix so `1 + 2` rolls 1 into the first
	// argument slot instead of `+` being fulfilled as a prefix call.
	enfixAlias(syms, lib, "+", "add")
	enfixAlias(syms, lib, "-", "subtract")
	enfixAlias(syms, lib, "*", "multiply")
	enfixAlias(syms, lib, "/", "divide")
}

// enfixAlias looks up an already-registered prefix action under prefixName
// and attaches a second, enfix-marked Action under infixName that shares
// its paramlist/params/dispatcher (the same fulfillment and dispatch code,
// just reachable under a name that evalExpr's enfix loop will treat as
// infix instead of pulling its first argument from the feed).
func enfixAlias(syms *sym.Table, lib *ctx.Context, infixName, prefixName string) {
	idx := lib.IndexOf(syms.Intern(prefixName))
	under := ActionOf(lib.ValueAt(idx).Unquasi())
	infix := &Action{
		Kind:      under.Kind,
		Label:     syms.Intern(infixName),
		Enfix:     true,
		Paramlist: under.Paramlist,
		Params:    under.Params,
		Native:    under.Native,
	}
	lib.Attach(syms.Intern(infixName), Activation(infix))
}

func isNumber(c cell.Cell) bool {
	return c.Header.Heart == cell.HeartInteger || c.Header.Heart == cell.HeartDecimal
}

func asFloat(c cell.Cell) float64 {
	if c.Header.Heart == cell.HeartDecimal {
		return c.AsDecimal()
	}
	return float64(c.AsInteger())
}

func registerComparison(syms *sym.Table, lib *ctx.Context) {
	def(syms, lib, "equal?", []Param{numParam(syms, "a"), numParam(syms, "b")},
		func(in *Interp, l *Level, args *ctx.Context) (cell.Cell, error) {
			return cell.Logic(cellsEqual(args.ValueAt(1), args.ValueAt(2))), nil
		})
	def(syms, lib, "lesser?", []Param{numParam(syms, "a"), numParam(syms, "b")},
		func(in *Interp, l *Level, args *ctx.Context) (cell.Cell, error) {
			return cell.Logic(asFloat(args.ValueAt(1)) < asFloat(args.ValueAt(2))), nil
		})

	enfixAlias(syms, lib, "=", "equal?")
	enfixAlias(syms, lib, "<", "lesser?")
}

func cellsEqual(a, b cell.Cell) bool {
	if a.Header.Heart != b.Header.Heart {
		return false
	}
	switch a.Header.Heart {
	case cell.HeartInteger:
		return a.AsInteger() == b.AsInteger()
	case cell.HeartDecimal:
		return a.AsDecimal() == b.AsDecimal()
	case cell.HeartString:
		return a.AsString() == b.AsString()
	case cell.HeartLogic:
		return a.AsLogic() == b.AsLogic()
	case cell.HeartNone:
		return true
	case cell.HeartWord, cell.HeartSetWord, cell.HeartGetWord, cell.HeartLitWord:
		return a.Symbol() == b.Symbol()
	default:
		return false
	}
}

func registerControl(syms *sym.Table, lib *ctx.Context) {
	def(syms, lib, "if", []Param{
		{Name: syms.Intern("cond"), Class: ClassNormal},
		{Name: syms.Intern("branch"), Class: ClassHardQuoted},
	}, func(in *Interp, l *Level, args *ctx.Context) (cell.Cell, error) {
		if !args.ValueAt(1).AsLogic() {
			return cell.None().Stale(), nil
		}
		return evalBranch(in, args.ValueAt(2))
	})

	def(syms, lib, "either", []Param{
		{Name: syms.Intern("cond"), Class: ClassNormal},
		{Name: syms.Intern("true-branch"), Class: ClassHardQuoted},
		{Name: syms.Intern("false-branch"), Class: ClassHardQuoted},
	}, func(in *Interp, l *Level, args *ctx.Context) (cell.Cell, error) {
		if args.ValueAt(1).AsLogic() {
			return evalBranch(in, args.ValueAt(2))
		}
		return evalBranch(in, args.ValueAt(3))
	})

	def(syms, lib, "throw", []Param{
		{Name: syms.Intern("name"), Class: ClassNormal},
		{Name: syms.Intern("value"), Class: ClassNormal},
	}, func(in *Interp, l *Level, args *ctx.Context) (cell.Cell, error) {
		return cell.None(), &errs.Thrown{Label: cellIdentity(args.ValueAt(1)), Value: args.ValueAt(2)}
	})

	def(syms, lib, "catch", []Param{
		{Name: syms.Intern("name"), Class: ClassNormal},
		{Name: syms.Intern("body"), Class: ClassHardQuoted},
	}, func(in *Interp, l *Level, args *ctx.Context) (cell.Cell, error) {
		name := cellIdentity(args.ValueAt(1))
		result, err := evalBranch(in, args.ValueAt(2))
		if t, ok := err.(*errs.Thrown); ok && t.MatchesName(name) {
			if v, ok := t.Value.(cell.Cell); ok {
				return v, nil
			}
			return cell.None(), nil
		}
		return result, err
	})
}

func cellIdentity(c cell.Cell) interface{} {
	if c.Header.Heart == cell.HeartWord {
		return c.Symbol()
	}
	return c
}

// evalBranch runs branch as code if it's a block (IF/EITHER/CATCH's
// branch-taking convention), or hands back any other value as-is (a
// non-block branch argument is itself the result, spec.md's "branch"
// dialect).
func evalBranch(in *Interp, branch cell.Cell) (cell.Cell, error) {
	if branch.Header.Heart != cell.HeartBlock {
		return branch, nil
	}
	arr, ok := branch.ArrayValue().(*series.Series)
	if !ok {
		return cell.None(), errs.InternalPanic("eval: block branch missing concrete series")
	}
	f := feed.NewArray(arr, branch.ArrayIndex(), nil)
	return evalFeedToEnd(in, nil, f)
}

// registerObjects wires spec.md §8 scenario 2's MAKE OBJECT! construction:
// a library word "object" standing in for the object! datatype (fetched
// like any other library value, never invoked), and a MAKE native that,
// given that word and a hard-quoted spec block of set-word: value pairs,
// builds a fresh internal/ctx.Context and returns it as a context-heart
// cell. Path dispatch into the result (obj/a, obj/a: 99) is handled
// entirely by path.go's existing dispatchContextStep — MAKE only needs to
// produce a context cell dispatchContextStep can unwrap.
//
// Grounded on buildPrefilled's identical "walk set-word: value pairs into
// a context" loop (SPECIALIZE's def block uses the same spec shape).
func registerObjects(syms *sym.Table, lib *ctx.Context) {
	objectProto := ctx.New(cell.None()).AsCell()
	lib.Attach(syms.Intern("object"), objectProto)

	def(syms, lib, "make", []Param{
		{Name: syms.Intern("type"), Class: ClassNormal},
		{Name: syms.Intern("spec"), Class: ClassHardQuoted},
	}, func(in *Interp, l *Level, args *ctx.Context) (cell.Cell, error) {
		if args.ValueAt(1).Header.Heart != cell.HeartContext {
			return cell.None(), errs.TypeMismatch("type", "object!")
		}
		body := args.ValueAt(2)
		arr, ok := body.ArrayValue().(*series.Series)
		if !ok {
			return cell.None(), errs.TypeMismatch("spec", "block!")
		}
		obj := ctx.New(cell.None())
		f := feed.NewArray(arr, body.ArrayIndex(), nil)
		for !f.AtEnd() {
			wordCell := f.Next()
			if wordCell.Header.Heart != cell.HeartSetWord {
				return cell.None(), errs.New(errs.Script, "bad-object-spec", "make object spec must hold set-word: value pairs")
			}
			name, ok := wordSymbol(wordCell)
			if !ok {
				return cell.None(), errs.New(errs.Script, "bad-object-spec", "make object spec must hold set-word: value pairs")
			}
			val, err := evalExpr(in, nil, f)
			if err != nil {
				return cell.None(), err
			}
			obj.Attach(name, val)
		}
		return obj.AsCell(), nil
	})
}

// registerIteration wires spec.md §8 scenario 6's FOR-EACH: the loop
// variable is ClassHardQuoted so FOR-EACH receives the caller's own
// word/lit-word cell rather than its value (spec.md §4.6's quoted
// parameter class), and the loop resolves that word once, before the first
// iteration, against the binder with a nil specifier chain/caller frame —
// exactly the fallback
// path bind.Binder.Resolve takes for a never-rebound word (straight to
// Global, see internal/bind's doc comment on Binder.Global) — and each
// iteration writes into that caller's existing variable instead of
// shadowing it in a fresh frame.
//
// Grounded on natives.go's own evalBranch/registerControl pattern (a
// native that runs a hard-quoted block as a sub-evaluation by calling
// straight back into evalFeedToEnd/evalBranch, no trampoline involved).
func registerIteration(syms *sym.Table, lib *ctx.Context) {
	def(syms, lib, "for-each", []Param{
		{Name: syms.Intern("var"), Class: ClassHardQuoted},
		{Name: syms.Intern("data"), Class: ClassNormal},
		{Name: syms.Intern("body"), Class: ClassHardQuoted},
	}, func(in *Interp, l *Level, args *ctx.Context) (cell.Cell, error) {
		varCell := args.ValueAt(1)
		if _, ok := wordSymbol(varCell); !ok {
			return cell.None(), errs.TypeMismatch("var", "word!")
		}
		loc, err := in.Binder.Resolve(varCell, nil, bind.ModeWrite, nil)
		if err != nil {
			return cell.None(), err
		}

		data := args.ValueAt(2)
		arr, ok := data.ArrayValue().(*series.Series)
		if !ok {
			return cell.None(), errs.TypeMismatch("data", "block!")
		}
		body := args.ValueAt(3)

		result := cell.None().Stale()
		for i := data.ArrayIndex(); i < arr.Len(); i++ {
			if err := loc.Set(arr.At(i)); err != nil {
				return cell.None(), errs.ProtectedSeries()
			}
			v, err := evalBranch(in, body)
			if err != nil {
				return cell.None(), err
			}
			if !v.IsStale() {
				result = v
			}
		}
		return result, nil
	})
}

// registerComposition wires spec.md §4.5's SPECIALIZE/ADAPT/CHAIN/ENCLOSE/
// HIJACK/LAMBDA in as ordinary callable actions, atop the Go-level
// constructors in compose.go. Callers reach an action argument with a
// GET-WORD (`specialize :add [...]`) rather than a plain word, since a
// plain-word fetch of an activation invokes it (evalExpr's HeartWord case)
// where a get-word fetch hands back the inert action value instead.
func registerComposition(syms *sym.Table, lib *ctx.Context) {
	def(syms, lib, "specialize", []Param{
		{Name: syms.Intern("action"), Class: ClassNormal},
		{Name: syms.Intern("def"), Class: ClassHardQuoted},
	}, func(in *Interp, l *Level, args *ctx.Context) (cell.Cell, error) {
		under, err := actionArg(args.ValueAt(1))
		if err != nil {
			return cell.None(), err
		}
		prefilled, err := buildPrefilled(in, args.ValueAt(2))
		if err != nil {
			return cell.None(), err
		}
		return Activation(Specialize(under, prefilled)), nil
	})

	def(syms, lib, "adapt", []Param{
		{Name: syms.Intern("action"), Class: ClassNormal},
		{Name: syms.Intern("prelude"), Class: ClassHardQuoted},
	}, func(in *Interp, l *Level, args *ctx.Context) (cell.Cell, error) {
		under, err := actionArg(args.ValueAt(1))
		if err != nil {
			return cell.None(), err
		}
		return Activation(Adapt(under, args.ValueAt(2), nil)), nil
	})

	def(syms, lib, "chain", []Param{
		{Name: syms.Intern("pipeline"), Class: ClassHardQuoted},
	}, func(in *Interp, l *Level, args *ctx.Context) (cell.Cell, error) {
		block := args.ValueAt(1)
		arr, ok := block.ArrayValue().(*series.Series)
		if !ok {
			return cell.None(), errs.TypeMismatch("pipeline", "block!")
		}
		pipeline := make([]*Action, 0, arr.Len())
		for i := block.ArrayIndex(); i < arr.Len(); i++ {
			v, err := EvalStep(in, nil, arr.At(i))
			if err != nil {
				return cell.None(), err
			}
			a, err := actionArg(v)
			if err != nil {
				return cell.None(), err
			}
			pipeline = append(pipeline, a)
		}
		return Activation(Chain(pipeline)), nil
	})

	def(syms, lib, "enclose", []Param{
		{Name: syms.Intern("action"), Class: ClassNormal},
		{Name: syms.Intern("outer"), Class: ClassNormal},
	}, func(in *Interp, l *Level, args *ctx.Context) (cell.Cell, error) {
		under, err := actionArg(args.ValueAt(1))
		if err != nil {
			return cell.None(), err
		}
		outer, err := actionArg(args.ValueAt(2))
		if err != nil {
			return cell.None(), err
		}
		return Activation(Enclose(under, outer)), nil
	})

	def(syms, lib, "hijack", []Param{
		{Name: syms.Intern("victim"), Class: ClassNormal},
		{Name: syms.Intern("replacement"), Class: ClassNormal},
	}, func(in *Interp, l *Level, args *ctx.Context) (cell.Cell, error) {
		victim, err := actionArg(args.ValueAt(1))
		if err != nil {
			return cell.None(), err
		}
		replacement, err := actionArg(args.ValueAt(2))
		if err != nil {
			return cell.None(), err
		}
		return Activation(Hijack(victim, replacement)), nil
	})

	def(syms, lib, "lambda", []Param{
		{Name: syms.Intern("params"), Class: ClassHardQuoted},
		{Name: syms.Intern("body"), Class: ClassHardQuoted},
	}, func(in *Interp, l *Level, args *ctx.Context) (cell.Cell, error) {
		paramsBlock := args.ValueAt(1)
		arr, ok := paramsBlock.ArrayValue().(*series.Series)
		if !ok {
			return cell.None(), errs.TypeMismatch("params", "block!")
		}
		names := make([]*sym.Symbol, 0, arr.Len())
		for i := paramsBlock.ArrayIndex(); i < arr.Len(); i++ {
			s, ok := wordSymbol(arr.At(i))
			if !ok {
				return cell.None(), errs.TypeMismatch("params", "word!")
			}
			names = append(names, s)
		}
		return Activation(Lambda(syms, names, args.ValueAt(2), nil)), nil
	})
}

// actionArg unwraps v (plain or activation-antiform) into its underlying
// *Action, or reports a type mismatch.
func actionArg(v cell.Cell) (*Action, error) {
	if v.Header.Quote.IsQuasi() || v.Header.Quote.IsAnti() {
		v = v.Unquasi()
	}
	if v.Header.Heart != cell.HeartAction {
		return nil, errs.TypeMismatch("action", "action!")
	}
	a := ActionOf(v)
	if a == nil {
		return nil, errs.InternalPanic("eval: action cell missing identity")
	}
	return a, nil
}

// buildPrefilled evaluates a SPECIALIZE def block's set-word: value pairs
// into a frame-shaped context suitable for Specialize's prefilled argument.
func buildPrefilled(in *Interp, def cell.Cell) (*ctx.Context, error) {
	arr, ok := def.ArrayValue().(*series.Series)
	if !ok {
		return nil, errs.TypeMismatch("def", "block!")
	}
	prefilled := ctx.New(cell.None())
	f := feed.NewArray(arr, def.ArrayIndex(), nil)
	for !f.AtEnd() {
		wordCell := f.Next()
		if wordCell.Header.Heart != cell.HeartSetWord {
			return nil, errs.New(errs.Script, "bad-specialize-def", "specialize def block must hold set-word: value pairs")
		}
		name, ok := wordSymbol(wordCell)
		if !ok {
			return nil, errs.New(errs.Script, "bad-specialize-def", "specialize def block must hold set-word: value pairs")
		}
		val, err := evalExpr(in, nil, f)
		if err != nil {
			return nil, err
		}
		prefilled.Attach(name, val)
	}
	return prefilled, nil
}
