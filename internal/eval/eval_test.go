package eval

import (
	"testing"

	"github.com/wyrd-lang/wyrd/internal/cell"
	"github.com/wyrd-lang/wyrd/internal/ctx"
	"github.com/wyrd-lang/wyrd/internal/errs"
	"github.com/wyrd-lang/wyrd/internal/series"
)

func newTestInterp() *Interp {
	in := NewInterp()
	RegisterNatives(in.Syms, in.Lib)
	return in
}

func word(in *Interp, name string) cell.Cell {
	return cell.Word(cell.HeartWord, in.Syms.Intern(name))
}

func TestAddOfTwoIntegers(t *testing.T) {
	in := newTestInterp()
	block := series.NewArrayFrom([]cell.Cell{
		word(in, "add"), cell.Integer(2), cell.Integer(3),
	})
	out, err := EvalBlock(in, block, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.AsInteger() != 5 {
		t.Fatalf("expected 5, got %d", out.AsInteger())
	}
}

func TestLetExtendsBindingForRestOfBlock(t *testing.T) {
	in := newTestInterp()
	block := series.NewArrayFrom([]cell.Cell{
		word(in, "let"),
		cell.Word(cell.HeartSetWord, in.Syms.Intern("x")),
		cell.Integer(10),
		word(in, "add"), word(in, "x"), cell.Integer(5),
	})
	out, err := EvalBlock(in, block, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.AsInteger() != 15 {
		t.Fatalf("expected 15, got %d", out.AsInteger())
	}
}

func TestLetBindingDoesNotLeakToASiblingBlock(t *testing.T) {
	in := newTestInterp()
	// Two independent top-level blocks must not share a LET binding: each
	// EvalBlock call starts its own Feed/specifier chain from nil.
	first := series.NewArrayFrom([]cell.Cell{
		word(in, "let"),
		cell.Word(cell.HeartSetWord, in.Syms.Intern("y")),
		cell.Integer(1),
	})
	if _, err := EvalBlock(in, first, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := series.NewArrayFrom([]cell.Cell{word(in, "y")})
	if _, err := EvalBlock(in, second, nil); err == nil {
		t.Fatal("expected y to be unbound outside the block that LET it")
	}
}

func TestSpecializePrefillsAParam(t *testing.T) {
	in := newTestInterp()
	addIdx := in.Lib.IndexOf(in.Syms.Intern("add"))
	addAction := ActionOf(in.Lib.ValueAt(addIdx).Unquasi())

	prefilled := ctx.New(cell.None())
	prefilled.Attach(in.Syms.Intern("a"), cell.Integer(5))
	prefilled.Attach(in.Syms.Intern("b"), cell.None())

	addFive := Specialize(addAction, prefilled)
	in.Lib.Attach(in.Syms.Intern("add-five"), Activation(addFive))

	block := series.NewArrayFrom([]cell.Cell{word(in, "add-five"), cell.Integer(10)})
	out, err := EvalBlock(in, block, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.AsInteger() != 15 {
		t.Fatalf("expected 15, got %d", out.AsInteger())
	}
}

func TestHijackPreservesIdentityAndPreHijackCopyStillWorks(t *testing.T) {
	in := newTestInterp()
	addIdx := in.Lib.IndexOf(in.Syms.Intern("add"))
	addAction := ActionOf(in.Lib.ValueAt(addIdx).Unquasi())

	replacement := &Action{
		Kind:      KindNative,
		Paramlist: ctx.New(cell.None()),
		Native: func(in *Interp, l *Level, args *ctx.Context) (cell.Cell, error) {
			return cell.Integer(42), nil
		},
	}
	preHijack := Hijack(addAction, replacement)
	in.Lib.Attach(in.Syms.Intern("original-add"), Activation(preHijack))

	hijacked := series.NewArrayFrom([]cell.Cell{word(in, "add")})
	out, err := EvalBlock(in, hijacked, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.AsInteger() != 42 {
		t.Fatalf("expected hijacked add to return 42, got %d", out.AsInteger())
	}

	original := series.NewArrayFrom([]cell.Cell{word(in, "original-add"), cell.Integer(2), cell.Integer(3)})
	out, err = EvalBlock(in, original, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.AsInteger() != 5 {
		t.Fatalf("expected pre-hijack copy to still add, got %d", out.AsInteger())
	}
}

func TestThrowCatch(t *testing.T) {
	in := newTestInterp()
	stopName := cell.Word(cell.HeartLitWord, in.Syms.Intern("stop"))
	body := series.NewArrayFrom([]cell.Cell{word(in, "throw"), stopName, cell.Integer(42)})
	bodyCell := cell.Array(cell.HeartBlock, body, 0)

	block := series.NewArrayFrom([]cell.Cell{word(in, "catch"), stopName, bodyCell})
	out, err := EvalBlock(in, block, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.AsInteger() != 42 {
		t.Fatalf("expected 42, got %d", out.AsInteger())
	}
}

func TestThrowEscapesAnUnrelatedCatch(t *testing.T) {
	in := newTestInterp()
	stopName := cell.Word(cell.HeartLitWord, in.Syms.Intern("stop"))
	otherName := cell.Word(cell.HeartLitWord, in.Syms.Intern("other"))
	body := series.NewArrayFrom([]cell.Cell{word(in, "throw"), stopName, cell.Integer(1)})
	bodyCell := cell.Array(cell.HeartBlock, body, 0)

	block := series.NewArrayFrom([]cell.Cell{word(in, "catch"), otherName, bodyCell})
	_, err := EvalBlock(in, block, nil)
	if err == nil {
		t.Fatal("expected the throw to escape a catch watching for a different name")
	}
	if _, ok := err.(*errs.Thrown); !ok {
		t.Fatalf("expected *errs.Thrown to escape, got %T", err)
	}
}

func TestTypeMismatchRaisesError(t *testing.T) {
	in := newTestInterp()
	block := series.NewArrayFrom([]cell.Cell{
		word(in, "add"), cell.String("nope"), cell.Integer(1),
	})
	_, err := EvalBlock(in, block, nil)
	if err == nil {
		t.Fatal("expected a type-mismatch error adding a string to an integer")
	}
}

func TestCallingUnboundWordErrors(t *testing.T) {
	in := newTestInterp()
	block := series.NewArrayFrom([]cell.Cell{word(in, "totally-not-a-word")})
	if _, err := EvalBlock(in, block, nil); err == nil {
		t.Fatal("expected an error resolving a name nothing ever defined")
	}
}

func TestChainThreadsResultThroughEachStage(t *testing.T) {
	in := newTestInterp()
	addIdx := in.Lib.IndexOf(in.Syms.Intern("add"))
	addAction := ActionOf(in.Lib.ValueAt(addIdx).Unquasi())
	multIdx := in.Lib.IndexOf(in.Syms.Intern("multiply"))
	multAction := ActionOf(in.Lib.ValueAt(multIdx).Unquasi())

	prefilled := ctx.New(cell.None())
	prefilled.Attach(in.Syms.Intern("a"), cell.Integer(1))
	prefilled.Attach(in.Syms.Intern("b"), cell.None())
	addOne := Specialize(addAction, prefilled)

	timesPrefilled := ctx.New(cell.None())
	timesPrefilled.Attach(in.Syms.Intern("a"), cell.None())
	timesPrefilled.Attach(in.Syms.Intern("b"), cell.Integer(10))
	timesTen := Specialize(multAction, timesPrefilled)

	chained := Chain([]*Action{addOne, timesTen})
	in.Lib.Attach(in.Syms.Intern("add-one-times-ten"), Activation(chained))

	block := series.NewArrayFrom([]cell.Cell{word(in, "add-one-times-ten"), cell.Integer(2)})
	out, err := EvalBlock(in, block, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.AsInteger() != 30 {
		t.Fatalf("expected (2+1)*10=30, got %d", out.AsInteger())
	}
}

func TestAdaptPassesThroughWhenPreludeIsANoOp(t *testing.T) {
	in := newTestInterp()
	addIdx := in.Lib.IndexOf(in.Syms.Intern("add"))
	addAction := ActionOf(in.Lib.ValueAt(addIdx).Unquasi())

	prelude := series.NewArrayFrom(nil)
	preludeCell := cell.Array(cell.HeartBlock, prelude, 0)

	adapted := Adapt(addAction, preludeCell, nil)
	in.Lib.Attach(in.Syms.Intern("plain-adapt-add"), Activation(adapted))

	block := series.NewArrayFrom([]cell.Cell{word(in, "plain-adapt-add"), cell.Integer(1), cell.Integer(2)})
	out, err := EvalBlock(in, block, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.AsInteger() != 3 {
		t.Fatalf("expected an empty prelude to leave add's result unchanged at 3, got %d", out.AsInteger())
	}
}

func TestEnfixAddRollsPriorResultIntoFirstArg(t *testing.T) {
	in := newTestInterp()
	block := series.NewArrayFrom([]cell.Cell{
		cell.Integer(1), word(in, "+"), cell.Integer(2),
	})
	out, err := EvalBlock(in, block, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.AsInteger() != 3 {
		t.Fatalf("expected 1 + 2 = 3, got %d", out.AsInteger())
	}
}

func TestEnfixChainsLeftToRight(t *testing.T) {
	in := newTestInterp()
	// 1 + 2 * 3 evaluates strictly left to right per spec.md §5's ordering
	// guarantees (no operator precedence): (1 + 2) * 3 = 9, not 1 + (2*3).
	block := series.NewArrayFrom([]cell.Cell{
		cell.Integer(1), word(in, "+"), cell.Integer(2), word(in, "*"), cell.Integer(3),
	})
	out, err := EvalBlock(in, block, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.AsInteger() != 9 {
		t.Fatalf("expected (1+2)*3 = 9, got %d", out.AsInteger())
	}
}

func TestEnfixIsAbsorbedIntoAPrefixCallsArgumentSlot(t *testing.T) {
	in := newTestInterp()
	// add 1 2 + 3: the second argument slot evaluates a full expression,
	// which itself absorbs the trailing infix op: add(1, (2+3)) = 6.
	block := series.NewArrayFrom([]cell.Cell{
		word(in, "add"), cell.Integer(1), cell.Integer(2), word(in, "+"), cell.Integer(3),
	})
	out, err := EvalBlock(in, block, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.AsInteger() != 6 {
		t.Fatalf("expected add(1, 2+3) = 6, got %d", out.AsInteger())
	}
}

func path(in *Interp, heart cell.HeartByte, names ...string) cell.Cell {
	steps := make([]cell.Cell, len(names))
	for i, n := range names {
		steps[i] = word(in, n)
	}
	arr := series.NewArrayFrom(steps)
	return cell.Array(heart, arr, 0)
}

func TestMakeObjectBuildsAPathAccessibleContext(t *testing.T) {
	in := newTestInterp()
	// obj: make object [a: 1 b: 2]
	spec := series.NewArrayFrom([]cell.Cell{
		cell.Word(cell.HeartSetWord, in.Syms.Intern("a")), cell.Integer(1),
		cell.Word(cell.HeartSetWord, in.Syms.Intern("b")), cell.Integer(2),
	})
	specCell := cell.Array(cell.HeartBlock, spec, 0)

	setup := series.NewArrayFrom([]cell.Cell{
		cell.Word(cell.HeartSetWord, in.Syms.Intern("obj")),
		word(in, "make"), word(in, "object"), specCell,
	})
	if _, err := EvalBlock(in, setup, nil); err != nil {
		t.Fatalf("unexpected error building the object: %v", err)
	}

	getA := series.NewArrayFrom([]cell.Cell{path(in, cell.HeartPath, "obj", "a")})
	out, err := EvalBlock(in, getA, nil)
	if err != nil {
		t.Fatalf("unexpected error reading obj/a: %v", err)
	}
	if out.AsInteger() != 1 {
		t.Fatalf("expected obj/a to be 1, got %d", out.AsInteger())
	}

	setA := series.NewArrayFrom([]cell.Cell{path(in, cell.HeartSetPath, "obj", "a"), cell.Integer(99)})
	if _, err := EvalBlock(in, setA, nil); err != nil {
		t.Fatalf("unexpected error writing obj/a: 99: %v", err)
	}
	getA2 := series.NewArrayFrom([]cell.Cell{path(in, cell.HeartPath, "obj", "a")})
	out, err = EvalBlock(in, getA2, nil)
	if err != nil {
		t.Fatalf("unexpected error re-reading obj/a: %v", err)
	}
	if out.AsInteger() != 99 {
		t.Fatalf("expected obj/a to be 99 after obj/a: 99, got %d", out.AsInteger())
	}

	getC := series.NewArrayFrom([]cell.Cell{path(in, cell.HeartPath, "obj", "c")})
	if _, err := EvalBlock(in, getC, nil); err == nil {
		t.Fatal("expected obj/c to error as unbound (c was never a key in the object)")
	}
}

func TestForEachMutatesTheOuterLoopVariableRatherThanShadowingIt(t *testing.T) {
	in := newTestInterp()
	setup := series.NewArrayFrom([]cell.Cell{
		cell.Word(cell.HeartSetWord, in.Syms.Intern("x")), cell.Integer(1),
	})
	if _, err := EvalBlock(in, setup, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data := series.NewArrayFrom([]cell.Cell{cell.Integer(10), cell.Integer(20)})
	dataCell := cell.Array(cell.HeartBlock, data, 0)
	body := series.NewArrayFrom(nil)
	bodyCell := cell.Array(cell.HeartBlock, body, 0)

	loop := series.NewArrayFrom([]cell.Cell{
		word(in, "for-each"), cell.Word(cell.HeartLitWord, in.Syms.Intern("x")), dataCell, bodyCell,
	})
	if _, err := EvalBlock(in, loop, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	read := series.NewArrayFrom([]cell.Cell{word(in, "x")})
	out, err := EvalBlock(in, read, nil)
	if err != nil {
		t.Fatalf("unexpected error reading x after the loop: %v", err)
	}
	if out.AsInteger() != 20 {
		t.Fatalf("expected the outer x to be mutated to the last iterated value 20, got %d", out.AsInteger())
	}
}

func TestAdaptPreludeRunsBeforeUnderlyingAndCanAbortIt(t *testing.T) {
	in := newTestInterp()
	addIdx := in.Lib.IndexOf(in.Syms.Intern("add"))
	addAction := ActionOf(in.Lib.ValueAt(addIdx).Unquasi())

	abortName := cell.Word(cell.HeartLitWord, in.Syms.Intern("aborted"))
	prelude := series.NewArrayFrom([]cell.Cell{word(in, "throw"), abortName, cell.Integer(999)})
	preludeCell := cell.Array(cell.HeartBlock, prelude, 0)

	adapted := Adapt(addAction, preludeCell, nil)
	in.Lib.Attach(in.Syms.Intern("aborting-add"), Activation(adapted))

	block := series.NewArrayFrom([]cell.Cell{word(in, "aborting-add"), cell.Integer(1), cell.Integer(2)})
	if _, err := EvalBlock(in, block, nil); err == nil {
		t.Fatal("expected the prelude's throw to abort the call before add ever ran")
	}
}
