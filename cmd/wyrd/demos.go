package main

import (
	"fmt"

	"github.com/wyrd-lang/wyrd/internal/cell"
	"github.com/wyrd-lang/wyrd/internal/ctx"
	"github.com/wyrd-lang/wyrd/internal/eval"
	"github.com/wyrd-lang/wyrd/internal/host"
	"github.com/wyrd-lang/wyrd/internal/series"
)

// demos are small programs built directly against the cell/series/eval
// layers (standing in for what a real text reader would produce) that
// exercise a named piece of spec.md §8's scenario list end to end.
var demos = map[string]func(*host.Session) (cell.Cell, error){
	"let":         demoLet,
	"specialize":  demoSpecialize,
	"hijack":      demoHijack,
	"throw-catch": demoThrowCatch,
}

func demoLet(sess *host.Session) (cell.Cell, error) {
	syms := sess.Interp.Syms
	block := series.NewArrayFrom([]cell.Cell{
		cell.Word(cell.HeartWord, syms.Intern("let")),
		cell.Word(cell.HeartSetWord, syms.Intern("x")),
		cell.Integer(10),
		cell.Word(cell.HeartWord, syms.Intern("add")),
		cell.Word(cell.HeartWord, syms.Intern("x")),
		cell.Integer(5),
	})
	h, err := sess.Run(block)
	if err != nil {
		return cell.None(), err
	}
	return h.Value(), nil
}

func demoSpecialize(sess *host.Session) (cell.Cell, error) {
	syms := sess.Interp.Syms
	addAction, err := lookupAction(sess, "add")
	if err != nil {
		return cell.None(), err
	}

	prefilled := ctx.New(cell.None())
	prefilled.Attach(syms.Intern("a"), cell.Integer(5))
	prefilled.Attach(syms.Intern("b"), cell.None())

	addFive := eval.Specialize(addAction, prefilled)
	sess.Interp.Lib.Attach(syms.Intern("add-five"), eval.Activation(addFive))

	block := series.NewArrayFrom([]cell.Cell{
		cell.Word(cell.HeartWord, syms.Intern("add-five")),
		cell.Integer(10),
	})
	h, err := sess.Run(block)
	if err != nil {
		return cell.None(), err
	}
	return h.Value(), nil
}

func demoHijack(sess *host.Session) (cell.Cell, error) {
	syms := sess.Interp.Syms
	addAction, err := lookupAction(sess, "add")
	if err != nil {
		return cell.None(), err
	}

	replacement := &eval.Action{
		Kind:      eval.KindNative,
		Paramlist: ctx.New(cell.None()),
		Native: func(in *eval.Interp, l *eval.Level, args *ctx.Context) (cell.Cell, error) {
			return cell.Integer(42), nil
		},
	}
	preHijack := eval.Hijack(addAction, replacement)
	sess.Interp.Lib.Attach(syms.Intern("original-add"), eval.Activation(preHijack))

	// The replacement takes no parameters, so the hijacked call site must
	// not leave extra argument cells sitting unconsumed in the block (they
	// would otherwise evaluate as their own trailing expressions and
	// silently become the block's result instead of the call's).
	hijacked := series.NewArrayFrom([]cell.Cell{
		cell.Word(cell.HeartWord, syms.Intern("add")),
	})
	hijackedResult, err := sess.Run(hijacked)
	if err != nil {
		return cell.None(), err
	}

	original := series.NewArrayFrom([]cell.Cell{
		cell.Word(cell.HeartWord, syms.Intern("original-add")),
		cell.Integer(2), cell.Integer(3),
	})
	originalResult, err := sess.Run(original)
	if err != nil {
		return cell.None(), err
	}

	return cell.String(fmt.Sprintf(
		"add (hijacked, no args) = %d; original-add 2 3 (pre-hijack copy) = %d",
		hijackedResult.Value().AsInteger(), originalResult.Value().AsInteger(),
	)), nil
}

func demoThrowCatch(sess *host.Session) (cell.Cell, error) {
	syms := sess.Interp.Syms
	stopName := cell.Word(cell.HeartLitWord, syms.Intern("stop"))

	body := series.NewArrayFrom([]cell.Cell{
		cell.Word(cell.HeartWord, syms.Intern("throw")),
		stopName,
		cell.Integer(42),
	})
	bodyCell := cell.Array(cell.HeartBlock, body, 0)

	block := series.NewArrayFrom([]cell.Cell{
		cell.Word(cell.HeartWord, syms.Intern("catch")),
		stopName,
		bodyCell,
	})
	h, err := sess.Run(block)
	if err != nil {
		return cell.None(), err
	}
	return h.Value(), nil
}

func lookupAction(sess *host.Session, name string) (*eval.Action, error) {
	idx := sess.Interp.Lib.IndexOf(sess.Interp.Syms.Intern(name))
	if idx == 0 {
		return nil, fmt.Errorf("no such library word %q", name)
	}
	v := sess.Interp.Lib.ValueAt(idx)
	return eval.ActionOf(v.Unquasi()), nil
}
