package eval

import (
	"github.com/wyrd-lang/wyrd/internal/cell"
	"github.com/wyrd-lang/wyrd/internal/series"
)

// typeOk implements spec.md §4.7's type-checking protocol for one
// parameter slot: an empty test block accepts anything; a non-empty one
// is interpreted as a set of type-word/typechecker-action alternatives,
// any one of which matching is sufficient. A meta-class param's check
// strips the quoted/quasi wrapper first and tests the unwrapped form (its
// Test block, if any, names the wrapped type); the slot keeps the wrapped
// value.
//
// Grounded on sentra's typeCheck()/coerceType() pair in vm.go (try the
// value as-is, then attempt exactly one coercion and recheck) —
// generalized from a fixed coercion table to spec.md's test-block-driven
// "coerce then retry once" protocol.
func typeOk(p Param, v cell.Cell) bool {
	test := p.Test
	if isEmptyTestBlock(test) {
		return true
	}

	check := v
	if p.Class == ClassMeta && !v.Header.Quote.IsPlain() {
		check = unwrapMeta(v)
	}

	if matchesTestBlock(test, check) {
		return true
	}

	_, ok := coerce(test, check)
	return ok
}

func isEmptyTestBlock(test cell.Cell) bool {
	if test.Header.Heart == cell.HeartNone {
		return true
	}
	arr, ok := test.ArrayValue().(*series.Series)
	if !ok {
		return true
	}
	return arr.Len()-test.ArrayIndex() <= 0
}

// unwrapMeta strips a meta-class argument's quote/quasi/antiform wrapper
// down to the plain form the test block's type-words describe.
func unwrapMeta(v cell.Cell) cell.Cell {
	switch {
	case v.Header.Quote.IsQuoted():
		return v.Unquote()
	case v.Header.Quote.IsQuasi(), v.Header.Quote.IsAnti():
		return v.Unquasi()
	default:
		return v
	}
}

// matchesTestBlock walks a test block's elements: bare words name a
// heart by its canonical type-word spelling (handled via heartNameOf),
// and embedded ACTION! values (built via MakeTypechecker) are invoked as
// predicates.
func matchesTestBlock(test cell.Cell, v cell.Cell) bool {
	arr, ok := test.ArrayValue().(*series.Series)
	if !ok {
		return false
	}
	for i := test.ArrayIndex(); i < arr.Len(); i++ {
		el := arr.At(i)
		switch el.Header.Heart {
		case cell.HeartWord:
			if name, ok := el.Symbol().(interface{ Name() string }); ok {
				if heartNameOf(v.Header.Heart) == name.Name() {
					return true
				}
			}
		case cell.HeartAction:
			if a := ActionOf(el); a != nil && a.Kind == KindTypechecker {
				if checkerMatches(a, v) {
					return true
				}
			}
		}
	}
	return false
}

func checkerMatches(a *Action, v cell.Cell) bool {
	if a.TypecheckSet != nil {
		return a.TypecheckSet[v.Header.Heart]
	}
	return v.Header.Heart == a.TypecheckHeart
}

// coerce attempts the single allowed implicit coercion spec.md §4.7
// describes (currently: integer<->decimal, the two numeric hearts every
// arithmetic native accepts interchangeably) and reports whether the
// coerced form now satisfies test.
func coerce(test cell.Cell, v cell.Cell) (cell.Cell, bool) {
	switch v.Header.Heart {
	case cell.HeartInteger:
		asDecimal := cell.Decimal(float64(v.AsInteger()))
		if matchesTestBlock(test, asDecimal) {
			return asDecimal, true
		}
	case cell.HeartDecimal:
		asInt := cell.Integer(int64(v.AsDecimal()))
		if matchesTestBlock(test, asInt) {
			return asInt, true
		}
	}
	return cell.None(), false
}

// heartNameOf returns the canonical lowercase type-word spelling a test
// block would use to name h — the inverse of what a tokenizer would
// produce for (e.g.) the word `integer!` naming HeartInteger's type.
func heartNameOf(h cell.HeartByte) string {
	switch h {
	case cell.HeartNone:
		return "none!"
	case cell.HeartLogic:
		return "logic!"
	case cell.HeartInteger:
		return "integer!"
	case cell.HeartDecimal:
		return "decimal!"
	case cell.HeartWord:
		return "word!"
	case cell.HeartSetWord:
		return "set-word!"
	case cell.HeartGetWord:
		return "get-word!"
	case cell.HeartLitWord:
		return "lit-word!"
	case cell.HeartString:
		return "string!"
	case cell.HeartBlock:
		return "block!"
	case cell.HeartGroup:
		return "group!"
	case cell.HeartPath:
		return "path!"
	case cell.HeartSetPath:
		return "set-path!"
	case cell.HeartGetPath:
		return "get-path!"
	case cell.HeartTuple:
		return "tuple!"
	case cell.HeartAction:
		return "action!"
	case cell.HeartContext:
		return "object!"
	case cell.HeartHandle:
		return "handle!"
	case cell.HeartTag:
		return "tag!"
	default:
		return "unknown!"
	}
}

// MakeTypechecker builds the ACTION! a type-word like INTEGER? compiles
// down to, or the predicate TYPECHECKER produces from a typeset (spec.md
// §4.5's TYPECHECKER primitive).
func MakeTypechecker(label interface{ Name() string }, heart cell.HeartByte, set map[cell.HeartByte]bool) *Action {
	return &Action{
		Kind:           KindTypechecker,
		TypecheckHeart: heart,
		TypecheckSet:   set,
	}
}
