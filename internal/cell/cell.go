// Package cell implements the fixed-shape tagged value at the bottom of the
// evaluator: spec.md §3.1's Cell. Every other layer (series, context,
// action, binder, feed, level, path) operates on cell.Cell values.
//
// The teacher's vmregister.Value NaN-boxes a tag and a payload into one
// 64-bit word and stores anything bigger behind an Object pointer. Wyrd
// keeps that same "small fixed tag, two payload slots, heap pointer for
// anything bigger" shape but as a plain tagged struct rather than a manual
// bit-packed union: a Cell must additionally carry the quote-byte state
// machine (plain/quoted-N/quasi/antiform) spec.md requires, which doesn't
// fit in NaN-boxing's spare bits without giving up pointer range, and Go's
// GC already traces interface{} fields for us, so there is nothing to gain
// by hiding the tag in the low bits of a float.
package cell

import (
	"fmt"
	"math"
)

// HeartByte is the concrete storage kind of a cell — the type the payload
// actually holds, independent of any quoting wrapped around it.
type HeartByte uint8

const (
	HeartNone HeartByte = iota
	HeartLogic
	HeartInteger
	HeartDecimal
	HeartWord
	HeartSetWord
	HeartGetWord
	HeartLitWord
	HeartString
	HeartBlock
	HeartGroup
	HeartPath
	HeartSetPath
	HeartGetPath
	HeartTuple
	HeartAction
	HeartContext
	HeartHandle
	HeartTag
	HeartEnd // sentinel heart for end-of-feed cells, never antiform
)

func (h HeartByte) String() string {
	switch h {
	case HeartNone:
		return "none"
	case HeartLogic:
		return "logic"
	case HeartInteger:
		return "integer"
	case HeartDecimal:
		return "decimal"
	case HeartWord:
		return "word"
	case HeartSetWord:
		return "set-word"
	case HeartGetWord:
		return "get-word"
	case HeartLitWord:
		return "lit-word"
	case HeartString:
		return "string"
	case HeartBlock:
		return "block"
	case HeartGroup:
		return "group"
	case HeartPath:
		return "path"
	case HeartSetPath:
		return "set-path"
	case HeartGetPath:
		return "get-path"
	case HeartTuple:
		return "tuple"
	case HeartAction:
		return "action"
	case HeartContext:
		return "context"
	case HeartHandle:
		return "handle"
	case HeartTag:
		return "tag"
	case HeartEnd:
		return "end"
	default:
		return fmt.Sprintf("heart(%d)", uint8(h))
	}
}

// QuoteByte encodes spec.md §3.1's four quoting forms. 0 is plain. 1 is
// quasiform (~x~). 2 is antiform (the same bit pattern as quasi but may only
// live in variables/frame-slots/output cells, never in an array — see
// IsStable). 3 and above are "quoted N times", with N = QuoteByte-2.
type QuoteByte uint8

const (
	QuotePlain QuoteByte = 0
	QuoteQuasi QuoteByte = 1
	QuoteAnti  QuoteByte = 2
	quoteBase  QuoteByte = 3
)

// Quoted returns the quote-byte for a plain value quoted n times (n >= 1).
func Quoted(n int) QuoteByte {
	if n <= 0 {
		return QuotePlain
	}
	return quoteBase + QuoteByte(n-1)
}

// QuoteDepth returns how many quote levels a QuoteByte >= quoteBase carries.
// Callers must check IsQuoted first.
func (q QuoteByte) QuoteDepth() int {
	if q < quoteBase {
		return 0
	}
	return int(q-quoteBase) + 1
}

func (q QuoteByte) IsPlain() bool  { return q == QuotePlain }
func (q QuoteByte) IsQuasi() bool  { return q == QuoteQuasi }
func (q QuoteByte) IsAnti() bool   { return q == QuoteAnti }
func (q QuoteByte) IsQuoted() bool { return q >= quoteBase }

// Flags are the cell header's flag bits (spec.md §3.1).
type Flags uint16

const (
	FlagConst Flags = 1 << iota
	FlagProtected
	FlagMarkedBlack // GC mark bit
	FlagStale       // "did not produce a value this step" (invisibles)
	FlagNewlineBefore
	FlagSingularArray // this cell IS a one-element array, not an array element
)

// Header packs everything spec.md §3.1 says a header must: the heart, the
// quote state, and the flag bits.
type Header struct {
	Heart HeartByte
	Quote QuoteByte
	Flags Flags
}

func (h Header) Has(f Flags) bool { return h.Flags&f != 0 }

// Payload is one of a cell's two data slots. Which of its fields are
// meaningful depends on the heart byte (a word uses both: symbol in Obj,
// cached index in N); this is documented per heart in the accessor methods
// below, mirroring spec.md's "payload.first,
// payload.second — interpretation depends on heart".
type Payload struct {
	N   int64       // integer / index component
	Obj interface{} // heap pointer component (Series, Symbol, *Binding, ...)
}

// Cell is the fixed-shape tagged value spec.md §3.1 describes: header +
// extra + two payload slots.
type Cell struct {
	Header  Header
	Extra   interface{} // binding node for words; dispatch override for actions
	First   Payload
	Second  Payload
}

// Nil-shaped helpers -------------------------------------------------------

// None returns a plain `none` cell — wyrd's normal "no value" value.
func None() Cell { return Cell{Header: Header{Heart: HeartNone}} }

// End returns the sentinel cell a Feed yields past its last element.
func End() Cell { return Cell{Header: Header{Heart: HeartEnd}} }

func (c Cell) IsEnd() bool { return c.Header.Heart == HeartEnd }

// Logic/Integer/Decimal ------------------------------------------------------

func Logic(b bool) Cell {
	n := int64(0)
	if b {
		n = 1
	}
	return Cell{Header: Header{Heart: HeartLogic}, First: Payload{N: n}}
}

func (c Cell) AsLogic() bool { return c.First.N != 0 }

func Integer(v int64) Cell {
	return Cell{Header: Header{Heart: HeartInteger}, First: Payload{N: v}}
}

func (c Cell) AsInteger() int64 { return c.First.N }

func Decimal(v float64) Cell {
	return Cell{Header: Header{Heart: HeartDecimal}, First: Payload{N: int64(math.Float64bits(v))}}
}

func (c Cell) AsDecimal() float64 { return math.Float64frombits(uint64(c.First.N)) }

// String ---------------------------------------------------------------------

func String(s string) Cell {
	return Cell{Header: Header{Heart: HeartString}, First: Payload{Obj: s}}
}

func (c Cell) AsString() string { return c.First.Obj.(string) }

// Word family: word/set-word/get-word/lit-word all carry a Symbol pointer
// in First.Obj and a variable index cache in First.N (-1 if unresolved).
// Extra carries the binding node (spec.md §3.1 "extra... for words it is the
// binding node").

type Symboler interface {
	Name() string
}

func Word(heart HeartByte, s Symboler) Cell {
	return Cell{Header: Header{Heart: heart}, First: Payload{Obj: s, N: -1}}
}

func (c Cell) Symbol() Symboler { return c.First.Obj.(Symboler) }

func (c Cell) Binding() interface{} { return c.Extra }

func (c Cell) WithBinding(b interface{}) Cell {
	c.Extra = b
	return c
}

func (c Cell) CachedIndex() int { return int(c.First.N) }

func (c Cell) WithCachedIndex(i int) Cell {
	c.First.N = int64(i)
	return c
}

// Array-backed heart family: block/group/path/set-path/get-path/tuple all
// carry a *series.Array in First.Obj (as an interface{} to avoid an import
// cycle — series.Array implements this package's ArraySeries interface) and
// an index into it in First.N.

// ArraySeries is the subset of series.Array that cell needs, kept here to
// avoid a cell<->series import cycle (series.Array implements it).
type ArraySeries interface {
	Len() int
	At(i int) Cell
}

func Array(heart HeartByte, arr ArraySeries, index int) Cell {
	return Cell{Header: Header{Heart: heart}, First: Payload{Obj: arr, N: int64(index)}}
}

func (c Cell) ArrayValue() ArraySeries { return c.First.Obj.(ArraySeries) }
func (c Cell) ArrayIndex() int         { return int(c.First.N) }

// Quoting operations ----------------------------------------------------------

// Quote wraps c one additional quote level. Quasi and antiform cells cannot
// be further quoted-as-quoted; quoting a quasiform instead increments a
// plain-quoted count layered on top, matching Ren-C's QUOTE semantics: the
// byte simply advances through plain -> quoted1 -> quoted2 ... regardless of
// quasi/antiform, since those are ONLY meaningful at depth 0.
func (c Cell) Quote() Cell {
	switch {
	case c.Header.Quote.IsQuoted():
		c.Header.Quote = Quoted(c.Header.Quote.QuoteDepth() + 1)
	default:
		c.Header.Quote = Quoted(1)
	}
	return c
}

// Unquote strips one quote level. Calling it on a plain cell is a caller
// error (mirrors spec: only quoted cells may be unquoted).
func (c Cell) Unquote() Cell {
	if !c.Header.Quote.IsQuoted() {
		panic("cell: unquote of non-quoted cell")
	}
	d := c.Header.Quote.QuoteDepth() - 1
	if d == 0 {
		c.Header.Quote = QuotePlain
	} else {
		c.Header.Quote = Quoted(d)
	}
	return c
}

// Quasi returns the quasiform of c's plain heart (spec.md's ~x~ form).
// Panics if c is not plain, matching invariant 2 in §3.1: only plain cells
// become quasi/antiform wrappers, never already-quoted ones.
func (c Cell) Quasi() Cell {
	if !c.Header.Quote.IsPlain() {
		panic("cell: quasi of non-plain cell")
	}
	c.Header.Quote = QuoteQuasi
	return c
}

// Antiform returns the antiform ("isotope") of a quasiform cell. Per
// invariant 2, the resulting cell must never be stored into an array; it is
// the caller's responsibility (the trampoline/level layer) to keep it
// confined to variables, frame slots, and output cells.
func (c Cell) Antiform() Cell {
	if !c.Header.Quote.IsQuasi() {
		panic("cell: antiform of non-quasi cell")
	}
	c.Header.Quote = QuoteAnti
	return c
}

// Unquasi strips a quasi/antiform wrapper back to plain.
func (c Cell) Unquasi() Cell {
	if c.Header.Quote != QuoteQuasi && c.Header.Quote != QuoteAnti {
		panic("cell: unquasi of cell that is not quasi/antiform")
	}
	c.Header.Quote = QuotePlain
	return c
}

// Stable reports whether c may legally appear inside an array (invariant 2):
// plain, quoted, and quasi cells are stable; antiforms are not.
func (c Cell) Stable() bool { return c.Header.Quote != QuoteAnti }

// Stale marks c as "did not produce a value this step" (invariant 3, used
// for invisibles/comments).
func (c Cell) Stale() Cell {
	c.Header.Flags |= FlagStale
	return c
}

func (c Cell) IsStale() bool { return c.Header.Flags&FlagStale != 0 }

// ClearStale returns c with the stale flag removed, as a caller that
// "detects this" (invariant 3) must do before treating c as a real result.
func (c Cell) ClearStale() Cell {
	c.Header.Flags &^= FlagStale
	return c
}

func (c Cell) Protected() bool { return c.Header.Flags&FlagProtected != 0 }

func (c Cell) WithProtected(p bool) Cell {
	if p {
		c.Header.Flags |= FlagProtected
	} else {
		c.Header.Flags &^= FlagProtected
	}
	return c
}
