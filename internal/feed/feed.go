// Package feed implements spec.md §4's Feed: a lazy, restartable iterator
// over a sequence of cells — either array-backed or a variadic stream —
// carrying a specifier chain for binding.
//
// Grounded on sentra/internal/lexer/scanner.go's Scanner, which lazily
// advances a position through a rune sequence one token at a time;
// generalized here from "iterate runes, produce tokens" to "iterate cells,
// carry a binding chain", per spec.md §9's guidance to replace variadic
// C arg lists with a `Feed = Array(slice, specifier) | Variadic(iterator,
// specifier)` sum type.
package feed

import (
	"github.com/wyrd-lang/wyrd/internal/bind"
	"github.com/wyrd-lang/wyrd/internal/cell"
	"github.com/wyrd-lang/wyrd/internal/series"
)

// VariadicSource is the pull side of a variadic feed: each call produces
// the next cell, or reports exhaustion.
type VariadicSource interface {
	Next() (cell.Cell, bool)
}

// Feed is either array-backed (Array != nil) or variadic (Variadic != nil),
// never both — the sum type spec.md §9 calls for.
type Feed struct {
	Array    *series.Series
	Index    int
	Variadic VariadicSource

	Spec *bind.Specifier

	pending    cell.Cell
	hasPending bool
	atEnd      bool
}

// NewArray creates a feed over an array series starting at start.
func NewArray(arr *series.Series, start int, spec *bind.Specifier) *Feed {
	return &Feed{Array: arr, Index: start, Spec: spec}
}

// NewVariadic creates a feed over a pull-style variadic source.
func NewVariadic(src VariadicSource, spec *bind.Specifier) *Feed {
	return &Feed{Variadic: src, Spec: spec}
}

// fetch advances the underlying source by one cell, uniformly regardless
// of which kind of feed this is (spec.md §9: "the trampoline calls
// feed.next() uniformly").
func (f *Feed) fetch() (cell.Cell, bool) {
	if f.Array != nil {
		if f.Index >= f.Array.Len() {
			return cell.End(), false
		}
		c := f.Array.At(f.Index)
		f.Index++
		return c, true
	}
	return f.Variadic.Next()
}

func (f *Feed) fill() {
	if f.hasPending || f.atEnd {
		return
	}
	c, ok := f.fetch()
	if !ok {
		f.atEnd = true
		return
	}
	f.pending = c
	f.hasPending = true
}

// Peek returns the current cell without consuming it. Past the end it
// returns an End() cell.
func (f *Feed) Peek() cell.Cell {
	f.fill()
	if !f.hasPending {
		return cell.End()
	}
	return f.pending
}

// AtEnd reports whether the feed has been exhausted.
func (f *Feed) AtEnd() bool {
	f.fill()
	return f.atEnd
}

// Next consumes and returns the current cell, advancing the feed. Past the
// end it keeps returning End() cells rather than panicking, so an
// executor's "one more step" request is always safe to issue.
func (f *Feed) Next() cell.Cell {
	f.fill()
	if !f.hasPending {
		return cell.End()
	}
	c := f.pending
	f.hasPending = false
	return c
}

// Mark captures a restart point. Only array-backed feeds are restartable in
// the general case (a variadic source may not support rewinding); callers
// must not call Reset on a variadic feed.
type Mark struct {
	index      int
	pending    cell.Cell
	hasPending bool
	atEnd      bool
}

func (f *Feed) Mark() Mark {
	return Mark{index: f.Index, pending: f.pending, hasPending: f.hasPending, atEnd: f.atEnd}
}

func (f *Feed) Reset(m Mark) {
	f.Index = m.index
	f.pending = m.pending
	f.hasPending = m.hasPending
	f.atEnd = m.atEnd
}

// WithSpec returns a shallow copy of f sharing position but with a
// different (typically merged) specifier — used when entering a construct
// that introduces additional bindings (spec.md §4.2).
func (f *Feed) WithSpec(spec *bind.Specifier) *Feed {
	cp := *f
	cp.Spec = spec
	return &cp
}
