// Package ctx implements spec.md §3.4's Context: a keyed record backed by a
// pair of series (a shared, copy-on-write keylist and a one-longer varlist),
// the shape objects, modules, and frames all reuse.
//
// Grounded on vmregister.ClassObj/InstanceObj's name/methods/properties
// pattern, generalized from "a fixed Go map per record" into the
// keylist-ancestor-chain model spec.md requires so that derived binding
// (see internal/bind) can ask "is this context's keylist a descendant of
// that one's".
package ctx

import (
	"github.com/wyrd-lang/wyrd/internal/cell"
	"github.com/wyrd-lang/wyrd/internal/series"
	"github.com/wyrd-lang/wyrd/internal/sym"
)

// Context pairs a keylist (symbol names) with a varlist (cell values),
// slot 0 of the varlist always holding the archetype/self cell.
type Context struct {
	Keylist *series.Series // Flavor == FlavorKeylist; Cells hold word cells
	Varlist *series.Series // Flavor == FlavorVarlist; len == len(Keylist)+1

	// IsModule marks a context as a module namespace, enabling the
	// binder's module-fallback/attachment step (spec.md §4.1 step 3).
	IsModule bool
	// ProtectedRoot forbids write-mode attachment even when IsModule is
	// set — the "library"/system root modules are never auto-attached to.
	ProtectedRoot bool
}

// New creates an empty context (just the archetype slot).
func New(self cell.Cell) *Context {
	kl := &series.Series{Flavor: series.FlavorKeylist}
	vl := &series.Series{Flavor: series.FlavorVarlist, Cells: []cell.Cell{self}}
	return &Context{Keylist: kl, Varlist: vl}
}

// NewModule creates an empty module-flavored context.
func NewModule(self cell.Cell, protectedRoot bool) *Context {
	c := New(self)
	c.IsModule = true
	c.ProtectedRoot = protectedRoot
	return c
}

// Len reports how many keyed slots exist (excluding the archetype slot).
func (c *Context) Len() int { return c.Keylist.Len() }

// Archetype returns the self-referencing slot-0 cell.
func (c *Context) Archetype() cell.Cell { return c.Varlist.At(0) }

// KeyAt returns the symbol naming slot i (1-based over keyed slots, i.e.
// i in [1, Len()]).
func (c *Context) KeyAt(i int) *sym.Symbol {
	return c.Keylist.At(i - 1).Symbol().(*sym.Symbol)
}

// ValueAt returns the value in keyed slot i (1-based).
func (c *Context) ValueAt(i int) cell.Cell { return c.Varlist.At(i) }

// SetValueAt writes the value in keyed slot i (1-based).
func (c *Context) SetValueAt(i int, v cell.Cell) error {
	return c.Varlist.Set(i, v)
}

// IndexOf returns the 1-based slot index of name, or 0 if absent — the
// "walk the keylist" step spec.md §4.1's binder algorithm names.
func (c *Context) IndexOf(name *sym.Symbol) int {
	for i := 1; i <= c.Len(); i++ {
		if c.KeyAt(i) == name {
			return i
		}
	}
	return 0
}

// Attach appends a new keyed slot for name holding v, returning its index.
// Used by the binder's write-mode module-attachment step (spec.md §4.1
// step 3) and by general object construction.
func (c *Context) Attach(name *sym.Symbol, v cell.Cell) int {
	key := cell.Word(cell.HeartWord, name)
	c.Keylist.Cells = append(c.Keylist.Cells, key)
	c.Varlist.Cells = append(c.Varlist.Cells, v)
	return c.Len()
}

// Derive returns a copy-on-write child context sharing no storage with c,
// whose keylist has c's keylist as Ancestor.
func (c *Context) Derive() *Context {
	return &Context{
		Keylist: c.Keylist.Derive(),
		Varlist: c.Varlist.Derive(),
	}
}

// IsDescendantOf reports whether c's keylist descends from other's keylist
// (spec.md §4.1 step 2, "derived binding").
func (c *Context) IsDescendantOf(other *Context) bool {
	return other.Keylist.IsAncestorOf(c.Keylist)
}

// Free marks c's varlist inaccessible (spec.md §3.7). Later writes through
// c (SetValueAt) fail with series.ErrInaccessible; reads (ValueAt,
// Archetype) are not checked and still return the stored cells.
func (c *Context) Free() { c.Varlist.MarkInaccessible() }

func (c *Context) Freed() bool { return c.Varlist.Inaccessible() }

// AsCell wraps c as a context-heart cell carrying c itself in First.Obj
// (the way a MAKE OBJECT! expression's result is represented, and the
// shape internal/eval/path.go's dispatchContextStep unwraps with a plain
// type assertion — a context cell is never treated as an ArraySeries, so
// this doesn't need cell.Array's Obj-is-a-series convention).
func (c *Context) AsCell() cell.Cell {
	return cell.Cell{Header: cell.Header{Heart: cell.HeartContext}, First: cell.Payload{Obj: c}}
}
