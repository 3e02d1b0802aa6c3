package ctx

import (
	"testing"

	"github.com/wyrd-lang/wyrd/internal/cell"
	"github.com/wyrd-lang/wyrd/internal/sym"
)

func TestAttachAndLookup(t *testing.T) {
	syms := sym.NewTable()
	c := New(cell.None())
	xSym := syms.Intern("x")
	idx := c.Attach(xSym, cell.Integer(10))
	if idx != 1 {
		t.Fatalf("expected first attach to land at slot 1, got %d", idx)
	}
	if got := c.IndexOf(xSym); got != 1 {
		t.Fatalf("IndexOf: expected 1, got %d", got)
	}
	if got := c.ValueAt(1).AsInteger(); got != 10 {
		t.Fatalf("ValueAt: expected 10, got %d", got)
	}
	if got := c.IndexOf(syms.Intern("missing")); got != 0 {
		t.Fatalf("IndexOf of absent name should be 0, got %d", got)
	}
}

func TestDeriveIsDescendantOf(t *testing.T) {
	syms := sym.NewTable()
	parent := New(cell.None())
	parent.Attach(syms.Intern("a"), cell.Integer(1))

	child := parent.Derive()
	if !child.IsDescendantOf(parent) {
		t.Fatal("child should be a descendant of parent")
	}
	if parent.IsDescendantOf(child) {
		t.Fatal("parent must not be a descendant of its own child")
	}

	// Copy-on-write: mutating the child's slot must not affect the parent's.
	child.SetValueAt(1, cell.Integer(2))
	if parent.ValueAt(1).AsInteger() != 1 {
		t.Fatal("Derive should not share varlist storage with its parent")
	}
}

func TestFreeMarksInaccessible(t *testing.T) {
	c := New(cell.None())
	if c.Freed() {
		t.Fatal("fresh context should not be freed")
	}
	c.Free()
	if !c.Freed() {
		t.Fatal("expected Freed() true after Free()")
	}
}
