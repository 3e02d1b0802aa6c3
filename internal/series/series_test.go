package series

import (
	"testing"

	"github.com/wyrd-lang/wyrd/internal/cell"
)

func TestAppendAndFreeze(t *testing.T) {
	s := NewArray()
	if err := s.Append(cell.Integer(1)); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	s.Freeze()
	if err := s.Append(cell.Integer(2)); err != ErrFrozen {
		t.Fatalf("expected ErrFrozen, got %v", err)
	}
	if err := s.Set(0, cell.Integer(2)); err != ErrFrozen {
		t.Fatalf("expected ErrFrozen on Set, got %v", err)
	}
}

func TestInaccessibleAfterMark(t *testing.T) {
	s := NewArrayFrom([]cell.Cell{cell.Integer(1)})
	s.MarkInaccessible()
	if !s.Inaccessible() {
		t.Fatal("expected series to be inaccessible")
	}
	if err := s.Set(0, cell.Integer(2)); err != ErrInaccessible {
		t.Fatalf("expected ErrInaccessible, got %v", err)
	}
}

func TestManageFlipsOnceNeverReverts(t *testing.T) {
	s := NewArray()
	if s.Managed() {
		t.Fatal("fresh series should not be managed")
	}
	s.Manage()
	if !s.Managed() {
		t.Fatal("expected managed after Manage()")
	}
	s.Manage() // idempotent; must not panic or toggle off
	if !s.Managed() {
		t.Fatal("managed flag must never revert")
	}
}

func TestDeriveAncestorChain(t *testing.T) {
	root := &Series{Flavor: FlavorKeylist, Cells: []cell.Cell{cell.Integer(1)}}
	child := root.Derive()
	grandchild := child.Derive()

	if !root.IsAncestorOf(grandchild) {
		t.Fatal("root should be an ancestor of grandchild")
	}
	if !child.IsAncestorOf(grandchild) {
		t.Fatal("child should be an ancestor of grandchild")
	}
	if grandchild.IsAncestorOf(root) {
		t.Fatal("descendant should not be reported as an ancestor of its own ancestor")
	}

	// Copy-on-write: mutating child must not affect root.
	child.Cells[0] = cell.Integer(99)
	if root.Cells[0].AsInteger() != 1 {
		t.Fatal("Derive should copy cells, not share them")
	}
}
