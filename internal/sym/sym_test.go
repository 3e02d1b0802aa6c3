package sym

import "testing"

func TestInternIsCanonical(t *testing.T) {
	tbl := NewTable()
	a := tbl.Intern("foo")
	b := tbl.Intern("foo")
	if a != b {
		t.Fatal("Intern must return the same pointer for the same name")
	}
	if a.Name() != "foo" {
		t.Fatalf("expected name foo, got %q", a.Name())
	}
}

func TestFixedIDsAreStable(t *testing.T) {
	tbl := NewTable()
	self, ok := tbl.Lookup("self")
	if !ok {
		t.Fatal("expected self to be pre-registered")
	}
	if self.ID() != SelfID {
		t.Fatalf("expected SelfID, got %d", self.ID())
	}
	if _, ok := tbl.Lookup("not-registered-yet"); ok {
		t.Fatal("Lookup must not create entries")
	}
}

func TestInternedSymbolsHaveNoFixedID(t *testing.T) {
	tbl := NewTable()
	s := tbl.Intern("user-word")
	if s.ID() != NoID {
		t.Fatalf("expected NoID for a freshly interned word, got %d", s.ID())
	}
}
