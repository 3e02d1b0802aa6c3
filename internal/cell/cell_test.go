package cell

import "testing"

func TestQuoteRoundTrip(t *testing.T) {
	c := Integer(42)
	q := c.Quote().Quote()
	if !q.Header.Quote.IsQuoted() || q.Header.Quote.QuoteDepth() != 2 {
		t.Fatalf("expected quote depth 2, got %d", q.Header.Quote.QuoteDepth())
	}
	u := q.Unquote()
	if u.Header.Quote.QuoteDepth() != 1 {
		t.Fatalf("expected quote depth 1 after one unquote, got %d", u.Header.Quote.QuoteDepth())
	}
	u = u.Unquote()
	if !u.Header.Quote.IsPlain() {
		t.Fatalf("expected plain after unquoting back to zero")
	}
	if u.AsInteger() != 42 {
		t.Fatalf("payload corrupted across quote/unquote: got %d", u.AsInteger())
	}
}

func TestQuasiAntiformRoundTrip(t *testing.T) {
	c := Logic(true)
	quasi := c.Quasi()
	if !quasi.Header.Quote.IsQuasi() {
		t.Fatal("expected quasi")
	}
	anti := quasi.Antiform()
	if !anti.Header.Quote.IsAnti() {
		t.Fatal("expected antiform")
	}
	if anti.Stable() {
		t.Fatal("antiform must not be stable (invariant 2)")
	}
	plain := anti.Unquasi()
	if !plain.Header.Quote.IsPlain() || !plain.AsLogic() {
		t.Fatal("unquasi should restore the plain value")
	}
}

func TestAntiformOfNonQuasiPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic antiform-ing a plain cell")
		}
	}()
	Integer(1).Antiform()
}

func TestStaleFlag(t *testing.T) {
	c := None()
	if c.IsStale() {
		t.Fatal("fresh cell should not be stale")
	}
	s := c.Stale()
	if !s.IsStale() {
		t.Fatal("Stale() should set the flag")
	}
	if s.ClearStale().IsStale() {
		t.Fatal("ClearStale should remove the flag")
	}
}

func TestDecimalRoundTrip(t *testing.T) {
	c := Decimal(3.5)
	if c.AsDecimal() != 3.5 {
		t.Fatalf("expected 3.5, got %v", c.AsDecimal())
	}
}
