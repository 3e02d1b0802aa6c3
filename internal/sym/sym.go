// Package sym interns symbol names so that two symbols compare equal iff
// their pointers are equal, matching spec.md's word-comparison invariant.
package sym

import "sync"

// Symbol is an interned name. The zero value is never returned by Intern;
// Symbol(nil) is used by callers that need an explicit "no symbol" sentinel.
type Symbol struct {
	name string
	id   ID
}

// ID is a small integer assigned to symbols that native dispatch code wants
// to switch on directly instead of comparing pointers (spec.md §3.2).
type ID int32

// NoID marks a symbol with no fixed small-integer identity.
const NoID ID = -1

func (s *Symbol) String() string { return s.name }

// Name returns the interned text.
func (s *Symbol) Name() string { return s.name }

// ID returns the symbol's fixed small ID, or NoID if it has none.
func (s *Symbol) ID() ID { return s.id }

// Table is an interpreter-scoped symbol table. Per spec.md §9's "no hidden
// singletons" guidance there is no package-level global table: every
// Interpreter owns one and passes it explicitly.
type Table struct {
	mu      sync.RWMutex
	byName  map[string]*Symbol
	fixed   map[string]ID
	nextID  ID
}

// NewTable creates an empty table and pre-registers the fixed-ID symbols
// native dispatch code relies on (self, true/false words, composition
// primitive names — spec.md §4.1 "fixed small integer IDs for switch-dispatch").
func NewTable() *Table {
	t := &Table{
		byName: make(map[string]*Symbol, 256),
		fixed:  make(map[string]ID, 64),
	}
	for _, name := range fixedNames {
		t.reserve(name)
	}
	return t
}

// fixedNames are given stable IDs in registration order so that native code
// can hard-code small-int comparisons (e.g. `sym.ID() == sym.SelfID`).
var fixedNames = []string{
	"self", "true", "false", "null", "void",
	"specialize", "adapt", "chain", "enclose", "hijack", "lambda",
	"return", "value", "opt", "end",
}

// Well-known fixed IDs, in the order fixedNames registers them.
const (
	SelfID ID = iota
	TrueID
	FalseID
	NullID
	VoidID
	SpecializeID
	AdaptID
	ChainID
	EncloseID
	HijackID
	LambdaID
	ReturnID
	ValueID
	OptID
	EndID
)

func (t *Table) reserve(name string) *Symbol {
	id := t.nextID
	t.nextID++
	s := &Symbol{name: name, id: id}
	t.byName[name] = s
	t.fixed[name] = id
	return s
}

// Intern returns the canonical Symbol for name, creating it on first use.
func (t *Table) Intern(name string) *Symbol {
	t.mu.RLock()
	if s, ok := t.byName[name]; ok {
		t.mu.RUnlock()
		return s
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.byName[name]; ok {
		return s
	}
	s := &Symbol{name: name, id: NoID}
	t.byName[name] = s
	return s
}

// Lookup returns the interned Symbol for name if it already exists, without
// creating one.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.byName[name]
	return s, ok
}

// Len reports how many distinct symbols have been interned.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byName)
}
