// Package series implements spec.md §3.3's heap-object layer: the
// reference-counted-by-GC series that backs every array, keylist, varlist,
// paramlist, details array, and byte string in the runtime.
//
// Grounded on vmregister's heap Object family (ArrayObj/MapObj/FunctionObj
// each being an Object header plus a payload slice) generalized to a single
// Series type parameterized by a Flavor tag, the way spec.md describes one
// series shape serving many roles rather than one Go struct per role.
package series

import "github.com/wyrd-lang/wyrd/internal/cell"

// Flavor tags what a series is being used for (spec.md §3.3).
type Flavor uint8

const (
	FlavorByteString Flavor = iota
	FlavorArray
	FlavorKeylist
	FlavorParamlist
	FlavorVarlist
	FlavorDetails
	FlavorLetPatch
	FlavorUsePatch
	FlavorHitchChain
)

// Flags are the series-level flag bits (spec.md §3.3).
type Flags uint16

const (
	FlagFrozen Flags = 1 << iota
	FlagFixedSize
	FlagManaged
	FlagInaccessible
	FlagMarkedBlack
)

// Series is the single heap-object shape backing arrays, keylists,
// varlists, paramlists, and details arrays. Which fields are meaningful
// depends on Flavor: byte-string flavors use Bytes; every other flavor uses
// Cells.
type Series struct {
	Flavor Flavor
	Flags  Flags

	Cells []cell.Cell
	Bytes []byte

	// Ancestor links a keylist to the keylist it was copy-on-write derived
	// from, forming the derivation chain spec.md §3.4 requires for
	// "descendant of" checks during derived binding (bind package).
	Ancestor *Series
}

// NewArray creates an empty, growable cell-array series.
func NewArray() *Series {
	return &Series{Flavor: FlavorArray, Cells: make([]cell.Cell, 0, 4)}
}

// NewArrayFrom wraps an existing slice of cells as an array series without
// copying.
func NewArrayFrom(cells []cell.Cell) *Series {
	return &Series{Flavor: FlavorArray, Cells: cells}
}

// NewSingular creates a one-cell array — spec.md's "lightweight
// heap-allocated cell container" used for things like a let-patch's slot.
func NewSingular(c cell.Cell) *Series {
	return &Series{Flavor: FlavorArray, Cells: []cell.Cell{c}}
}

// NewByteString creates a byte-string flavored series for spelling data.
func NewByteString(s string) *Series {
	return &Series{Flavor: FlavorByteString, Bytes: []byte(s)}
}

// Len implements cell.ArraySeries.
func (s *Series) Len() int { return len(s.Cells) }

// At implements cell.ArraySeries.
func (s *Series) At(i int) cell.Cell { return s.Cells[i] }

// Set writes v at index i, refusing if the series is frozen or inaccessible.
func (s *Series) Set(i int, v cell.Cell) error {
	if s.Flags&FlagFrozen != 0 {
		return ErrFrozen
	}
	if s.Flags&FlagInaccessible != 0 {
		return ErrInaccessible
	}
	s.Cells[i] = v
	return nil
}

// Append grows the series by one cell, refusing fixed-size/frozen series.
func (s *Series) Append(v cell.Cell) error {
	if s.Flags&FlagFrozen != 0 {
		return ErrFrozen
	}
	if s.Flags&FlagFixedSize != 0 {
		return ErrFixedSize
	}
	if s.Flags&FlagInaccessible != 0 {
		return ErrInaccessible
	}
	s.Cells = append(s.Cells, v)
	return nil
}

// Freeze marks the series read-only, idempotently (round-trip identity
// per spec.md §8 depends on frozen series never silently changing shape).
func (s *Series) Freeze() { s.Flags |= FlagFrozen }

func (s *Series) Frozen() bool       { return s.Flags&FlagFrozen != 0 }
func (s *Series) Inaccessible() bool { return s.Flags&FlagInaccessible != 0 }

// MarkInaccessible flips the series dead (spec.md §3.7: "freeing a context
// marks its varlist inaccessible"). It never reverts.
func (s *Series) MarkInaccessible() { s.Flags |= FlagInaccessible }

// Manage flips the series GC-managed exactly once (spec.md §3.7: "a series
// flips to managed exactly once and never reverts").
func (s *Series) Manage() { s.Flags |= FlagManaged }

func (s *Series) Managed() bool { return s.Flags&FlagManaged != 0 }

// IsAncestorOf reports whether s is somewhere in other's Ancestor chain —
// the "descendant of" test the binder's derived-binding step needs
// (spec.md §4.1 step 2).
func (s *Series) IsAncestorOf(other *Series) bool {
	for cur := other; cur != nil; cur = cur.Ancestor {
		if cur == s {
			return true
		}
		// A self-referential Ancestor is the derivation-chain root sentinel
		// (spec.md §9); stop rather than loop forever.
		if cur.Ancestor == cur {
			return false
		}
	}
	return false
}

// Derive makes a copy-on-write child keylist/varlist series whose Ancestor
// is s.
func (s *Series) Derive() *Series {
	cells := make([]cell.Cell, len(s.Cells))
	copy(cells, s.Cells)
	return &Series{Flavor: s.Flavor, Cells: cells, Ancestor: s}
}

type seriesError string

func (e seriesError) Error() string { return string(e) }

const (
	ErrFrozen       = seriesError("series: frozen, cannot mutate")
	ErrFixedSize    = seriesError("series: fixed-size, cannot grow")
	ErrInaccessible = seriesError("series: inaccessible (freed)")
)
