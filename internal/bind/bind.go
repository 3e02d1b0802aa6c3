// Package bind implements spec.md §3.6 and §4.1–§4.2: the specifier chain
// (let-patch / use-patch / varlist-tail) and the Binder that walks it to
// resolve a word to a variable location.
//
// Grounded on sentra/internal/module/module.go's ModuleLoader (cache-by-
// name, search-path, builtin fallback) for the module-fallback step, and on
// vm.go's two-tier globals-array/locals-array split for the "check the
// chain, then fall through to a context lookup" shape.
package bind

import (
	"github.com/wyrd-lang/wyrd/internal/cell"
	"github.com/wyrd-lang/wyrd/internal/ctx"
	"github.com/wyrd-lang/wyrd/internal/series"
	"github.com/wyrd-lang/wyrd/internal/sym"
)

// Mode is the binder's read/write/read-if-attached contract parameter
// (spec.md §4.1).
type Mode uint8

const (
	ModeRead Mode = iota
	ModeWrite
	ModeReadIfAttached
)

// ActionIdentity is the minimal contract bind needs from an action's
// "phase" to implement relative binding (spec.md §4.1 step 2, "the
// specifier MUST name a frame whose phase is base-of the bound action").
// internal/eval.Action implements this; bind never imports eval, breaking
// what would otherwise be an eval<->bind package cycle.
type ActionIdentity interface {
	// IsBaseOf reports whether the receiver is the underlying phase of
	// (or the same phase as) other — i.e. other was produced by
	// specializing/adapting/chaining on top of the receiver.
	IsBaseOf(other ActionIdentity) bool
}

// SpecKind tags a Specifier chain node's variant (spec.md §3.6).
type SpecKind uint8

const (
	KindLet SpecKind = iota
	KindUse
	KindFrameTail
)

// Specifier is one node of a binding chain. Exactly one kind's fields are
// meaningful, mirroring the teacher's flat-struct-with-tag convention
// (EnhancedCallFrame/ScopeFrame) rather than an interface hierarchy, since
// Go's GC already traces every field regardless and a flat struct keeps the
// hot resolve loop allocation-free.
type Specifier struct {
	Kind SpecKind

	// KindLet
	LetSym  *sym.Symbol
	LetSlot *series.Series // singular array; Location{LetSlot, 0}

	// KindUse
	UseCtx    *ctx.Context
	UseFilter Mode // the only Mode this patch answers; ModeRead|ModeWrite both match if unset

	// KindFrameTail
	Frame *ctx.Context // the relative frame's varlist-bearing context

	Next   *Specifier
	Reused bool // set by Merge when the chain was reused rather than rebuilt
}

// NewLetPatch creates a single-symbol binding node (spec.md's LET).
func NewLetPatch(s *sym.Symbol, v cell.Cell, next *Specifier) *Specifier {
	return &Specifier{Kind: KindLet, LetSym: s, LetSlot: series.NewSingular(v), Next: next}
}

// NewUsePatch creates a context-scope binding node (spec.md's USE).
// A zero Mode value for filter means "applies in every mode".
func NewUsePatch(c *ctx.Context, filter Mode, next *Specifier) *Specifier {
	return &Specifier{Kind: KindUse, UseCtx: c, UseFilter: filter, Next: next}
}

// NewFrameTail terminates a chain at a relative frame (spec.md's
// "varlist tail — signals the relative-frame at the bottom of the chain").
func NewFrameTail(frame *ctx.Context) *Specifier {
	return &Specifier{Kind: KindFrameTail, Frame: frame}
}

// Location addresses one variable slot: a series plus an index, standing
// in for "a pointer to the variable cell" (spec.md §4.1's contract) without
// holding a raw Go pointer that a growing slice could invalidate.
type Location struct {
	Series *series.Series
	Index  int
}

func (l Location) Get() cell.Cell          { return l.Series.At(l.Index) }
func (l Location) Set(v cell.Cell) error   { return l.Series.Set(l.Index, v) }
func (l Location) Valid() bool             { return l.Series != nil }

// BindKind tags what a word's stored binding (cell.Extra) points at.
type BindKind uint8

const (
	Unbound BindKind = iota
	ToPatch
	ToContext
	ToAction
)

// Binding is what a bound word's Extra slot holds (spec.md §3.1: "for
// words it is the binding node").
type Binding struct {
	Kind   BindKind
	Patch  *Specifier     // ToPatch
	Ctx    *ctx.Context   // ToContext
	Action ActionIdentity // ToAction
}

func BindingOf(w cell.Cell) *Binding {
	b, _ := w.Binding().(*Binding)
	return b
}

// Binder resolves words against specifier chains. It is interpreter-scoped
// (no package-level globals, per spec.md §9's "no hidden singletons").
type Binder struct {
	// Library is the single designated inheritance-source module consulted
	// on a read-mode module-lookup miss (spec.md §4.1 step 3).
	Library *ctx.Context

	// Global is the context a word with no binding at all defaults to —
	// the role a real reader's "bind this block to the user context as you
	// LOAD it" step plays, which this module has no textual reader to
	// perform. Cells built directly through the host API start Unbound, so
	// Resolve treats a never-bound word as if it carried a ToContext
	// binding to Global, giving top-level library words (add, if, ...)
	// somewhere to resolve against without every caller having to attach a
	// binding by hand.
	Global *ctx.Context
}

func New() *Binder { return &Binder{} }

// Resolve implements spec.md §4.1's full algorithm. callerFrame is the
// currently-executing frame's context, used for the derived-binding
// substitution in step 2.
func (b *Binder) Resolve(word cell.Cell, chain *Specifier, mode Mode, callerFrame *ctx.Context) (Location, error) {
	name, _ := word.Symbol().(*sym.Symbol)

	// Step 1: walk the specifier chain head-to-tail.
	var frameTail *ctx.Context
	for node := chain; node != nil; node = node.Next {
		switch node.Kind {
		case KindLet:
			if node.LetSym == name {
				return Location{node.LetSlot, 0}, nil
			}
		case KindUse:
			if node.UseFilter != 0 && node.UseFilter != mode {
				continue
			}
			if idx := node.UseCtx.IndexOf(name); idx != 0 {
				return Location{node.UseCtx.Varlist, idx}, nil
			}
		case KindFrameTail:
			frameTail = node.Frame
		}
	}

	// Step 2: consult the word's own stored binding, defaulting a truly
	// unbound word to Global if the binder has one.
	bound := BindingOf(word)
	if bound == nil || bound.Kind == Unbound {
		if b.Global != nil {
			bound = &Binding{Kind: ToContext, Ctx: b.Global}
		} else if mode == ModeReadIfAttached {
			return Location{}, nil
		} else {
			return Location{}, errUnbound(name)
		}
	}

	switch bound.Kind {
	case ToPatch:
		switch bound.Patch.Kind {
		case KindLet:
			return Location{bound.Patch.LetSlot, 0}, nil
		case KindUse:
			if idx := bound.Patch.UseCtx.IndexOf(name); idx != 0 {
				return Location{bound.Patch.UseCtx.Varlist, idx}, nil
			}
			return Location{}, errUnbound(name)
		}
		return Location{}, errUnbound(name)

	case ToContext:
		target := bound.Ctx
		// Derived binding: if the caller's frame is a more-derived
		// descendant of the stored context, substitute it (spec.md §4.1
		// step 2).
		if callerFrame != nil && callerFrame != target && callerFrame.IsDescendantOf(target) {
			target = callerFrame
		}
		if idx := target.IndexOf(name); idx != 0 {
			return Location{target.Varlist, idx}, nil
		}
		// Step 3: module fallback.
		if target.IsModule {
			if mode == ModeWrite && !target.ProtectedRoot {
				idx := target.Attach(name, cell.None())
				return Location{target.Varlist, idx}, nil
			}
			if mode != ModeWrite && b.Library != nil {
				if idx := b.Library.IndexOf(name); idx != 0 {
					return Location{b.Library.Varlist, idx}, nil
				}
			}
		}
		if mode == ModeReadIfAttached {
			return Location{}, nil
		}
		return Location{}, errUnbound(name)

	case ToAction:
		if frameTail == nil || bound.Action == nil {
			return Location{}, errUnbound(name)
		}
		// The specifier must name a frame whose phase is base-of the
		// bound action (relative binding, spec.md §4.1 step 2).
		if phase, ok := frameTail.Archetype().Extra.(ActionIdentity); ok {
			if !bound.Action.IsBaseOf(phase) && !phase.IsBaseOf(bound.Action) {
				return Location{}, errUnbound(name)
			}
		}
		idx := word.CachedIndex()
		if idx <= 0 {
			return Location{}, errUnbound(name)
		}
		return Location{frameTail.Varlist, idx}, nil
	}

	return Location{}, errUnbound(name)
}

// CacheIfOwning writes a resolved Location back into w's binding only when
// ctx directly names the owning context — spec.md §4.1's cache policy.
// Inherited bindings (ctx != the one actually storing the slot) must not be
// cached so future overrides stay visible.
func CacheIfOwning(w cell.Cell, owner *ctx.Context, loc Location) cell.Cell {
	if owner == nil || loc.Series != owner.Varlist {
		return w
	}
	return w.WithBinding(&Binding{Kind: ToContext, Ctx: owner}).WithCachedIndex(loc.Index)
}

// Merge implements spec.md §4.2. When inner is already reachable as outer's
// tail the outer chain is returned unchanged (the reuse case); otherwise a
// new chain is built by copying outer's nodes with inner spliced onto the
// deepest one, and the returned head's Reused flag is false so callers know
// a rebuild happened.
func Merge(outer, inner *Specifier) *Specifier {
	if outer == nil {
		return inner
	}
	if inner == nil {
		return outer
	}
	for node := outer; node != nil; node = node.Next {
		if node.Next == inner {
			outer.Reused = true
			return outer
		}
	}
	return rebuild(outer, inner)
}

func rebuild(outer, inner *Specifier) *Specifier {
	cp := *outer
	cp.Reused = false
	if outer.Next == nil {
		cp.Next = inner
	} else {
		cp.Next = rebuild(outer.Next, inner)
	}
	return &cp
}

type bindError string

func (e bindError) Error() string { return string(e) }

func errUnbound(s *sym.Symbol) error {
	if s == nil {
		return bindError("bind: unbound word")
	}
	return bindError("bind: " + s.Name() + " is unbound")
}
