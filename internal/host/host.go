// Package host implements spec.md §6.1's embedding API: a thin,
// host-language-friendly surface over an *eval.Interp — value
// construction/release against a GC-rooted handle list, Run/Spell/
// UnboxInteger, block construction/splicing, and error-to-API
// conversion — plus §5's "one process may host multiple independent
// interpreters" story as a bounded pool of sessions.
//
// Grounded on sentra/internal/concurrency/concurrency.go's WorkerPool
// (fixed worker count, job/result channels, a WaitGroup) reshaped from
// "N goroutines pulling jobs off a queue" into "N independently-owned
// interpreter sessions, checked out and back in like a connection pool",
// since each *eval.Interp is single-threaded-cooperative internally
// (spec.md §5) rather than a stateless worker.
package host

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/wyrd-lang/wyrd/internal/cell"
	"github.com/wyrd-lang/wyrd/internal/errs"
	"github.com/wyrd-lang/wyrd/internal/eval"
	"github.com/wyrd-lang/wyrd/internal/gc"
	"github.com/wyrd-lang/wyrd/internal/series"
)

// Handle is an opaque, API-stable reference to a cell the host language
// holds onto across calls — the embedding equivalent of a REBVAL* in the
// C API spec.md §6.1 is modeled on.
type Handle struct {
	id   uuid.UUID
	cell cell.Cell
}

// Session wraps one *eval.Interp plus its GC arena and the live handle
// table rooting values the host side still references. Not safe for
// concurrent use by multiple goroutines — check one out of a Pool per
// goroutine instead.
type Session struct {
	ID   uuid.UUID
	Interp *eval.Interp
	Arena  *gc.Arena

	mu      sync.Mutex
	handles map[uuid.UUID]*Handle
}

// NewSession boots a fresh interpreter session with natives registered.
func NewSession() *Session {
	in, _ := newBootedInterp()
	return &Session{
		ID:      uuid.New(),
		Interp:  in,
		Arena:   gc.New(),
		handles: make(map[uuid.UUID]*Handle),
	}
}

func newBootedInterp() (*eval.Interp, error) {
	in := eval.NewInterp()
	eval.RegisterNatives(in.Syms, in.Lib)
	return in, nil
}

// NewValue roots c against the session's arena and returns a Handle the
// host can hold onto across calls without c being collected.
func (s *Session) NewValue(c cell.Cell) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := &Handle{id: uuid.New(), cell: c}
	s.handles[h.id] = h
	if arr, ok := c.First.Obj.(*series.Series); ok {
		s.Arena.Root(arr)
	}
	return h
}

// Release drops a handle, making its cell collectible on the next Sweep
// (spec.md §6.1: "the host must explicitly release values it no longer
// needs").
func (s *Session) Release(h *Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handles, h.id)
}

// Value returns the cell a handle addresses.
func (h *Handle) Value() cell.Cell { return h.cell }

// Run evaluates source (already-constructed cells, since the textual
// scanner/loader sits outside this module's scope per spec.md §1) and
// wraps any raised/thrown/internal error into an API-stable error value
// (spec.md §6.1's "errors cross the API boundary as values, not panics").
func (s *Session) Run(arr *series.Series) (*Handle, error) {
	result, err := eval.EvalBlock(s.Interp, arr, nil)
	if err != nil {
		return nil, apiError(err)
	}
	return s.NewValue(result), nil
}

// Spell returns a handle's printed form for string-typed cells, the
// embedding API's "get me the text" convenience (spec.md §6.1).
func (s *Session) Spell(h *Handle) (string, error) {
	if h.cell.Header.Heart != cell.HeartString {
		return "", errs.TypeMismatch("value", "string!")
	}
	return h.cell.AsString(), nil
}

// UnboxInteger returns a handle's raw int64 for integer-typed cells.
func (s *Session) UnboxInteger(h *Handle) (int64, error) {
	if h.cell.Header.Heart != cell.HeartInteger {
		return 0, errs.TypeMismatch("value", "integer!")
	}
	return h.cell.AsInteger(), nil
}

// MakeBlock constructs a new block value from elems, rooting the backing
// series so it outlives the call that built it.
func (s *Session) MakeBlock(elems []cell.Cell) *Handle {
	arr := series.NewArrayFrom(append([]cell.Cell(nil), elems...))
	arr.Manage()
	c := cell.Array(cell.HeartBlock, arr, 0)
	return s.NewValue(c)
}

// Splice appends src's elements onto dst's backing array in place —
// spec.md §6.1's block-splicing convenience, used by hosts building up a
// call expression programmatically rather than through the scanner.
func (s *Session) Splice(dst *Handle, src *Handle) error {
	darr, ok := dst.cell.First.Obj.(*series.Series)
	if !ok {
		return errs.TypeMismatch("dst", "block!")
	}
	sarr, ok := src.cell.First.Obj.(*series.Series)
	if !ok {
		return errs.TypeMismatch("src", "block!")
	}
	for i := src.cell.ArrayIndex(); i < sarr.Len(); i++ {
		if err := darr.Append(sarr.At(i)); err != nil {
			return err
		}
	}
	return nil
}

// apiError normalizes anything EvalBlock can return into a plain error
// safe to hand across the embedding boundary (a *errs.Error's category
// and message, or a *errs.Thrown's escaped-throw message).
func apiError(err error) error {
	if e, ok := errs.AsRaised(err); ok {
		return fmt.Errorf("%s: %s", e.Category, e.Message())
	}
	return err
}

// Pool bounds how many Sessions may be in concurrent use at once,
// matching spec.md §5's "one process may host many interpreters, each
// internally single-threaded" — a process embedding wyrd checks a
// Session out, uses it from one goroutine, and returns it.
type Pool struct {
	sem    *semaphore.Weighted
	mu     sync.Mutex
	idle   []*Session
	capacity int64
}

// NewPool creates a pool allowing up to capacity sessions checked out
// concurrently, lazily constructing new ones as needed up to that bound.
func NewPool(capacity int64) *Pool {
	return &Pool{sem: semaphore.NewWeighted(capacity), capacity: capacity}
}

// Acquire blocks until a session slot is available (or ctx is done),
// returning an idle session if one exists or booting a new one.
func (p *Pool) Acquire(ctx context.Context) (*Session, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.idle); n > 0 {
		s := p.idle[n-1]
		p.idle = p.idle[:n-1]
		return s, nil
	}
	return NewSession(), nil
}

// Release returns s to the idle pool and frees its slot for another
// Acquire.
func (p *Pool) Release(s *Session) {
	p.mu.Lock()
	p.idle = append(p.idle, s)
	p.mu.Unlock()
	p.sem.Release(1)
}
