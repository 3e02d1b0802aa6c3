package eval

import (
	"github.com/wyrd-lang/wyrd/internal/bind"
	"github.com/wyrd-lang/wyrd/internal/cell"
	"github.com/wyrd-lang/wyrd/internal/ctx"
	"github.com/wyrd-lang/wyrd/internal/errs"
	"github.com/wyrd-lang/wyrd/internal/sym"
)

// PathSignal is what one step of path/tuple dispatch reports back to its
// caller (spec.md §4.6): a plain value was produced, a mutable reference
// was produced (so a further SET-PATH! write can land), the dispatcher
// wants its picked member run as if invisible (skip it and keep walking),
// or the step could not be handled at all.
type PathSignal uint8

const (
	PathValue PathSignal = iota
	PathReference
	PathInvisible
	PathUnhandled
	PathThrown
)

// PathStep is one post-dispatch result: the produced value/location and
// which signal produced it.
type PathStep struct {
	Signal PathSignal
	Value  cell.Cell
	// Owner/Index address the slot a PathReference points at, so a
	// trailing SET-PATH! write lands in the right place (spec.md §4.6:
	// "each step may produce either a value or a reference").
	Owner *ctx.Context
	Index int
}

// EvalPath walks a path or tuple sequence cell, dispatching each step
// against the value produced by the previous one (spec.md §4.6). set, if
// non-nil, is the value a trailing SET-PATH!/SET-TUPLE! assigns into the
// final step's slot; for a plain GET dispatch pass nil.
//
// Grounded on sentra's vm.go OP_GET_PROPERTY/OP_SET_PROPERTY chain-walk
// (repeatedly re-dispatching on the receiver produced by the prior step),
// generalized to the refinement-accumulating, reference-vs-value
// dispatcher-signal protocol spec.md §4.6 requires.
func EvalPath(in *Interp, l *Level, seq cell.Cell, set *cell.Cell) (_ cell.Cell, err error) {
	arr := seq.ArrayValue()
	n := arr.Len()
	if n == 0 {
		return cell.None(), errs.New(errs.Script, "bad-path", "path has no steps")
	}

	mark := in.MarkDataStack()
	defer func() {
		// Refinements picked up along the way are left for the action-call
		// fulfillment step to consume; anything still unconsumed when this
		// path finishes evaluating is a bug in that consumer, not here, so
		// this only guards against leaks on an error return.
		if err != nil && in.DataDepth() > mark {
			in.CutDataStackTo(mark)
		}
	}()

	head := arr.At(0)
	cur, err := evalPathHead(in, l, head)
	if err != nil {
		return cell.None(), err
	}

	for i := 1; i < n; i++ {
		step := arr.At(i)
		last := i == n-1

		if step.Header.Heart == cell.HeartGroup && (l == nil || l.Flags&LevelFlagNoGroups == 0) {
			// A GROUP! step is evaluated first to produce the actual
			// picker value (spec.md §4.3 edge case: "groups inside paths
			// evaluate unless a 'no-groups' flag is set (e.g. under
			// GET)"). Under GET the group cell itself is used as the step
			// instead, left unhandled by dispatchStep/stepSymbol (which
			// only understand word-like steps) so a get-path containing a
			// group predictably fails dispatch rather than running code.
			var rerr error
			step, rerr = evalInline(in, l, step)
			if rerr != nil {
				return cell.None(), rerr
			}
		}

		var assign *cell.Cell
		if last && set != nil {
			assign = set
		}

		result, perr := dispatchStep(in, l, cur, step, assign)
		if perr != nil {
			return cell.None(), perr
		}
		switch result.Signal {
		case PathUnhandled:
			return cell.None(), errs.New(errs.Script, "bad-path-step",
				"cannot dispatch path step %v on %v", step.Header.Heart, cur.Header.Heart)
		case PathThrown:
			return cell.None(), errs.New(errs.Internal, "path-throw-unrouted",
				"path dispatch step produced a throw with no caller to propagate it to")
		}
		cur = result.Value
	}

	return cur, nil
}

// evalPathHead resolves a path's first element: a word looks up a
// variable, anything else (literal block, group, etc.) is used as-is or
// evaluated if it's a group (spec.md §4.6's "inert heads pass through").
func evalPathHead(in *Interp, l *Level, head cell.Cell) (cell.Cell, error) {
	switch head.Header.Heart {
	case cell.HeartWord:
		return lookupWord(in, l, head)
	case cell.HeartGroup:
		if l != nil && l.Flags&LevelFlagNoGroups != 0 {
			return head, nil
		}
		return evalInline(in, l, head)
	default:
		return head, nil
	}
}

// dispatchStep picks step off of receiver. Contexts and actions are the
// two dispatchers this runtime ships; anything else is PathUnhandled.
func dispatchStep(in *Interp, l *Level, receiver, step cell.Cell, assign *cell.Cell) (PathStep, error) {
	switch receiver.Header.Heart {
	case cell.HeartContext:
		return dispatchContextStep(receiver, step, assign)
	case cell.HeartAction:
		// A refinement name encountered mid-path is accumulated on the
		// data stack rather than dispatched (spec.md §4.3): the action
		// call that follows consumes it during fulfillment.
		if step.Header.Heart == cell.HeartWord {
			in.PushData(step)
			return PathStep{Signal: PathInvisible, Value: receiver}, nil
		}
		return PathStep{Signal: PathUnhandled}, nil
	default:
		return PathStep{Signal: PathUnhandled}, nil
	}
}

func dispatchContextStep(receiver, step cell.Cell, assign *cell.Cell) (PathStep, error) {
	c, ok := receiver.First.Obj.(*ctx.Context)
	if !ok {
		return PathStep{Signal: PathUnhandled}, nil
	}
	name, ok := stepSymbol(step)
	if !ok {
		return PathStep{Signal: PathUnhandled}, nil
	}
	idx := c.IndexOf(name)
	if idx == 0 {
		return PathStep{}, errs.Unbound(name.Name())
	}
	if assign != nil {
		if err := c.SetValueAt(idx, *assign); err != nil {
			return PathStep{}, errs.ProtectedSeries()
		}
		return PathStep{Signal: PathValue, Value: *assign}, nil
	}
	return PathStep{Signal: PathReference, Value: c.ValueAt(idx), Owner: c, Index: idx}, nil
}

func stepSymbol(step cell.Cell) (*sym.Symbol, bool) {
	switch step.Header.Heart {
	case cell.HeartWord, cell.HeartLitWord, cell.HeartGetWord:
		s, ok := step.Symbol().(*sym.Symbol)
		return s, ok
	default:
		return nil, false
	}
}

// lookupWord and evalInline are small seams onto the main evaluator loop
// (in eval.go); path dispatch needs both to run a group-in-path step and
// to resolve a bare word path head.
func lookupWord(in *Interp, l *Level, w cell.Cell) (cell.Cell, error) {
	var frame *ctx.Context
	if l != nil {
		frame = l.Frame
	}
	return resolveWord(in, frame, nil, w, bind.ModeRead)
}

func evalInline(in *Interp, l *Level, group cell.Cell) (cell.Cell, error) {
	return EvalStep(in, l, group)
}
