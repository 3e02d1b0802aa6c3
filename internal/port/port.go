// Package port implements spec.md §6.2's Port actor-verb dispatch
// protocol: spec/state/actor triple, verb dispatch function, and the
// in-memory stub port every higher-level I/O word (OPEN/READ/WRITE/
// CLOSE/QUERY) ultimately reduces to.
//
// Grounded on sentra/internal/filesystem/filesystem.go's FileHandle
// (verb-shaped methods: Open/Read/Write/Seek/Close over a tracked
// offset), reshaped from "a handle with methods" into the
// actor(port, verb, args) single-entry-point dispatch spec.md
// describes, so a future real filesystem/network port can be added as
// just another Actor value without touching the word-level OPEN/READ/etc
// implementations.
package port

import (
	"github.com/wyrd-lang/wyrd/internal/cell"
	"github.com/wyrd-lang/wyrd/internal/errs"
)

// Verb is one of the fixed actions a Port's actor must understand.
type Verb uint8

const (
	VerbOpen Verb = iota
	VerbRead
	VerbWrite
	VerbAppend
	VerbSeek
	VerbQuery
	VerbClose
	VerbRename
)

// Actor is a port's dispatch function: given the port and a verb's
// arguments, perform the action and return a result cell.
type Actor func(p *Port, verb Verb, args []cell.Cell) (cell.Cell, error)

// Port is spec.md §6.2's {spec, state, actor} triple.
type Port struct {
	Spec  cell.Cell // an object describing the target (scheme, ref, ...)
	Actor Actor

	open   bool
	buf    []byte
	offset int // 0-based, as DESIGN.md's port-interface entry records
}

// NewMemory creates an in-memory stub port: writes accumulate into an
// in-process buffer, reads consume it, seeks move a 0-based offset.
func NewMemory(spec cell.Cell) *Port {
	p := &Port{Spec: spec}
	p.Actor = memoryActor
	return p
}

// Do is the single entry point every I/O word funnels through (spec.md
// §6.2's actor dispatch, here taking port, verb, and args).
func (p *Port) Do(verb Verb, args []cell.Cell) (cell.Cell, error) {
	return p.Actor(p, verb, args)
}

func memoryActor(p *Port, verb Verb, args []cell.Cell) (cell.Cell, error) {
	switch verb {
	case VerbOpen:
		p.open = true
		p.offset = 0
		return cell.Logic(true), nil

	case VerbRead:
		if !p.open {
			return cell.None(), errs.New(errs.Access, "port-not-open", "port is not open")
		}
		if p.offset >= len(p.buf) {
			// EOF read returns null (none), as DESIGN.md's port-interface
			// entry records — not an error and not an empty string.
			return cell.None(), nil
		}
		n := len(p.buf) - p.offset
		data := string(p.buf[p.offset : p.offset+n])
		p.offset += n
		return cell.String(data), nil

	case VerbWrite, VerbAppend:
		if !p.open {
			return cell.None(), errs.New(errs.Access, "port-not-open", "port is not open")
		}
		// Zero-size write short-circuit decision: with no data argument,
		// still issue a zero-length write rather than skip it (DESIGN.md).
		data := ""
		if len(args) > 0 {
			data = args[0].AsString()
		}
		p.buf = append(p.buf, []byte(data)...)
		// write/append both reset offset to the new size, as DESIGN.md's
		// port-interface entry records.
		p.offset = len(p.buf)
		return cell.Integer(int64(len(data))), nil

	case VerbSeek:
		if len(args) == 0 {
			return cell.None(), errs.NoArg("offset")
		}
		target := int(args[0].AsInteger())
		if target < 0 || target > len(p.buf) {
			return cell.None(), errs.New(errs.Access, "bad-seek", "seek offset out of range")
		}
		p.offset = target
		return cell.Integer(int64(target)), nil

	case VerbQuery:
		return cell.Integer(int64(len(p.buf))), nil

	case VerbClose:
		p.open = false
		return cell.None(), nil

	case VerbRename:
		if p.open {
			return cell.None(), errs.New(errs.Access, "port-open", "cannot rename an open port")
		}
		return cell.Logic(true), nil
	}
	return cell.None(), errs.New(errs.Script, "bad-verb", "port does not understand this verb")
}
