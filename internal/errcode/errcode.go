// internal/errcode/errcode.go
package errcode

import "errors"

// Code is a stable error identifier shared by the device, registry and poller layers.
// It is a string newtype, comparable, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes.
const (
	OK Code = "ok"

	Transport     Code = "transport"      // RPC endpoint or register bus unreachable
	RPCMethod     Code = "rpc_method"     // remote side replied with an "error" field
	LinkInvalid   Code = "link_invalid"   // link index out of range or inactive
	Connectivity  Code = "connectivity"   // board identity check failed
	MissingField  Code = "missing_field"  // reply lacks a declared field
	Protocol      Code = "protocol"       // reply shape violates the call contract
	DuplicateName Code = "duplicate_name" // registry setup collision
	InvalidParams Code = "invalid_params"

	Error Code = "error" // generic fallback
)

// Num maps a code to the numeric value exported in the board status block.
// 0 is reserved for "no error".
func (c Code) Num() uint16 {
	switch c {
	case OK:
		return 0
	case Transport:
		return 10
	case RPCMethod:
		return 11
	case LinkInvalid:
		return 20
	case Connectivity:
		return 21
	case MissingField:
		return 30
	case Protocol:
		return 31
	case DuplicateName:
		return 40
	case InvalidParams:
		return 41
	default:
		return 1
	}
}

// E wraps a code with the failing operation, a message and an optional cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, errcode.Transport) match a wrapped *E.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// New builds an *E.
func New(c Code, op, msg string) *E {
	return &E{C: c, Op: op, Msg: msg}
}

// Wrap builds an *E around a cause. Returns nil when err is nil.
func Wrap(c Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	return Error
}

// Message returns the remote/explanatory message carried by an *E, if any.
func Message(err error) string {
	var e *E
	if errors.As(err, &e) {
		return e.Msg
	}
	return ""
}
