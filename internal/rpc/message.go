// internal/rpc/message.go
package rpc

import (
	"context"
	"fmt"
	"sort"

	"github.com/tamzrod/amc-monitor/internal/errcode"
)

// Caller issues one named remote call.
// A reply carrying an "error" field is returned as an errcode.RPCMethod error,
// transport failures as errcode.Transport. A nil error always means a usable Response.
type Caller interface {
	Call(ctx context.Context, req *Request) (Response, error)
}

// Arg is one named request argument: a 32-bit word or a string.
type Arg struct {
	Name     string
	Word     uint32
	Str      string
	IsString bool
}

// Request is a method name plus ordered arguments.
type Request struct {
	Method string
	Args   []Arg
}

// NewRequest starts a request for method.
func NewRequest(method string) *Request {
	return &Request{Method: method}
}

// SetWord appends (or replaces) a word argument.
func (r *Request) SetWord(name string, v uint32) *Request {
	return r.set(Arg{Name: name, Word: v})
}

// SetBool appends a boolean as a 0/1 word.
func (r *Request) SetBool(name string, b bool) *Request {
	var v uint32
	if b {
		v = 1
	}
	return r.set(Arg{Name: name, Word: v})
}

// SetString appends (or replaces) a string argument.
func (r *Request) SetString(name, s string) *Request {
	return r.set(Arg{Name: name, Str: s, IsString: true})
}

func (r *Request) set(a Arg) *Request {
	for i := range r.Args {
		if r.Args[i].Name == a.Name {
			r.Args[i] = a
			return r
		}
	}
	r.Args = append(r.Args, a)
	return r
}

// Word returns a word argument by name.
func (r *Request) Word(name string) (uint32, bool) {
	for _, a := range r.Args {
		if a.Name == name && !a.IsString {
			return a.Word, true
		}
	}
	return 0, false
}

// Response holds the fields of a successful reply.
// It never carries an error: that case is decoded into an error at the transport boundary.
type Response struct {
	Method  string
	words   map[string]uint32
	strings map[string]string
}

// NewResponse builds a successful reply. Used by transports and test fakes.
func NewResponse(method string, words map[string]uint32, strs map[string]string) Response {
	return Response{Method: method, words: words, strings: strs}
}

// Has reports whether a field of either type is present.
func (r Response) Has(name string) bool {
	if _, ok := r.words[name]; ok {
		return true
	}
	_, ok := r.strings[name]
	return ok
}

// Word returns a word field, or an errcode.MissingField error.
func (r Response) Word(name string) (uint32, error) {
	v, ok := r.words[name]
	if !ok {
		return 0, errcode.New(errcode.MissingField, r.Method, fmt.Sprintf("word %q absent from reply", name))
	}
	return v, nil
}

// String returns a string field, or an errcode.MissingField error.
func (r Response) String(name string) (string, error) {
	v, ok := r.strings[name]
	if !ok {
		return "", errcode.New(errcode.MissingField, r.Method, fmt.Sprintf("string %q absent from reply", name))
	}
	return v, nil
}

// WordKeys returns the word field names in sorted order.
func (r Response) WordKeys() []string {
	keys := make([]string, 0, len(r.words))
	for k := range r.words {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CallerFunc adapts a function to Caller.
type CallerFunc func(ctx context.Context, req *Request) (Response, error)

func (f CallerFunc) Call(ctx context.Context, req *Request) (Response, error) {
	return f(ctx, req)
}
