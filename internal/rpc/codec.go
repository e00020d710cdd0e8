// internal/rpc/codec.go
package rpc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/tamzrod/amc-monitor/internal/errcode"
)

// Frame layout (LOCKED):
//
//	0–3  body length, big-endian
//	4+   CBOR body
//
// Bodies above MaxFrameSize are rejected on read.
const MaxFrameSize = 1 << 20

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("rpc: cbor encoder mode: %v", err))
	}

	decMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("rpc: cbor decoder mode: %v", err))
	}
}

type wireArg struct {
	Name string  `cbor:"1,keyasint"`
	Word *uint32 `cbor:"2,keyasint,omitempty"`
	Str  *string `cbor:"3,keyasint,omitempty"`
}

type wireRequest struct {
	ID     string    `cbor:"1,keyasint"`
	Method string    `cbor:"2,keyasint"`
	Args   []wireArg `cbor:"3,keyasint,omitempty"`
}

type wireReply struct {
	ID      string            `cbor:"1,keyasint"`
	Words   map[string]uint32 `cbor:"2,keyasint,omitempty"`
	Strings map[string]string `cbor:"3,keyasint,omitempty"`
	Error   *string           `cbor:"4,keyasint,omitempty"`
}

func toWire(id string, req *Request) wireRequest {
	w := wireRequest{ID: id, Method: req.Method}
	for _, a := range req.Args {
		a := a
		wa := wireArg{Name: a.Name}
		if a.IsString {
			wa.Str = &a.Str
		} else {
			wa.Word = &a.Word
		}
		w.Args = append(w.Args, wa)
	}
	return w
}

func fromWire(w wireRequest) (*Request, error) {
	req := NewRequest(w.Method)
	for _, a := range w.Args {
		switch {
		case a.Word != nil && a.Str == nil:
			req.SetWord(a.Name, *a.Word)
		case a.Str != nil && a.Word == nil:
			req.SetString(a.Name, *a.Str)
		default:
			return nil, fmt.Errorf("rpc: argument %q must carry exactly one of word/string", a.Name)
		}
	}
	return req, nil
}

// decodeReply turns a wire reply into a Response or an error.
// A reply is either fields or an error message, never both.
func decodeReply(method string, w wireReply) (Response, error) {
	if w.Error != nil {
		if len(w.Words) > 0 || len(w.Strings) > 0 {
			return Response{}, errcode.New(errcode.Protocol, method, "reply carries both fields and an error")
		}
		return Response{}, errcode.New(errcode.RPCMethod, method, *w.Error)
	}
	return NewResponse(method, w.Words, w.Strings), nil
}

func writeFrame(w io.Writer, v any) error {
	body, err := encMode.Marshal(v)
	if err != nil {
		return fmt.Errorf("rpc: encode: %w", err)
	}
	if len(body) > MaxFrameSize {
		return fmt.Errorf("rpc: frame too large (%d bytes)", len(body))
	}

	buf := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(body)))
	copy(buf[4:], body)

	for len(buf) > 0 {
		n, err := w.Write(buf)
		if err != nil {
			return err
		}
		buf = buf[n:]
	}
	return nil
}

func readFrame(r io.Reader, v any) error {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > MaxFrameSize {
		return errors.New("rpc: frame exceeds maximum size")
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return err
	}
	if err := decMode.Unmarshal(body, v); err != nil {
		return fmt.Errorf("rpc: decode: %w", err)
	}
	return nil
}
