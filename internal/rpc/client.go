// internal/rpc/client.go
package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tamzrod/amc-monitor/internal/errcode"
)

// Config is the minimal transport config.
type Config struct {
	Endpoint string
	Timeout  time.Duration

	// Observe, when set, is called once per completed call.
	Observe func(method string, took time.Duration, err error)
}

// Client implements Caller over TCP with length-prefixed CBOR frames.
// The connection is reused while healthy; on transport failure it is discarded
// and redialed by the next call. Calls are serialized.
type Client struct {
	cfg Config

	mu   sync.Mutex
	conn net.Conn
}

// New validates cfg. The connection is dialed lazily by the first call.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("rpc client: endpoint required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	return &Client{cfg: cfg}, nil
}

// Close drops the current connection, if any.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropLocked()
}

func (c *Client) dropLocked() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Call performs one request/reply exchange.
func (c *Client) Call(ctx context.Context, req *Request) (Response, error) {
	start := time.Now()
	resp, err := c.call(ctx, req)
	if c.cfg.Observe != nil {
		c.cfg.Observe(req.Method, time.Since(start), err)
	}
	return resp, err
}

func (c *Client) call(ctx context.Context, req *Request) (Response, error) {
	if req == nil || req.Method == "" {
		return Response{}, errcode.New(errcode.InvalidParams, "rpc", "method required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		d := net.Dialer{Timeout: c.cfg.Timeout}
		conn, err := d.DialContext(ctx, "tcp", c.cfg.Endpoint)
		if err != nil {
			return Response{}, errcode.Wrap(errcode.Transport, req.Method, fmt.Errorf("dial %s: %w", c.cfg.Endpoint, err))
		}
		c.conn = conn
	}

	deadline := time.Now().Add(c.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetDeadline(deadline)

	id := uuid.NewString()

	if err := writeFrame(c.conn, toWire(id, req)); err != nil {
		_ = c.dropLocked()
		return Response{}, errcode.Wrap(errcode.Transport, req.Method, fmt.Errorf("write: %w", err))
	}

	var reply wireReply
	if err := readFrame(c.conn, &reply); err != nil {
		_ = c.dropLocked()
		return Response{}, errcode.Wrap(errcode.Transport, req.Method, fmt.Errorf("read: %w", err))
	}

	if reply.ID != id {
		// Stream is out of step; the next call starts on a fresh connection.
		_ = c.dropLocked()
		return Response{}, errcode.New(errcode.Protocol, req.Method,
			fmt.Sprintf("request id mismatch: got=%s want=%s", reply.ID, id))
	}

	return decodeReply(req.Method, reply)
}
