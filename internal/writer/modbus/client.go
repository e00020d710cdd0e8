// internal/writer/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// EndpointClient is a single TCP connection to one status memory endpoint.
// It serializes requests because it mutates SlaveId per write. A failed
// write drops the connection; the next write redials.
type EndpointClient struct {
	mu      sync.Mutex
	cfg     Config
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// NewEndpointClient validates cfg and dials once (fail fast at startup).
func NewEndpointClient(cfg Config) (*EndpointClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("writer modbus: endpoint required")
	}

	c := &EndpointClient{cfg: cfg}
	if err := c.connectLocked(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *EndpointClient) connectLocked() error {
	h := modbus.NewTCPClientHandler(c.cfg.Endpoint)
	h.Timeout = c.cfg.Timeout

	if err := h.Connect(); err != nil {
		return fmt.Errorf("writer modbus: connect %s: %w", c.cfg.Endpoint, err)
	}
	c.handler = h
	c.client = modbus.NewClient(h)
	return nil
}

func (c *EndpointClient) dropLocked() {
	if c.handler != nil {
		_ = c.handler.Close()
	}
	c.handler = nil
	c.client = nil
}

// Close closes the TCP connection.
func (c *EndpointClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handler == nil {
		return nil
	}
	err := c.handler.Close()
	c.handler = nil
	c.client = nil
	return err
}

// WriteRegisters writes holding registers starting at addr on unitID.
func (c *EndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handler == nil {
		if err := c.connectLocked(); err != nil {
			return err
		}
	}

	c.handler.SlaveId = unitID

	if _, err := c.client.WriteMultipleRegisters(addr, uint16(len(regs)), packRegisters(regs)); err != nil {
		c.dropLocked()
		return fmt.Errorf("writer modbus: unit=%d addr=%d qty=%d: %w", unitID, addr, len(regs), err)
	}
	return nil
}

// Modbus register memory order (BIG-ENDIAN).
func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}
