// internal/regbus/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/amc-monitor/internal/errcode"
	"github.com/tamzrod/amc-monitor/internal/regbus"
)

// holdingRegisters is the part of modbus.Client the bus needs.
type holdingRegisters interface {
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
	WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error)
}

// Client implements regbus.Access over a Modbus TCP register bridge.
// Each 32-bit register is two holding registers, high word first.
// It serializes requests: bit-field writes are read-modify-write.
type Client struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  holdingRegisters
	table   regbus.AddressTable
}

// Config is minimal transport config.
type Config struct {
	Endpoint string
	UnitID   uint8
	Timeout  time.Duration
	Table    regbus.AddressTable
}

// New creates a connected register bus client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("regbus modbus: endpoint required")
	}
	if len(cfg.Table) == 0 {
		return nil, errors.New("regbus modbus: address table required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID

	if err := h.Connect(); err != nil {
		return nil, errcode.Wrap(errcode.Transport, "regbus connect", err)
	}

	return &Client{
		handler: h,
		client:  modbus.NewClient(h),
		table:   cfg.Table,
	}, nil
}

// Close closes the TCP connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handler == nil {
		return nil
	}
	return c.handler.Close()
}

// ReadRegister reads the register at path and extracts its bit field.
func (c *Client) ReadRegister(path string) (uint32, error) {
	reg, ok := c.table.Lookup(path)
	if !ok {
		return 0, errcode.New(errcode.InvalidParams, "read "+path, "register not in address table")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	word, err := c.readWord(reg.Address)
	if err != nil {
		return 0, errcode.Wrap(errcode.Transport, "read "+path, err)
	}
	return reg.Extract(word), nil
}

// WriteRegister writes value into the register at path.
func (c *Client) WriteRegister(path string, value uint32) error {
	reg, ok := c.table.Lookup(path)
	if !ok {
		return errcode.New(errcode.InvalidParams, "write "+path, "register not in address table")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	word := value
	if !reg.FullWord() {
		cur, err := c.readWord(reg.Address)
		if err != nil {
			return errcode.Wrap(errcode.Transport, "write "+path, err)
		}
		word = reg.Insert(cur, value)
	}

	if _, err := c.client.WriteMultipleRegisters(reg.Address, 2, packWord(word)); err != nil {
		return errcode.Wrap(errcode.Transport, "write "+path, err)
	}
	return nil
}

func (c *Client) readWord(addr uint16) (uint32, error) {
	raw, err := c.client.ReadHoldingRegisters(addr, 2)
	if err != nil {
		return 0, err
	}
	if len(raw) < 4 {
		return 0, fmt.Errorf("short read: %d bytes", len(raw))
	}
	return unpackWord(raw), nil
}

// ---- helpers (pure geometry) ----

// Modbus register memory order (BIG-ENDIAN), high register first.
func packWord(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func unpackWord(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
