// internal/regbus/modbus/client_test.go
package modbus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/amc-monitor/internal/errcode"
	"github.com/tamzrod/amc-monitor/internal/regbus"
)

// fakeBus is a holding-register memory.
type fakeBus struct {
	mem    map[uint16]uint16
	fail   bool
	writes int
}

func (f *fakeBus) ReadHoldingRegisters(address, quantity uint16) ([]byte, error) {
	if f.fail {
		return nil, errors.New("connection reset")
	}
	out := make([]byte, 0, 2*quantity)
	for i := uint16(0); i < quantity; i++ {
		v := f.mem[address+i]
		out = append(out, byte(v>>8), byte(v))
	}
	return out, nil
}

func (f *fakeBus) WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error) {
	if f.fail {
		return nil, errors.New("connection reset")
	}
	for i := uint16(0); i < quantity; i++ {
		f.mem[address+i] = uint16(value[2*i])<<8 | uint16(value[2*i+1])
	}
	f.writes++
	return nil, nil
}

func newTestClient(bus *fakeBus) *Client {
	return &Client{
		client: bus,
		table: regbus.AddressTable{
			"GEM_AMC.GEM_SYSTEM.BOARD_ID":      {Address: 0},
			"GEM_AMC.DAQ.STATUS.TTS_STATE":     {Address: 2, Mask: 0x0000F000},
			"GEM_AMC.DAQ.CONTROL.INPUT_ENABLE": {Address: 4, Mask: 0x00FFF000},
		},
	}
}

func TestReadRegister_FullWordAndField(t *testing.T) {
	bus := &fakeBus{mem: map[uint16]uint16{
		0: 0x474C, 1: 0x4942, // "GLIB"
		2: 0x0000, 3: 0x8123,
	}}
	c := newTestClient(bus)

	id, err := c.ReadRegister("GEM_AMC.GEM_SYSTEM.BOARD_ID")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x474C4942), id)

	tts, err := c.ReadRegister("GEM_AMC.DAQ.STATUS.TTS_STATE")
	require.NoError(t, err)
	assert.Equal(t, uint32(8), tts)
}

func TestWriteRegister_FieldIsReadModifyWrite(t *testing.T) {
	bus := &fakeBus{mem: map[uint16]uint16{4: 0xAB00, 5: 0x0FFF}}
	c := newTestClient(bus)

	require.NoError(t, c.WriteRegister("GEM_AMC.DAQ.CONTROL.INPUT_ENABLE", 0x003))

	// bits outside the 0x00FFF000 field are preserved
	assert.Equal(t, uint16(0xAB00), bus.mem[4])
	assert.Equal(t, uint16(0x3FFF), bus.mem[5])
	assert.Equal(t, 1, bus.writes)
}

func TestUnknownPathIsInvalidParams(t *testing.T) {
	c := newTestClient(&fakeBus{mem: map[uint16]uint16{}})

	_, err := c.ReadRegister("GEM_AMC.TTC.L1A_RATE")
	assert.True(t, errors.Is(err, errcode.InvalidParams))

	err = c.WriteRegister("GEM_AMC.TTC.CTRL.MODULE_RESET", 1)
	assert.True(t, errors.Is(err, errcode.InvalidParams))
}

func TestBusFailureIsTransport(t *testing.T) {
	c := newTestClient(&fakeBus{mem: map[uint16]uint16{}, fail: true})

	_, err := c.ReadRegister("GEM_AMC.GEM_SYSTEM.BOARD_ID")
	assert.True(t, errors.Is(err, errcode.Transport))

	err = c.WriteRegister("GEM_AMC.GEM_SYSTEM.BOARD_ID", 1)
	assert.True(t, errors.Is(err, errcode.Transport))
}

func TestPackUnpackWord(t *testing.T) {
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, packWord(0xDEADBEEF))
	assert.Equal(t, uint32(0xDEADBEEF), unpackWord([]byte{0xDE, 0xAD, 0xBE, 0xEF}))
}
