// internal/amc/device.go
package amc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/common/log"

	"github.com/tamzrod/amc-monitor/internal/errcode"
	"github.com/tamzrod/amc-monitor/internal/regbus"
	"github.com/tamzrod/amc-monitor/internal/rpc"
)

// Defaults for Config.
const (
	DefaultBaseNode = "GEM_AMC"
	DefaultBoardTag = "GLIB"
)

// Config is the per-board device setup.
type Config struct {
	Name     string
	BaseNode string
	BoardTag string

	Regs   regbus.Access
	RPC    rpc.Caller
	Probe  Probe
	Logger log.Logger
}

// Device is the register and remote-call facade of one AMC board.
// It is not safe for concurrent use: one owner drives it.
type Device struct {
	name     string
	baseNode string
	tag      string

	regs  regbus.Access
	rpc   rpc.Caller
	probe Probe
	log   log.Logger

	links      LinkSet
	connected  bool
	refreshing bool
	ipbus      [MaxLinkBits]IPBusCounters
}

// New creates a device. It starts not connected with an empty link set.
func New(cfg Config) (*Device, error) {
	if cfg.Name == "" {
		return nil, errors.New("amc: device name required")
	}
	if cfg.Regs == nil {
		return nil, errors.New("amc: register access required")
	}
	if cfg.RPC == nil {
		return nil, errors.New("amc: rpc caller required")
	}

	d := &Device{
		name:     cfg.Name,
		baseNode: cfg.BaseNode,
		tag:      cfg.BoardTag,
		regs:     cfg.Regs,
		rpc:      cfg.RPC,
		probe:    cfg.Probe,
		log:      cfg.Logger,
		links:    NewLinkSet(0, DefaultMaxLinks),
	}
	if d.baseNode == "" {
		d.baseNode = DefaultBaseNode
	}
	if d.tag == "" {
		d.tag = DefaultBoardTag
	}
	if d.probe == nil {
		d.probe = ReadProbe
	}
	if d.log == nil {
		d.log = log.Base()
	}
	d.log = d.log.With("device", d.name)
	return d, nil
}

// Name returns the device name.
func (d *Device) Name() string { return d.name }

// Read reads a register relative to the base node.
// A transport failure marks the device not connected.
func (d *Device) Read(rel string) (uint32, error) {
	v, err := d.regs.ReadRegister(regbus.Join(d.baseNode, rel))
	if err != nil {
		d.busFailed(err)
	}
	return v, err
}

// Write writes a register relative to the base node.
// A transport failure marks the device not connected.
func (d *Device) Write(rel string, v uint32) error {
	err := d.regs.WriteRegister(regbus.Join(d.baseNode, rel), v)
	if err != nil {
		d.busFailed(err)
	}
	return err
}

// busFailed drops the connected state on a transport error so the next
// refresh revalidates the board. Probe failures during a refresh are
// accounted by the refresh itself.
func (d *Device) busFailed(err error) {
	if d.refreshing || !d.connected || errcode.Of(err) != errcode.Transport {
		return
	}
	d.log.Warnf("register bus lost: %v", err)
	d.connected = false
}

func (d *Device) readBool(rel string) (bool, error) {
	v, err := d.Read(rel)
	return v != 0, err
}

func (d *Device) writeBool(rel string, b bool) error {
	var v uint32
	if b {
		v = 1
	}
	return d.Write(rel, v)
}

// call issues one remote call. Errors that carry no code are transport failures.
func (d *Device) call(ctx context.Context, req *rpc.Request) (rpc.Response, error) {
	resp, err := d.rpc.Call(ctx, req)
	if err == nil {
		return resp, nil
	}
	if errcode.Of(err) == errcode.Error {
		err = errcode.Wrap(errcode.Transport, req.Method, err)
	}
	d.log.Errorf("%s: %v", req.Method, err)
	return rpc.Response{}, err
}

// ---- identity ----

// BoardIDRaw reads the board id word.
func (d *Device) BoardIDRaw() (uint32, error) {
	return d.Read("GEM_SYSTEM.BOARD_ID")
}

// BoardID reads the board id as four characters.
func (d *Device) BoardID() (string, error) {
	v, err := d.BoardIDRaw()
	if err != nil {
		return "", err
	}
	return wordToString(v), nil
}

// FirmwareVersionRaw reads the firmware release word.
func (d *Device) FirmwareVersionRaw() (uint32, error) {
	return d.Read("GEM_SYSTEM.RELEASE")
}

// FirmwareVersion reads the firmware release as "major.minor.patch".
func (d *Device) FirmwareVersion() (string, error) {
	v, err := d.FirmwareVersionRaw()
	if err != nil {
		return "", err
	}
	return DecodeFirmwareVersion(v), nil
}

// FirmwareDateRaw reads the firmware build date word.
func (d *Device) FirmwareDateRaw() (uint32, error) {
	return d.Read("GEM_SYSTEM.RELEASE.DATE")
}

// FirmwareDate reads the firmware build date as DD-MM-YYYY.
func (d *Device) FirmwareDate() (string, error) {
	v, err := d.FirmwareDateRaw()
	if err != nil {
		return "", err
	}
	return DecodeFirmwareDate(v), nil
}

// UserFirmware reads the user firmware word (the system release on current firmware).
func (d *Device) UserFirmware() (uint32, error) {
	return d.Read("GEM_SYSTEM.RELEASE")
}

// UserFirmwareDate renders the user firmware word as hex.
func (d *Device) UserFirmwareDate() (string, error) {
	v, err := d.UserFirmware()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("0x%x", v), nil
}

// DecodeFirmwareVersion renders bytes 2..0 of v as a dotted version.
func DecodeFirmwareVersion(v uint32) string {
	return fmt.Sprintf("%d.%d.%d", (v>>16)&0xff, (v>>8)&0xff, v&0xff)
}

// DecodeFirmwareDate unpacks day (bits 4:0), month (8:5) and year-2000 (15:9).
func DecodeFirmwareDate(v uint32) string {
	day := v & 0x1f
	month := (v >> 5) & 0x0f
	year := 2000 + (v>>9)&0x7f
	return fmt.Sprintf("%02d-%02d-%04d", day, month, year)
}

// EncodeFirmwareDate is the inverse of DecodeFirmwareDate for years 2000..2127.
func EncodeFirmwareDate(day, month, year uint32) uint32 {
	return (day & 0x1f) | (month&0x0f)<<5 | ((year-2000)&0x7f)<<9
}

// wordToString unpacks four big-endian ASCII characters, dropping padding.
func wordToString(v uint32) string {
	b := []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	return strings.Trim(string(b), "\x00 ")
}
