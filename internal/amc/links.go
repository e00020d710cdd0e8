// internal/amc/links.go
package amc

import (
	"context"
	"fmt"
	"strings"

	"github.com/tamzrod/amc-monitor/internal/errcode"
)

// MaxLinkBits is the width of the link bitmask.
const MaxLinkBits = 32

// DefaultMaxLinks is the link bound before the board reports its own.
const DefaultMaxLinks = 12

// LinkSet is the set of currently active links.
// Bit i set means link i passed the liveness probe of the last refresh.
type LinkSet struct {
	mask uint32
	max  uint
}

// NewLinkSet builds a set; max is clamped to MaxLinkBits and bits at or above max are dropped.
func NewLinkSet(mask uint32, max uint) LinkSet {
	if max > MaxLinkBits {
		max = MaxLinkBits
	}
	if max < MaxLinkBits {
		mask &= (uint32(1) << max) - 1
	}
	return LinkSet{mask: mask, max: max}
}

// Usable reports whether link is in range and active.
func (s LinkSet) Usable(link uint) bool {
	if link >= s.max {
		return false
	}
	return s.mask&(uint32(1)<<link) != 0
}

// Mask returns the raw bitmask.
func (s LinkSet) Mask() uint32 { return s.mask }

// Max returns the number of addressable link positions.
func (s LinkSet) Max() uint { return s.max }

// Active lists active link indices in ascending order.
func (s LinkSet) Active() []uint {
	var out []uint
	for i := uint(0); i < s.max; i++ {
		if s.Usable(i) {
			out = append(out, i)
		}
	}
	return out
}

func (s LinkSet) String() string {
	return fmt.Sprintf("0x%08x/%d", s.mask, s.max)
}

// RegisterReader reads a register relative to the device base node.
type RegisterReader interface {
	Read(rel string) (uint32, error)
}

// Probe decides whether one link is present.
// A nil error means the link is alive.
type Probe interface {
	Probe(r RegisterReader, link uint) error
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func(r RegisterReader, link uint) error

func (f ProbeFunc) Probe(r RegisterReader, link uint) error { return f(r, link) }

// ReadProbe treats a link as alive when its tracking error counter is readable.
var ReadProbe Probe = ProbeFunc(func(r RegisterReader, link uint) error {
	_, err := r.Read(fmt.Sprintf("OH_LINKS.OH%d.TRACK_LINK_ERROR_CNT", link))
	return err
})

// AssumeProbe treats every supported link as present once the board id matched.
var AssumeProbe Probe = ProbeFunc(func(r RegisterReader, link uint) error { return nil })

// ProbeByName returns the named probe: "read" (or empty) or "assume".
func ProbeByName(name string) (Probe, error) {
	switch name {
	case "", "read":
		return ReadProbe, nil
	case "assume":
		return AssumeProbe, nil
	default:
		return nil, fmt.Errorf("amc: unknown link probe %q", name)
	}
}

// linkCheck guards every per-link operation.
func (d *Device) linkCheck(link uint, op string) bool {
	if !d.connected {
		d.log.Debugf("%s requested for link %d: device not connected", op, link)
		return false
	}
	if link >= d.links.max {
		d.log.Errorf("%s requested for link %d: outside expectation (0-%d)", op, link, d.links.max)
		return false
	}
	if !d.links.Usable(link) {
		d.log.Errorf("%s requested inactive link %d (0x%08x)", op, link, d.links.mask)
		return false
	}
	return true
}

// RefreshConnectivity recomputes the active link set from scratch.
//
// The board id must contain the configured family tag; otherwise the device is
// marked not connected, the link set is left as it was and an
// errcode.Connectivity error is returned. Transport errors reading the board id
// or the supported link count propagate with the link set unchanged.
// Each candidate link is probed and the new mask replaces the old one whole.
func (d *Device) RefreshConnectivity(ctx context.Context) error {
	d.refreshing = true
	defer func() { d.refreshing = false }()

	id, err := d.BoardID()
	if err != nil {
		d.connected = false
		return err
	}
	if !strings.Contains(id, d.tag) {
		d.connected = false
		d.log.Warnf("device not reachable: board id %q lacks %q", id, d.tag)
		return errcode.New(errcode.Connectivity, "refresh connectivity",
			fmt.Sprintf("board id %q does not contain %q", id, d.tag))
	}

	n, err := d.SupportedLinks()
	if err != nil {
		d.connected = false
		return err
	}

	var mask uint32
	for link := uint(0); link < n; link++ {
		if err := ctx.Err(); err != nil {
			d.connected = false
			return err
		}
		if perr := d.probe.Probe(d, link); perr != nil {
			d.log.Debugf("link %d probe failed: %v", link, perr)
			continue
		}
		mask |= uint32(1) << link
	}

	prev := d.links
	d.links = NewLinkSet(mask, n)
	d.connected = mask != 0

	if prev.mask != mask || prev.max != n {
		d.log.Infof("active links %s -> %s", prev, d.links)
	}
	return nil
}

// SupportedLinks reads the number of links the firmware was built for, clamped to MaxLinkBits.
func (d *Device) SupportedLinks() (uint, error) {
	v, err := d.Read("GEM_SYSTEM.CONFIG.NUM_OF_OH")
	if err != nil {
		return 0, err
	}
	if v > MaxLinkBits {
		v = MaxLinkBits
	}
	return uint(v), nil
}

// Links returns the current active link set.
func (d *Device) Links() LinkSet { return d.links }

// Connected reports whether the last connectivity refresh found the board and
// at least one link, and no register access failed on transport since.
func (d *Device) Connected() bool { return d.connected }
