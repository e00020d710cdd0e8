// internal/config/validate.go
package config

import (
	"errors"
	"fmt"

	"github.com/tamzrod/amc-monitor/internal/status"
)

// MaxNOH is the widest link bitmask a board can report.
const MaxNOH = 32

// Link liveness probes accepted by registers.probe.
const (
	ProbeRead   = "read"
	ProbeAssume = "assume"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}
	if len(cfg.Monitor.Boards) == 0 {
		return errors.New("config: at least one board required")
	}

	if r := cfg.Monitor.Redis; r != nil && r.URL == "" {
		return errors.New("config: redis block requires url")
	}

	seen := make(map[string]bool)

	// key = endpoint | unit_id | slot
	statusOwner := make(map[string]string)

	for i, b := range cfg.Monitor.Boards {
		if b.ID == "" {
			return fmt.Errorf("board #%d: id required", i)
		}
		if seen[b.ID] {
			return fmt.Errorf("board %q: duplicate id", b.ID)
		}
		seen[b.ID] = true

		if b.RPCEndpoint == "" {
			return fmt.Errorf("board %q: rpc_endpoint required", b.ID)
		}
		if b.NOH < 1 || b.NOH > MaxNOH {
			return fmt.Errorf("board %q: noh must be within 1..%d, got %d", b.ID, MaxNOH, b.NOH)
		}
		if b.Poll.IntervalMs <= 0 {
			return fmt.Errorf("board %q: poll.interval_ms must be > 0", b.ID)
		}
		if b.Poll.RefreshEvery < 0 {
			return fmt.Errorf("board %q: poll.refresh_every must be >= 0", b.ID)
		}
		if b.TimeoutMs < 0 {
			return fmt.Errorf("board %q: timeout_ms must be >= 0", b.ID)
		}

		// ------------------------------------------------------------
		// REGISTER BUS (OPT-IN)
		// ------------------------------------------------------------

		if r := b.Registers; r != nil {
			if r.Endpoint == "" {
				return fmt.Errorf("board %q: registers.endpoint required", b.ID)
			}
			if r.AddressTable == "" {
				return fmt.Errorf("board %q: registers.address_table required", b.ID)
			}
			switch r.Probe {
			case "", ProbeRead, ProbeAssume:
			default:
				return fmt.Errorf("board %q: registers.probe must be %q or %q, got %q",
					b.ID, ProbeRead, ProbeAssume, r.Probe)
			}
		}

		// ------------------------------------------------------------
		// STATUS BLOCK VALIDATION (OPT-IN)
		// ------------------------------------------------------------

		s := b.Status
		if s == nil {
			continue
		}

		// device_name sanity (ASCII only)
		for j := 0; j < len(s.DeviceName); j++ {
			if s.DeviceName[j] > 0x7F {
				return fmt.Errorf(
					"board %q: device_name must contain ASCII characters only",
					b.ID,
				)
			}
		}

		if s.Endpoint == "" {
			return fmt.Errorf("board %q: status.endpoint required", b.ID)
		}

		// the whole block must fit in the 16-bit address space
		if uint32(s.Slot)*status.SlotsPerDevice+status.SlotsPerDevice > 0x10000 {
			return fmt.Errorf("board %q: status slot %d exceeds the register space", b.ID, s.Slot)
		}

		key := fmt.Sprintf("%s|%d|%d", s.Endpoint, s.UnitID, s.Slot)
		if prev, exists := statusOwner[key]; exists {
			return fmt.Errorf(
				"status slot collision: endpoint=%s unit_id=%d slot=%d used by boards %q and %q",
				s.Endpoint,
				s.UnitID,
				s.Slot,
				prev,
				b.ID,
			)
		}
		statusOwner[key] = b.ID
	}

	return nil
}
