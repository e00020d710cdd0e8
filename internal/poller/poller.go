// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/common/log"

	"github.com/tamzrod/amc-monitor/internal/amc"
	"github.com/tamzrod/amc-monitor/internal/monitor"
)

// Device is the part of amc.Device the poller drives.
type Device interface {
	RefreshConnectivity(ctx context.Context) error
	Connected() bool
	Links() amc.LinkSet
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	BoardID  string
	Interval time.Duration

	// RefreshEvery revalidates a connected device every N polls.
	// Zero refreshes only while the device is not connected.
	RefreshEvery int
}

// Poller is a clock-driven driver of one board's poll cycle.
// Runner-owned: not safe for concurrent use.
type Poller struct {
	cfg   Config
	cycle *monitor.Cycle
	dev   Device
	log   log.Logger
	now   func() time.Time

	sinceRefresh int
}

// New creates a poller with immutable config. dev may be nil when the board
// has no register bus.
func New(cfg Config, cycle *monitor.Cycle, dev Device, logger log.Logger) (*Poller, error) {
	if cfg.BoardID == "" {
		return nil, errors.New("poller: board id required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if cfg.RefreshEvery < 0 {
		return nil, errors.New("poller: refresh interval must be >= 0")
	}
	if cycle == nil {
		return nil, errors.New("poller: cycle required")
	}
	if logger == nil {
		logger = log.Base()
	}
	return &Poller{
		cfg:   cfg,
		cycle: cycle,
		dev:   dev,
		log:   logger,
		now:   time.Now,
	}, nil
}

// BoardID returns the board this poller drives.
func (p *Poller) BoardID() string { return p.cfg.BoardID }

// PollOnce performs exactly one poll cycle.
//
// A device that is not connected, or whose periodic revalidation is due, gets
// one connectivity refresh first. The table cycle runs regardless: monitoring
// tables travel over the remote call endpoint, not the register bus.
func (p *Poller) PollOnce(ctx context.Context) PollResult {
	res := PollResult{
		BoardID: p.cfg.BoardID,
		At:      p.now(),
	}

	if p.dev != nil {
		res.HasDevice = true
		res.Err = p.refresh(ctx)
		res.Connected = p.dev.Connected()
		if res.Connected {
			res.LinkMask = p.dev.Links().Mask()
		}
	}

	res.Report = p.cycle.Run(ctx)
	return res
}

func (p *Poller) refresh(ctx context.Context) error {
	p.sinceRefresh++
	wasConnected := p.dev.Connected()
	if wasConnected && (p.cfg.RefreshEvery == 0 || p.sinceRefresh < p.cfg.RefreshEvery) {
		return nil
	}
	p.sinceRefresh = 0

	if err := p.dev.RefreshConnectivity(ctx); err != nil {
		p.log.Warnf("connectivity refresh failed: %v", err)
		return err
	}
	switch {
	case !p.dev.Connected():
		p.log.Warnf("no active links")
	case !wasConnected:
		p.log.Infof("connected, links %s", p.dev.Links())
	}
	return nil
}
