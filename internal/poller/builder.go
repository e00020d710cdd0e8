// internal/poller/builder.go
package poller

import (
	"fmt"
	"time"

	"github.com/prometheus/common/log"

	"github.com/tamzrod/amc-monitor/internal/amc"
	cfg "github.com/tamzrod/amc-monitor/internal/config"
	"github.com/tamzrod/amc-monitor/internal/monitor"
	"github.com/tamzrod/amc-monitor/internal/regbus"
	regmodbus "github.com/tamzrod/amc-monitor/internal/regbus/modbus"
	"github.com/tamzrod/amc-monitor/internal/rpc"
)

// Observer receives the duration and outcome of every remote call.
type Observer func(board, method string, took time.Duration, err error)

// Board is everything built for one configured board.
type Board struct {
	Poller   *Poller
	Registry *monitor.Registry
	Device   *amc.Device // nil without a register bus
}

// Build wires the remote call client, the monitoring registry and, when a
// register bus is configured, the AMC device for one board.
// Assumes config has already been validated and normalized.
// The register bus connects eagerly (fail fast at startup); the remote call
// client dials on first use.
func Build(b cfg.BoardConfig, logger log.Logger, observe Observer) (*Board, func() error, error) {
	if logger == nil {
		logger = log.Base()
	}
	logger = logger.With("board", b.ID)
	timeout := time.Duration(b.TimeoutMs) * time.Millisecond

	rc := rpc.Config{Endpoint: b.RPCEndpoint, Timeout: timeout}
	if observe != nil {
		rc.Observe = func(method string, took time.Duration, err error) {
			observe(b.ID, method, took, err)
		}
	}
	client, err := rpc.New(rc)
	if err != nil {
		return nil, nil, fmt.Errorf("poller: board %s: %w", b.ID, err)
	}
	closers := []func() error{client.Close}

	closeAll := func() error {
		var last error
		for _, fn := range closers {
			if err := fn(); err != nil {
				last = err
			}
		}
		return last
	}

	reg, err := monitor.NewRegistry(b.ID, client)
	if err != nil {
		_ = closeAll()
		return nil, nil, fmt.Errorf("poller: board %s: %w", b.ID, err)
	}
	if err := monitor.SetupDAQMonitoring(reg, uint(b.NOH), b.RPCModule); err != nil {
		_ = closeAll()
		return nil, nil, fmt.Errorf("poller: board %s: %w", b.ID, err)
	}

	out := &Board{Registry: reg}

	var dev Device
	if b.Registers != nil {
		probe, err := amc.ProbeByName(b.Registers.Probe)
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("poller: board %s: %w", b.ID, err)
		}
		table, err := regbus.LoadAddressTable(b.Registers.AddressTable)
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("poller: board %s: %w", b.ID, err)
		}
		bus, err := regmodbus.New(regmodbus.Config{
			Endpoint: b.Registers.Endpoint,
			UnitID:   b.Registers.UnitID,
			Timeout:  timeout,
			Table:    table,
		})
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("poller: board %s: %w", b.ID, err)
		}
		closers = append(closers, bus.Close)

		d, err := amc.New(amc.Config{
			Name:     b.ID,
			BoardTag: b.BoardTag,
			Probe:    probe,
			Regs:     bus,
			RPC:      client,
			Logger:   logger,
		})
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("poller: board %s: %w", b.ID, err)
		}
		out.Device = d
		dev = d
	}

	p, err := New(
		Config{
			BoardID:  b.ID,
			Interval: time.Duration(b.Poll.IntervalMs) * time.Millisecond,

			RefreshEvery: b.Poll.RefreshEvery,
		},
		monitor.NewCycle(reg, logger),
		dev,
		logger,
	)
	if err != nil {
		_ = closeAll()
		return nil, nil, err
	}
	out.Poller = p

	return out, closeAll, nil
}
