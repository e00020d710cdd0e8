// internal/writer/builder.go
package writer

import (
	"time"

	cfg "github.com/tamzrod/amc-monitor/internal/config"
	wmodbus "github.com/tamzrod/amc-monitor/internal/writer/modbus"
)

// BuildStatusPlan extracts the status block plan of one board, or nil when
// the board has none. Assumes config has been validated and normalized.
func BuildStatusPlan(b cfg.BoardConfig) *StatusPlan {
	if b.Status == nil {
		return nil
	}
	return &StatusPlan{
		Endpoint:   b.Status.Endpoint,
		UnitID:     b.Status.UnitID,
		Slot:       b.Status.Slot,
		DeviceName: b.Status.DeviceName,
	}
}

// BuildEndpointClients creates one TCP client per unique status endpoint
// across all boards.
func BuildEndpointClients(boards []cfg.BoardConfig) (map[string]RegisterClient, func() error, error) {
	timeouts := map[string]int{}
	var order []string
	for _, b := range boards {
		if b.Status == nil {
			continue
		}
		ep := b.Status.Endpoint
		if _, ok := timeouts[ep]; !ok {
			order = append(order, ep)
		}
		if b.TimeoutMs > timeouts[ep] {
			timeouts[ep] = b.TimeoutMs
		}
	}

	clients := make(map[string]RegisterClient)
	var closers []func() error

	closeAll := func() error {
		var last error
		for _, fn := range closers {
			if err := fn(); err != nil {
				last = err
			}
		}
		return last
	}

	for _, endpoint := range order {
		c, err := wmodbus.NewEndpointClient(wmodbus.Config{
			Endpoint: endpoint,
			Timeout:  time.Duration(timeouts[endpoint]) * time.Millisecond,
		})
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		clients[endpoint] = c
		closers = append(closers, c.Close)
	}

	return clients, closeAll, nil
}
