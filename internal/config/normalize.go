// internal/config/normalize.go
package config

import "github.com/tamzrod/amc-monitor/internal/status"

// Defaults applied by Normalize.
const (
	DefaultListenAddress = ":9624"
	DefaultMetricsPath   = "/metrics"
	DefaultRPCModule     = "daq_monitor"
	DefaultTimeoutMs     = 2000
	DefaultBoardTag      = "GLIB"
	DefaultChannelPrefix = "amcmon"
	DefaultRefreshEvery  = 12
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	m := &cfg.Monitor
	if m.ListenAddress == "" {
		m.ListenAddress = DefaultListenAddress
	}
	if m.MetricsPath == "" {
		m.MetricsPath = DefaultMetricsPath
	}
	if m.Redis != nil && m.Redis.ChannelPrefix == "" {
		m.Redis.ChannelPrefix = DefaultChannelPrefix
	}

	for bi := range m.Boards {
		b := &m.Boards[bi]

		if b.RPCModule == "" {
			b.RPCModule = DefaultRPCModule
		}
		if b.TimeoutMs == 0 {
			b.TimeoutMs = DefaultTimeoutMs
		}
		if b.BoardTag == "" {
			b.BoardTag = DefaultBoardTag
		}
		if b.Poll.RefreshEvery == 0 {
			b.Poll.RefreshEvery = DefaultRefreshEvery
		}
		if b.Registers != nil && b.Registers.Probe == "" {
			b.Registers.Probe = ProbeRead
		}

		// ------------------------------------------------------------
		// STATUS BLOCK NORMALIZATION (OPT-IN)
		// ------------------------------------------------------------

		if b.Status == nil {
			continue
		}

		// Normalize device_name:
		// - ASCII already validated
		// - Defaults to the board id
		// - Truncate to max 16 characters
		if b.Status.DeviceName == "" {
			b.Status.DeviceName = b.ID
		}
		if len(b.Status.DeviceName) > status.DeviceNameMaxChars {
			b.Status.DeviceName = b.Status.DeviceName[:status.DeviceNameMaxChars]
		}
	}
}
