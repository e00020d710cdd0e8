// internal/config/config.go
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Monitor MonitorConfig `yaml:"monitor"`
}

type MonitorConfig struct {
	ListenAddress string        `yaml:"listen_address"`
	MetricsPath   string        `yaml:"metrics_path"`
	Redis         *RedisConfig  `yaml:"redis"` // optional snapshot publisher
	Boards        []BoardConfig `yaml:"boards"`
}

// ---- REDIS ----

type RedisConfig struct {
	URL           string `yaml:"url"`
	ChannelPrefix string `yaml:"channel_prefix"`
}

// ---- BOARD ----

type BoardConfig struct {
	ID          string `yaml:"id"`
	RPCEndpoint string `yaml:"rpc_endpoint"`
	RPCModule   string `yaml:"rpc_module"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	NOH         int    `yaml:"noh"`
	BoardTag    string `yaml:"board_tag"`

	Registers *RegistersConfig `yaml:"registers"` // optional register bus
	Status    *StatusConfig    `yaml:"status"`    // optional status block (opt-in)
	Poll      PollConfig       `yaml:"poll"`
}

// ---- REGISTER BUS ----

type RegistersConfig struct {
	Endpoint     string `yaml:"endpoint"`
	UnitID       uint8  `yaml:"unit_id"`
	AddressTable string `yaml:"address_table"`
	Probe        string `yaml:"probe"` // link liveness probe: read | assume
}

// ---- STATUS BLOCK ----

type StatusConfig struct {
	Endpoint   string `yaml:"endpoint"`
	UnitID     uint8  `yaml:"unit_id"`
	Slot       uint16 `yaml:"slot"`
	DeviceName string `yaml:"device_name"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs   int `yaml:"interval_ms"`
	RefreshEvery int `yaml:"refresh_every"` // polls between connectivity revalidations
}

// Load reads and decodes a YAML config file. Unknown keys are rejected.
// It does not validate or normalize.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes YAML config bytes. Unknown keys are rejected.
func Parse(raw []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}
