package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	UDPPort int    `yaml:"udp_port"`
	WSAddr  string `yaml:"ws_addr"`
	WSPath  string `yaml:"ws_path"`

	MaxHealth int `yaml:"max_health"`

	PingIntervalMs  int `yaml:"ping_interval_ms"`
	PlayerTimeoutMs int `yaml:"player_timeout_ms"`
	ReapIntervalMs  int `yaml:"reap_interval_ms"`

	// Cash credited per collection when neither the pickup registry nor
	// the frame carries an amount.
	DefaultCash int `yaml:"default_cash"`
	// Cash a session starts with when the event store has no entry.
	StartingCash int `yaml:"starting_cash"`
}

func Defaults() Config {
	return Config{
		UDPPort:         41234,
		WSAddr:          ":8765",
		WSPath:          "/match",
		MaxHealth:       20,
		PingIntervalMs:  5000,
		PlayerTimeoutMs: 50000,
		ReapIntervalMs:  60000,
		DefaultCash:     300,
		StartingCash:    0,
	}
}

func Load(path string) (Config, error) {
	c := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("match.yaml: %w", err)
	}
	return c, nil
}

func (c Config) PingInterval() time.Duration  { return time.Duration(c.PingIntervalMs) * time.Millisecond }
func (c Config) PlayerTimeout() time.Duration { return time.Duration(c.PlayerTimeoutMs) * time.Millisecond }
func (c Config) ReapInterval() time.Duration  { return time.Duration(c.ReapIntervalMs) * time.Millisecond }
