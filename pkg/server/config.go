package server

import (
	"fmt"
	"net"

	"github.com/BurntSushi/toml"
	"github.com/busybox42/discv5/pkg/protocol"
	"github.com/busybox42/discv5/pkg/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ListenAddr  string          `toml:"listen_addr"`
	KeyFile     string          `toml:"key_file"`
	Record      string          `toml:"record"`
	ENRSeq      uint64          `toml:"enr_seq"`
	Workers     int             `toml:"workers"`
	MetricsAddr string          `toml:"metrics_addr"`
	LogLevel    string          `toml:"log_level"`
	Bootstrap   []BootstrapNode `toml:"bootstrap"`
}

type BootstrapNode struct {
	ID   string `toml:"id"`
	Addr string `toml:"addr"`
}

// LoadConfig reads a TOML file, fills in defaults and validates the result.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = "0.0.0.0:30303"
	}
	if c.KeyFile == "" {
		c.KeyFile = "node.key"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c Config) Validate() error {
	if _, err := net.ResolveUDPAddr("udp4", c.ListenAddr); err != nil {
		return fmt.Errorf("invalid listen_addr %q: %w", c.ListenAddr, err)
	}
	if c.Record != "" {
		record, err := hexutil.Decode(c.Record)
		if err != nil {
			return fmt.Errorf("invalid record: %w", err)
		}
		if err := protocol.CheckRecord(record); err != nil {
			return fmt.Errorf("invalid record: %w", err)
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid workers %d", c.Workers)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	for i, b := range c.Bootstrap {
		if _, err := b.node(); err != nil {
			return fmt.Errorf("invalid bootstrap node %d: %w", i, err)
		}
	}
	return nil
}

func (b BootstrapNode) node() (*types.Node, error) {
	id, err := types.ParseNodeID(b.ID)
	if err != nil {
		return nil, err
	}
	addr, err := net.ResolveUDPAddr("udp4", b.Addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", b.Addr, err)
	}
	return types.NewNode(id, addr), nil
}
