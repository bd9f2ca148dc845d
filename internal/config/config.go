package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/rzbill/pubsubd/internal/queue"
	"github.com/rzbill/pubsubd/pkg/fsutil"
)

// Config is the top-level configuration loaded from file/env, supplying
// defaults for both the administrative CLI and for Control.Init.
type Config struct {
	DataDir        string   `json:"dataDir" yaml:"dataDir"`
	SubscriberIDs  []string `json:"subscriberIds" yaml:"subscriberIds"`
	MsgTimeoutSecs int64    `json:"msgTimeoutSecs" yaml:"msgTimeoutSecs"`
	MaxMsgsNum     uint64   `json:"maxMsgsNum" yaml:"maxMsgsNum"`
	HWMDBSizeBytes uint64   `json:"hwmDbSizeBytes" yaml:"hwmDbSizeBytes"`
	Strategy       string   `json:"strategy" yaml:"strategy"`
	ReceiveTimeout int      `json:"receiveTimeoutSecs" yaml:"receiveTimeoutSecs"`
	ReceiveRetries int      `json:"receiveRetries" yaml:"receiveRetries"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		DataDir:        DefaultDataDir(),
		SubscriberIDs:  nil,
		MsgTimeoutSecs: 3600,
		MaxMsgsNum:     100000,
		HWMDBSizeBytes: 1 << 30, // 1 GiB
		Strategy:       "prune_first",
		ReceiveTimeout: 30,
		ReceiveRetries: 5,
	}
}

// HighWaterMark converts the loaded thresholds into queue.HighWaterMark.
func (c Config) HighWaterMark() queue.HighWaterMark {
	return queue.HighWaterMark{
		MsgTimeoutSecs: c.MsgTimeoutSecs,
		MaxMsgsNum:     c.MaxMsgsNum,
		HWMDBSizeBytes: c.HWMDBSizeBytes,
	}
}

// ParsedStrategy validates and returns the configured prune strategy.
func (c Config) ParsedStrategy() (queue.Strategy, error) {
	return queue.ParseStrategy(c.Strategy)
}

// Load reads configuration from a JSON or YAML file (by extension). If
// path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse yaml %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse json %s: %w", path, err)
		}
	}
	if cfg.DataDir != "" {
		expanded, err := fsutil.ExpandPath(cfg.DataDir)
		if err != nil {
			return Config{}, err
		}
		cfg.DataDir = expanded
	}
	return cfg, nil
}
