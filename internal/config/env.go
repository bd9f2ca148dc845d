package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overlays PUBSUBD_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("PUBSUBD_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("PUBSUBD_SUBSCRIBER_IDS"); v != "" {
		parts := strings.Split(v, ",")
		cfg.SubscriberIDs = nil
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.SubscriberIDs = append(cfg.SubscriberIDs, p)
			}
		}
	}
	if v := os.Getenv("PUBSUBD_MSG_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MsgTimeoutSecs = n
		}
	}
	if v := os.Getenv("PUBSUBD_MAX_MSGS_NUM"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.MaxMsgsNum = n
		}
	}
	if v := os.Getenv("PUBSUBD_HWM_DB_SIZE_BYTES"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.HWMDBSizeBytes = n
		}
	}
	if v := os.Getenv("PUBSUBD_STRATEGY"); v != "" {
		cfg.Strategy = v
	}
	if v := os.Getenv("PUBSUBD_RECEIVE_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ReceiveTimeout = n
		}
	}
	if v := os.Getenv("PUBSUBD_RECEIVE_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ReceiveRetries = n
		}
	}
}
