package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rzbill/pubsubd/internal/queue"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.MsgTimeoutSecs != 3600 {
		t.Fatalf("default msg timeout")
	}
	if cfg.Strategy != "prune_first" {
		t.Fatalf("default strategy")
	}
	if cfg.MaxMsgsNum != 100000 {
		t.Fatalf("default max msgs")
	}
	if _, err := cfg.ParsedStrategy(); err != nil {
		t.Fatalf("default strategy should parse: %v", err)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "pubsubd.json")
	data := []byte(`{"dataDir":"/var/lib/pubsubd","subscriberIds":["a","b"],"msgTimeoutSecs":120,"maxMsgsNum":500,"hwmDbSizeBytes":2048,"strategy":"prune_last"}`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/var/lib/pubsubd" {
		t.Fatalf("expected data dir override, got %q", cfg.DataDir)
	}
	if len(cfg.SubscriberIDs) != 2 || cfg.SubscriberIDs[0] != "a" {
		t.Fatalf("expected subscriber ids override, got %v", cfg.SubscriberIDs)
	}
	if cfg.MsgTimeoutSecs != 120 {
		t.Fatalf("expected 120, got %d", cfg.MsgTimeoutSecs)
	}
	strategy, err := cfg.ParsedStrategy()
	if err != nil || strategy != queue.PruneLast {
		t.Fatalf("expected prune_last, got %v (err %v)", strategy, err)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "pubsubd.yaml")
	data := []byte("dataDir: /data/pubsubd\nsubscriberIds: [worker-a, worker-b]\nmsgTimeoutSecs: 60\nmaxMsgsNum: 10\nstrategy: prune_first\n")
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/data/pubsubd" {
		t.Fatalf("expected data dir override, got %q", cfg.DataDir)
	}
	if len(cfg.SubscriberIDs) != 2 || cfg.SubscriberIDs[1] != "worker-b" {
		t.Fatalf("expected subscriber ids override, got %v", cfg.SubscriberIDs)
	}
	if cfg.MaxMsgsNum != 10 {
		t.Fatalf("expected 10, got %d", cfg.MaxMsgsNum)
	}
}

func TestLoadExpandsTildeInDataDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		t.Skip("no home directory available")
	}
	dir := t.TempDir()
	file := filepath.Join(dir, "pubsubd.json")
	if err := os.WriteFile(file, []byte(`{"dataDir":"~/pubsubd-data"}`), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := filepath.Join(home, "pubsubd-data")
	if cfg.DataDir != want {
		t.Fatalf("expected expanded path %q, got %q", want, cfg.DataDir)
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	os.Setenv("PUBSUBD_DATA_DIR", "/tmp/override")
	os.Setenv("PUBSUBD_MSG_TIMEOUT_SECS", "99")
	os.Setenv("PUBSUBD_STRATEGY", "prune_last")
	t.Cleanup(func() {
		os.Unsetenv("PUBSUBD_DATA_DIR")
		os.Unsetenv("PUBSUBD_MSG_TIMEOUT_SECS")
		os.Unsetenv("PUBSUBD_STRATEGY")
	})
	FromEnv(&cfg)
	if cfg.DataDir != "/tmp/override" {
		t.Fatalf("env override data dir")
	}
	if cfg.MsgTimeoutSecs != 99 {
		t.Fatalf("env override msg timeout")
	}
	if cfg.Strategy != "prune_last" {
		t.Fatalf("env override strategy")
	}
}
