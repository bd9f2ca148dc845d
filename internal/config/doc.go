// Package config provides loading and environment overlay for pubsubd's
// CLI and runtime defaults. It exposes a Default() baseline plus a Load
// that accepts either JSON or YAML, and an env overlay so deployments can
// tune defaults without a config file.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/pubsubd.yaml"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
//	ctl, _ := control.Open(cfg.DataDir)
//	defer ctl.Close()
package config
