// Package xlog provides pubsubd's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. It is backed by the standard library's
// log/slog via a bridge handler that routes records through this package's
// own formatter/output pipeline, so callers gain the slog ecosystem without
// giving up a stable facade or consistent output formatting.
//
// Quick start
//
//	l := xlog.New(
//	    xlog.WithLevel(xlog.InfoLevel),
//	    xlog.WithFormatter(&xlog.JSONFormatter{}),
//	    xlog.WithOutput(xlog.NewConsoleOutput()),
//	)
//	l = l.With(xlog.Str("component", "engine"))
//	l.Info("queue opened", xlog.Str("dir", dir))
package xlog
