package fsutil

import (
	"context"
	"fmt"
	"os"
	"time"
)

// AwaitExists polls for path to exist, returning once it does or once
// timeout elapses. Used by tooling that starts a queue-owning process and
// needs to know its directory is ready before connecting.
func AwaitExists(ctx context.Context, path string, timeout time.Duration, pollInterval time.Duration) error {
	if pollInterval <= 0 {
		pollInterval = 50 * time.Millisecond
	}
	deadline := time.Now().Add(timeout)
	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("fsutil: %s did not appear within %s", path, timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
