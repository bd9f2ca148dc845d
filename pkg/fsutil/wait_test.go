package fsutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAwaitExistsReturnsOncePathAppears(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ready")

	go func() {
		time.Sleep(20 * time.Millisecond)
		os.WriteFile(path, []byte("x"), 0644)
	}()

	if err := AwaitExists(context.Background(), path, time.Second, 5*time.Millisecond); err != nil {
		t.Fatalf("AwaitExists: %v", err)
	}
}

func TestAwaitExistsTimesOut(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "never-created")

	err := AwaitExists(context.Background(), path, 30*time.Millisecond, 5*time.Millisecond)
	if err == nil {
		t.Fatalf("expected timeout error, got nil")
	}
}

func TestAwaitExistsRespectsContextCancellation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "never-created")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := AwaitExists(ctx, path, time.Second, 5*time.Millisecond)
	if err == nil {
		t.Fatalf("expected context cancellation error, got nil")
	}
}
