package fsutil

import "testing"

func TestLockExcludesSecondLocker(t *testing.T) {
	dir := t.TempDir()

	l1, err := Lock(dir)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer l1.Unlock()

	if _, err := Lock(dir); err != ErrLocked {
		t.Fatalf("got err=%v, want ErrLocked", err)
	}
}

func TestUnlockThenRelockSucceeds(t *testing.T) {
	dir := t.TempDir()

	l1, err := Lock(dir)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if err := l1.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}

	l2, err := Lock(dir)
	if err != nil {
		t.Fatalf("re-Lock: %v", err)
	}
	defer l2.Unlock()
}
