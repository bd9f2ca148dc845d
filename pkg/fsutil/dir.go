package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// ListByMTime returns the entries of dir sorted oldest-first by
// modification time. Used by admin tooling that wants to inspect or archive
// queue directories in creation order.
func ListByMTime(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("fsutil: read dir: %w", err)
	}
	infos := make([]os.FileInfo, len(entries))
	for i, e := range entries {
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("fsutil: stat %s: %w", e.Name(), err)
		}
		infos[i] = info
	}
	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return infos[order[i]].ModTime().Before(infos[order[j]].ModTime())
	})
	sorted := make([]os.DirEntry, len(entries))
	for i, idx := range order {
		sorted[i] = entries[idx]
	}
	return sorted, nil
}

// CopyDir recursively copies src into dst, creating dst if absent. Symlinks
// are not followed: they are skipped rather than copied or dereferenced, to
// avoid escaping src's tree.
func CopyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode().Perm())
		}
		return copyFile(path, target, info.Mode().Perm())
	})
}

func copyFile(src, dst string, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
