package fsutil

import (
	"fmt"

	homedir "github.com/mitchellh/go-homedir"
)

// ExpandPath expands a leading "~" to the current user's home directory,
// shell-word style. A "~user" prefix is not expanded and returns an error.
// Paths without a leading "~" are returned unchanged.
func ExpandPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("fsutil: expand path %q: %w", path, err)
	}
	return expanded, nil
}
