package fsutil

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// ErrInvalidPath marks user-supplied paths that are absolute, contain NUL
// bytes, or would escape the configured root.
var ErrInvalidPath = errors.New("invalid path")

// CleanRelPath normalizes a user path like "batch-0001//x.png" into a
// slash-based relative path with no leading slash ("" means root). Absolute
// paths and traversal outside the root are rejected.
func CleanRelPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if strings.Contains(p, "\x00") {
		return "", fmt.Errorf("%w: contains NUL byte", ErrInvalidPath)
	}
	p = strings.ReplaceAll(p, "\\", "/")
	if strings.HasPrefix(p, "/") || filepath.IsAbs(filepath.FromSlash(p)) {
		return "", fmt.Errorf("%w: absolute path not allowed", ErrInvalidPath)
	}
	if p == "" || p == "." {
		return "", nil
	}
	cleaned := path.Clean(p)
	if cleaned == "." {
		return "", nil
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: escapes root", ErrInvalidPath)
	}
	return cleaned, nil
}

// JoinWithinRoot returns an absolute filesystem path under rootAbs for the
// given relative path. It rejects escapes and verifies the cleaned result is
// rootAbs itself or a descendant of it.
func JoinWithinRoot(rootAbs string, rel string) (string, error) {
	cleaned, err := CleanRelPath(rel)
	if err != nil {
		return "", err
	}
	if cleaned == "" {
		return filepath.Clean(rootAbs), nil
	}
	abs := filepath.Clean(filepath.Join(rootAbs, filepath.FromSlash(cleaned)))
	root := filepath.Clean(rootAbs)
	if abs != root && !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: escapes root", ErrInvalidPath)
	}
	return abs, nil
}

// BaseName keeps only the final path component. Used where nested folders are
// not supported and any directory hints in the input should be discarded.
func BaseName(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	base := path.Base("/" + p)
	if base == "/" || base == "." {
		return ""
	}
	return base
}
