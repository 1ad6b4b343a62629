package media

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// CleanPath normalizes a root-relative media path to the "/a/b" form used as
// store key. Empty input and "." become the root, "/".
func CleanPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return path.Clean("/" + p)
}

// ResolvePath maps a root-relative media path onto the filesystem, refusing
// anything that escapes root.
func ResolvePath(root, rel string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}

	full := filepath.Join(absRoot, filepath.FromSlash(CleanPath(rel)))
	if full != absRoot && !strings.HasPrefix(full, absRoot+string(filepath.Separator)) {
		return "", os.ErrPermission
	}
	return full, nil
}
