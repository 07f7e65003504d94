package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/puzzletitles/puzzletitles/updater/internal/atomicfile"
)

const entryExt = ".txt"

// Dir is a filesystem-backed Cache: one <key>.txt file per entry.
type Dir struct {
	root string
}

// NewDir returns a Dir rooted at root, creating the directory if needed.
func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create dir: %w", err)
	}
	return &Dir{root: root}, nil
}

// Root returns the directory holding the entries.
func (d *Dir) Root() string { return d.root }

// Get reads the entry for key. Surrounding whitespace is trimmed; an entry
// that is empty after trimming counts as missing.
func (d *Dir) Get(key string) (string, bool, error) {
	path, err := d.path(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache: read %s: %w", key, err)
	}
	if !utf8.Valid(data) {
		return "", false, fmt.Errorf("%w: %s is not valid UTF-8", ErrCorrupt, key)
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", false, nil
	}
	return value, true, nil
}

// Set writes value for key. The file is written to a temp name and renamed
// into place so a reader never sees a partial entry. Invalid UTF-8 is
// replaced with U+FFFD, so every entry Set writes reads back as a hit.
func (d *Dir) Set(key, value string) error {
	path, err := d.path(key)
	if err != nil {
		return err
	}
	value = strings.ToValidUTF8(value, "\uFFFD")
	if err := atomicfile.Write(path, []byte(value), 0o644); err != nil {
		return fmt.Errorf("cache: set %s: %w", key, err)
	}
	return nil
}

// path maps key to its file, rejecting keys that would escape root.
func (d *Dir) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("cache: invalid key %q", key)
	}
	return filepath.Join(d.root, key+entryExt), nil
}
