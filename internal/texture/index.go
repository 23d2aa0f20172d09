package texture

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotFound reports an image reference that matches no file.
var ErrNotFound = errors.New("texture: image not found")

// Index resolves image references stored in scene files to filesystem paths.
//
// A reference is tried relative to each search directory in order. When no
// such file exists, it falls back to any image in the directories with the
// same lowercase stem, so references survive a change of extension or case.
type Index struct {
	dirs []string

	mu    sync.Mutex
	stems map[string]string // lowercase stem -> path, built on first miss
}

// NewIndex creates an index over dirs, searched in order.
func NewIndex(dirs ...string) *Index {
	return &Index{dirs: cleanDirs(dirs)}
}

func cleanDirs(dirs []string) []string {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if d != "" {
			out = append(out, filepath.Clean(d))
		}
	}
	return out
}

// Dirs returns the search directories.
func (idx *Index) Dirs() []string {
	return append([]string(nil), idx.dirs...)
}

// WithDir returns a new index that searches dir before the receiver's directories.
func (idx *Index) WithDir(dir string) *Index {
	return NewIndex(append([]string{dir}, idx.dirs...)...)
}

// Resolve returns the path of the file ref refers to.
func (idx *Index) Resolve(ref string) (string, error) {
	ref = filepath.FromSlash(strings.ReplaceAll(ref, "\\", "/"))
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrNotFound)
	}

	if filepath.IsAbs(ref) {
		if isFile(ref) {
			return filepath.Clean(ref), nil
		}
	} else {
		for _, dir := range idx.dirs {
			p := filepath.Join(dir, ref)
			if isFile(p) {
				return p, nil
			}
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.stems == nil {
		idx.stems = idx.scan()
	}
	if p, ok := idx.stems[stem(ref)]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, ref)
}

// Reset drops the stem table so the next miss rescans the directories.
func (idx *Index) Reset() {
	idx.mu.Lock()
	idx.stems = nil
	idx.mu.Unlock()
}

// scan walks the directories; earlier directories win on stem collisions.
func (idx *Index) scan() map[string]string {
	stems := make(map[string]string)
	for _, dir := range idx.dirs {
		filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !IsImagePath(path) {
				return nil
			}
			if _, exists := stems[stem(path)]; !exists {
				stems[stem(path)] = path
			}
			return nil
		})
	}
	return stems
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
