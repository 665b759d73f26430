package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Walker resolves dataset globs relative to a root directory.
type Walker struct {
	includes []string
	excludes []string
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*.csv", "**/*.xlsx"}
	}
	if len(excludes) == 0 {
		// Office lock files sit next to open workbooks.
		excludes = []string{"**/~$*"}
	}
	return &Walker{
		includes: includes,
		excludes: excludes,
	}
}

// Walk returns the matching dataset files under root, sorted and without
// duplicates. Absolute include patterns are matched as is.
func (w *Walker) Walk(root string) ([]string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var files []string
	for _, pattern := range w.includes {
		var matches []string
		if filepath.IsAbs(pattern) {
			matches, err = doublestar.FilepathGlob(pattern)
		} else {
			var rel []string
			rel, err = doublestar.Glob(os.DirFS(root), filepath.ToSlash(pattern))
			for _, m := range rel {
				matches = append(matches, filepath.Join(root, filepath.FromSlash(m)))
			}
		}
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}

		for _, path := range matches {
			if !isDataset(path) || w.shouldExclude(root, path) {
				continue
			}
			if _, dup := seen[path]; dup {
				continue
			}
			seen[path] = struct{}{}
			files = append(files, path)
		}
	}

	sort.Strings(files)
	return files, nil
}

func (w *Walker) shouldExclude(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.excludes {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}
	return false
}

func isDataset(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}
