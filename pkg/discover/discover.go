// Package discover walks an input path and produces the bounded,
// deterministic list of candidate config files for a batch run. Traversal is
// depth-first with lexicographic ordering at each level, so repeated runs
// over the same tree always yield the same sequence.
package discover

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog/log"
	"github.com/whit3rabbit/sysmon-helper-cli/pkg/formats"
)

// Defaults for traversal limits.
const (
	DefaultMaxDepth    = 10
	DefaultMaxFileSize = 10 * 1024 * 1024
)

// Options bound the traversal.
type Options struct {
	Recursive      bool
	MaxDepth       int
	MaxFileSize    int64
	IgnorePatterns []string
}

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = DefaultMaxFileSize
	}
	if !o.Recursive {
		o.MaxDepth = 1
	}
	return o
}

// Skip records a path that was left out of the run and why.
type Skip struct {
	Path   string
	Reason string
}

// Result is the discovery output: candidate files in traversal order plus
// skip diagnostics.
type Result struct {
	Files   []string
	Skipped []Skip
}

// Discover walks root and returns every regular file with a recognized
// extension, within the configured depth and size limits. A single-file
// root yields just that file. Unreadable subdirectories are recorded and
// skipped; only an unreadable root is a hard error.
func Discover(root string, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read input path %s: %w", root, err)
	}

	res := &Result{}
	if !info.IsDir() {
		if !formats.Recognized(root) {
			res.Skipped = append(res.Skipped, Skip{Path: root, Reason: "unrecognized extension"})
			return res, nil
		}
		if info.Size() > opts.MaxFileSize {
			res.Skipped = append(res.Skipped, Skip{Path: root, Reason: "too large"})
			return res, nil
		}
		res.Files = append(res.Files, root)
		return res, nil
	}

	w := &walker{opts: opts, root: root, res: res, visited: map[string]bool{}}
	w.walkDir(root, 1)
	log.Debug().Int("files", len(res.Files)).Int("skipped", len(res.Skipped)).Str("root", root).Msg("discovery complete")
	return res, nil
}

type walker struct {
	opts    Options
	root    string
	res     *Result
	visited map[string]bool
}

// walkDir visits one directory level. depth counts levels below the root,
// with the root's direct entries at depth 1.
func (w *walker) walkDir(dir string, depth int) {
	if depth > w.opts.MaxDepth {
		return
	}
	canonical, err := filepath.EvalSymlinks(dir)
	if err != nil {
		canonical = dir
	}
	if w.visited[canonical] {
		log.Debug().Str("dir", dir).Msg("skipping already-visited directory")
		return
	}
	w.visited[canonical] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		w.res.Skipped = append(w.res.Skipped, Skip{Path: dir, Reason: fmt.Sprintf("unreadable directory: %v", err)})
		return
	}
	// os.ReadDir returns entries sorted by name, which keeps traversal
	// order reproducible.
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if w.ignored(path) {
			continue
		}
		if entry.IsDir() || isDirLink(path, entry) {
			w.walkDir(path, depth+1)
			continue
		}
		if !formats.Recognized(path) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			w.res.Skipped = append(w.res.Skipped, Skip{Path: path, Reason: fmt.Sprintf("unreadable: %v", err)})
			continue
		}
		if info.Size() > w.opts.MaxFileSize {
			w.res.Skipped = append(w.res.Skipped, Skip{Path: path, Reason: "too large"})
			continue
		}
		w.res.Files = append(w.res.Files, path)
	}
}

func (w *walker) ignored(path string) bool {
	if len(w.opts.IgnorePatterns) == 0 {
		return false
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.opts.IgnorePatterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// isDirLink reports whether entry is a symlink pointing at a directory.
func isDirLink(path string, entry os.DirEntry) bool {
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
