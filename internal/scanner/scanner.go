// Package scanner walks a directory tree and reports structured-text files
// that fail to read or parse. A bad file never stops the scan.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cyclopcam/logs"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// DefaultLogPath is where corrupted paths are written when no path is given.
const DefaultLogPath = "corrupted_json_list.txt"

// Options controls a scan.
type Options struct {
	// Extensions selects candidate files, e.g. ".json". Matching is case-insensitive.
	Extensions []string
	// ProgressEvery emits a progress event every N files, starting at index 0.
	ProgressEvery int
	// Progress, if set, is called with the zero-based index of the file about
	// to be checked and the total candidate count.
	Progress func(index, total int)
}

// DefaultOptions scans JSON files and reports progress every 100 files.
func DefaultOptions() Options {
	return Options{
		Extensions:    []string{".json"},
		ProgressEvery: 100,
	}
}

// Corruption records one file that failed to read or parse.
type Corruption struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// Result summarizes a scan.
type Result struct {
	Root      string       `json:"root"`
	Total     int          `json:"total"`
	Corrupted []Corruption `json:"corrupted"`
	// LogPath is set by WriteLog when a log was written.
	LogPath string `json:"log_path,omitempty"`
}

// Clean reports whether every scanned file parsed.
func (r *Result) Clean() bool { return len(r.Corrupted) == 0 }

// Paths returns the corrupted file paths in scan order.
func (r *Result) Paths() []string {
	out := make([]string, len(r.Corrupted))
	for i, c := range r.Corrupted {
		out[i] = c.Path
	}
	return out
}

// Scan checks every candidate file under root. Only a failure to walk root
// itself is returned as an error; per-file failures land in Result.
func Scan(fsys billy.Filesystem, root string, opt Options, log logs.Log) (*Result, error) {
	if opt.ProgressEvery <= 0 {
		opt.ProgressEvery = 100
	}
	if len(opt.Extensions) == 0 {
		opt.Extensions = DefaultOptions().Extensions
	}
	if err := CheckExtensions(opt.Extensions); err != nil {
		return nil, err
	}
	if _, err := fsys.Stat(root); err != nil {
		return nil, fmt.Errorf("scan root: %w", err)
	}

	files, err := collect(fsys, root, opt.Extensions, log)
	if err != nil {
		return nil, err
	}
	res := &Result{Root: root, Total: len(files)}
	log.Infof("Found %d files under %s. Scanning...", res.Total, root)

	for i, path := range files {
		if i%opt.ProgressEvery == 0 {
			log.Infof("Progress: %d/%d files checked", i, res.Total)
			if opt.Progress != nil {
				opt.Progress(i, res.Total)
			}
		}
		if err := checkFile(fsys, path); err != nil {
			log.Warnf("Corrupted file %s: %v", path, err)
			res.Corrupted = append(res.Corrupted, Corruption{Path: path, Err: err.Error()})
		}
	}
	return res, nil
}

func collect(fsys billy.Filesystem, root string, exts []string, log logs.Log) ([]string, error) {
	var files []string
	walkErr := util.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Unreadable entries below root are skipped, not fatal.
			if path != root {
				log.Warnf("Skipping %s: %v", path, err)
				return nil
			}
			return err
		}
		if info.IsDir() || !matchExt(path, exts) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", root, walkErr)
	}
	sort.Strings(files)
	return files, nil
}

func checkFile(fsys billy.Filesystem, path string) error {
	data, err := util.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	v := validatorFor(path)
	if v == nil {
		return fmt.Errorf("no validator for %s", filepath.Ext(path))
	}
	if err := v.Validate(data); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	return nil
}

func matchExt(path string, exts []string) bool {
	lower := strings.ToLower(path)
	for _, e := range exts {
		e = normalizeExt(e)
		if e != "" && strings.HasSuffix(lower, e) {
			return true
		}
	}
	return false
}

// normalizeExt lowercases e and adds a missing leading dot.
func normalizeExt(e string) string {
	e = strings.ToLower(strings.TrimSpace(e))
	if e != "" && !strings.HasPrefix(e, ".") {
		e = "." + e
	}
	return e
}
