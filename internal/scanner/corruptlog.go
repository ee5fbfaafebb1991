package scanner

import (
	"fmt"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// WriteLog persists corrupted paths, one per line, overwriting any previous
// log. Nothing is written for a clean result. It returns whether a log was
// written.
func WriteLog(fsys billy.Filesystem, path string, res *Result) (bool, error) {
	if res == nil || res.Clean() {
		return false, nil
	}
	if path == "" {
		path = DefaultLogPath
	}
	var b strings.Builder
	for _, p := range res.Paths() {
		b.WriteString(p)
		b.WriteString("\n")
	}
	if err := util.WriteFile(fsys, path, []byte(b.String()), 0o644); err != nil {
		return false, fmt.Errorf("write corrupted log: %w", err)
	}
	res.LogPath = path
	return true, nil
}
