package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind identifies one of the per-split input files.
type Kind string

const (
	KindJoints Kind = "data_joint"
	KindBBox   Kind = "bbox"
	KindCrowd  Kind = "crowd_features"
	KindLabel  Kind = "label"
)

var (
	arraySuffixes = []string{".npy", ".npy.gz", ".npy.zst"}
	labelSuffixes = []string{".pkl", ".json", ".yaml", ".yml"}
)

// MissingInputError reports that none of the candidate paths for a split
// input exist.
type MissingInputError struct {
	Split Split
	Kind  Kind
	Tried []string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing %s input for split %s (tried %s)", e.Kind, e.Split, strings.Join(e.Tried, ", "))
}

// Files holds the resolved on-disk paths for one split.
type Files struct {
	Split  Split
	Joints string
	BBox   string
	Crowd  string
	Label  string
}

// Resolve finds the file for kind under dir, following the
// {split}_{kind}{suffix} naming convention.
func Resolve(dir string, split Split, kind Kind) (string, error) {
	suffixes := arraySuffixes
	if kind == KindLabel {
		suffixes = labelSuffixes
	}
	base := filepath.Join(dir, fmt.Sprintf("%s_%s", split, kind))
	tried := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		p := base + s
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
		tried = append(tried, p)
	}
	return "", &MissingInputError{Split: split, Kind: kind, Tried: tried}
}

// ResolveSplit resolves all four inputs, failing on the first missing one.
func ResolveSplit(dir string, split Split) (*Files, error) {
	f := &Files{Split: split}
	targets := []struct {
		kind Kind
		dst  *string
	}{
		{KindLabel, &f.Label},
		{KindJoints, &f.Joints},
		{KindBBox, &f.BBox},
		{KindCrowd, &f.Crowd},
	}
	for _, t := range targets {
		p, err := Resolve(dir, split, t.kind)
		if err != nil {
			return nil, err
		}
		*t.dst = p
	}
	return f, nil
}
