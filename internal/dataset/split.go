package dataset

import (
	"fmt"
	"strings"
)

// Split names one of the fixed dataset partitions.
type Split string

const (
	Train Split = "train"
	Val   Split = "val"
	Test  Split = "test"
)

// Splits lists every recognized partition in canonical order.
var Splits = []Split{Train, Val, Test}

// ParseSplit validates a partition name. Matching is case-insensitive.
func ParseSplit(s string) (Split, error) {
	name := Split(strings.ToLower(strings.TrimSpace(s)))
	for _, sp := range Splits {
		if sp == name {
			return sp, nil
		}
	}
	return "", fmt.Errorf("unknown split %q (use train, val or test)", s)
}

func (s Split) String() string { return string(s) }
