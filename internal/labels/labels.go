// Package labels turns the per-split label container into a canonical,
// field-named LabelSet.
//
// The container arrives in one of two shapes: a positional 4-tuple
// (sample_name, label, frame, video_path) or a mapping from field name to
// sequence. Both are modeled as variants of RawLabels and Normalize handles
// each explicitly; anything else is a LabelFormatError.
package labels

import (
	"fmt"
	"sort"
)

// Canonical field names.
const (
	FieldSampleName = "sample_name"
	FieldLabel      = "label"
	FieldFrame      = "frame"
	FieldVideoPath  = "video_path"
	FieldIDAction   = "id_action"
)

// RawLabels is the polymorphic label container.
type RawLabels interface {
	// Keys lists the field names the container carries.
	Keys() []string
	isRawLabels()
}

// PositionalLabels is the 4-tuple form.
type PositionalLabels struct {
	SampleName []any
	Label      []any
	Frame      []any // doubles as the class id used for grouping
	VideoPath  []any
}

func (PositionalLabels) isRawLabels() {}

func (PositionalLabels) Keys() []string {
	return []string{FieldSampleName, FieldLabel, FieldFrame, FieldVideoPath}
}

// NamedLabels is the mapping form.
type NamedLabels map[string][]any

func (NamedLabels) isRawLabels() {}

func (n NamedLabels) Keys() []string {
	keys := make([]string, 0, len(n))
	for k := range n {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Source records which variant a LabelSet was built from.
type Source string

const (
	SourcePositional Source = "tuple"
	SourceNamed      Source = "mapping"
)

// LabelSet is the canonical label structure. Every slice has length Len().
type LabelSet struct {
	SampleName []string
	Label      []int
	Frame      []int
	VideoPath  []string
	// ClassIDs is the per-sample grouping key: Frame for the tuple form,
	// id_action (or label) for the mapping form.
	ClassIDs []int
	Source   Source
	// ClassField names the raw field ClassIDs was taken from.
	ClassField string
	Keys       []string
}

// Len returns the number of labelled samples.
func (l *LabelSet) Len() int {
	if l == nil {
		return 0
	}
	return len(l.ClassIDs)
}

// LabelFormatError reports a container that cannot be normalized.
type LabelFormatError struct {
	Reason string
	Err    error
}

func (e *LabelFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("label format not recognized: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("label format not recognized: %s", e.Reason)
}

func (e *LabelFormatError) Unwrap() error { return e.Err }

func formatErr(format string, a ...any) *LabelFormatError {
	return &LabelFormatError{Reason: fmt.Sprintf(format, a...)}
}
