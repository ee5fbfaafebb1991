package analysis

// NamedCount is the leading-axis length of one input.
type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Alignment is the sample-count consistency verdict for one split.
type Alignment struct {
	Consistent bool         `json:"consistent"`
	Counts     []NamedCount `json:"counts"`
	// Offending repeats the counts when they differ; empty otherwise.
	Offending []NamedCount `json:"offending,omitempty"`
	Min       int          `json:"min"`
	Max       int          `json:"max"`
}

// CheckAlignment compares sample counts across arrays and labels. It is
// inconsistent exactly when the largest and smallest counts differ.
func CheckAlignment(counts ...NamedCount) Alignment {
	a := Alignment{Consistent: true, Counts: append([]NamedCount(nil), counts...)}
	if len(counts) == 0 {
		return a
	}
	a.Min, a.Max = counts[0].Count, counts[0].Count
	for _, c := range counts[1:] {
		a.Min = min(a.Min, c.Count)
		a.Max = max(a.Max, c.Count)
	}
	if a.Min != a.Max {
		a.Consistent = false
		a.Offending = append([]NamedCount(nil), counts...)
	}
	return a
}
