package analysis

import (
	"fmt"
	"strings"
	"time"
)

// ArrayShape records the shape an array was loaded with.
type ArrayShape struct {
	Name  string `json:"name"`
	Shape []int  `json:"shape"`
}

// LabelMeta describes the label container.
type LabelMeta struct {
	Source     string   `json:"source,omitempty"`
	ClassField string   `json:"class_field,omitempty"`
	Keys       []string `json:"keys,omitempty"`
	Count      int      `json:"count"`
}

// Report is the validation result for one split. It is built by Audit and
// only read afterwards.
type Report struct {
	RunID       string             `json:"run_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	Split       string             `json:"split"`
	DataDir     string             `json:"data_dir,omitempty"`
	Shapes      []ArrayShape       `json:"shapes"`
	Alignment   Alignment          `json:"alignment"`
	Joints      *JointSummary      `json:"joints,omitempty"`
	BBoxes      *BBoxSummary       `json:"bboxes,omitempty"`
	Crowd       *CrowdSummary      `json:"crowd,omitempty"`
	Classes     *ClassDistribution `json:"classes,omitempty"`
	Labels      LabelMeta          `json:"labels"`
	Warnings    []string           `json:"warnings"`

	// Per-sample inputs kept for chart rendering.
	Features SampleFeatures `json:"-"`
	ClassIDs []int          `json:"-"`
}

func (r *Report) warn(format string, a ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, a...))
}

func countsString(counts []NamedCount) string {
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = fmt.Sprintf("%s=%d", c.Name, c.Count)
	}
	return strings.Join(parts, ", ")
}

var shapeAxes = map[string]string{
	"joints": "(N, C, T, V, M)",
	"bboxes": "(N, T, 4)",
	"crowd":  "(N, T, 3)",
}

// Markdown renders a compact, sectioned text report.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Split: %s\n", r.Split))
	if r.DataDir != "" {
		b.WriteString(fmt.Sprintf("Data dir: %s\n", r.DataDir))
	}
	b.WriteString(fmt.Sprintf("Run: %s (%s)\n", r.RunID, r.GeneratedAt.Format(time.RFC3339)))

	if len(r.Shapes) > 0 {
		b.WriteString("\n[SHAPES]\n")
		for _, s := range r.Shapes {
			b.WriteString(fmt.Sprintf("- %s: %s %s\n", s.Name, shapeString(s.Shape), shapeAxes[s.Name]))
		}
	}

	b.WriteString("\n[ALIGNMENT]\n")
	if r.Alignment.Consistent {
		b.WriteString(fmt.Sprintf("- consistent number of samples: N = %d\n", r.Alignment.Max))
	} else {
		b.WriteString(fmt.Sprintf("- MISALIGNED: %s\n", countsString(r.Alignment.Offending)))
	}

	if r.Joints != nil {
		b.WriteString("\n[JOINTS]\n")
		for _, c := range r.Joints.Channels {
			b.WriteString(fmt.Sprintf("- %s: range [%s, %s], mean %s\n", c.Name, c.Min.format(3), c.Max.format(3), c.Mean.format(3)))
		}
		b.WriteString(fmt.Sprintf("- interpolated joints (score=%.2f): %.1f%%\n", r.Joints.Sentinel, r.Joints.SentinelPct))
	}
	if r.BBoxes != nil {
		b.WriteString("\n[BBOXES]\n")
		for _, c := range r.BBoxes.Channels {
			b.WriteString(fmt.Sprintf("- %s: range [%s, %s], mean %s\n", c.Name, c.Min.format(3), c.Max.format(3), c.Mean.format(3)))
		}
	}
	if r.Crowd != nil {
		b.WriteString("\n[CROWD FEATURES]\n")
		for _, c := range r.Crowd.Channels {
			b.WriteString(fmt.Sprintf("- %s: min=%s, max=%s, mean=%s\n", c.Name, c.Min.format(4), c.Max.format(4), c.Mean.format(4)))
		}
		b.WriteString(fmt.Sprintf("- motion out of range (>%.1f): %s\n", r.Crowd.MotionMax, yesNo(r.Crowd.MotionOutOfRange)))
		b.WriteString(fmt.Sprintf("- NaN present: %s\n", yesNo(r.Crowd.HasNaN)))
	}

	if d := r.Classes; d != nil {
		b.WriteString("\n[CLASS DISTRIBUTION]\n")
		b.WriteString(fmt.Sprintf("Samples: %d, classes: %d\n", d.Samples, len(d.Classes)))
		for _, c := range d.Classes {
			b.WriteString(fmt.Sprintf("- class %d (n=%d): mean area %s, visibility %s, motion %s\n",
				c.ClassID, c.Count, c.MeanArea.format(4), c.MeanVisibility.format(4), c.MeanMotion.format(4)))
		}
		if d.Smallest != nil {
			verdict := "balanced"
			if d.Imbalanced {
				verdict = "IMBALANCED"
			}
			b.WriteString(fmt.Sprintf("- area spread %s (threshold %.2f): %s; smallest class %d (%s), largest class %d (%s)\n",
				d.Spread.format(4), d.ImbalanceThreshold, verdict,
				d.Smallest.ClassID, d.Smallest.MeanArea.format(4), d.Largest.ClassID, d.Largest.MeanArea.format(4)))
		}
		b.WriteString(fmt.Sprintf("- mean visibility < %.2f: %d out of %d (%.1f%%)\n",
			d.NoiseThreshold, d.LowVisibility, d.Samples, d.LowVisibilityPct))
	}

	if r.Labels.Source != "" {
		b.WriteString("\n[LABEL METADATA]\n")
		b.WriteString(fmt.Sprintf("- container: %s, class field: %s, entries: %d\n", r.Labels.Source, r.Labels.ClassField, r.Labels.Count))
		b.WriteString(fmt.Sprintf("- keys: %s\n", strings.Join(r.Labels.Keys, ", ")))
	}

	b.WriteString("\n[WARNINGS]\n")
	if len(r.Warnings) == 0 {
		b.WriteString("- none\n")
	} else {
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func shapeString(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
