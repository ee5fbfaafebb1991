package analysis

import (
	"fmt"

	"github.com/KaramelBytes/skelaudit-cli/internal/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat"
)

// Channel names, in axis order.
var (
	JointChannels = []string{"x", "y", "confidence"}
	BBoxChannels  = []string{"x1", "y1", "x2", "y2"}
	CrowdChannels = []string{"area", "visibility", "motion"}
)

// Crowd channel indices.
const (
	CrowdArea = iota
	CrowdVisibility
	CrowdMotion
)

// ShapeError reports an array that violates its structural invariant.
type ShapeError struct {
	Array string
	Shape []int
	Want  string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s has shape %v, want %s", e.Array, e.Shape, e.Want)
}

// CheckJointShape requires (N, 3, T, V, M).
func CheckJointShape(a *dataset.Array) error {
	if a.Rank() != 5 || a.Dim(1) != len(JointChannels) {
		return &ShapeError{Array: "joints", Shape: a.Shape, Want: "(N, 3, T, V, M)"}
	}
	return nil
}

// CheckBBoxShape requires (N, T, 4).
func CheckBBoxShape(a *dataset.Array) error {
	if a.Rank() != 3 || a.Dim(2) != len(BBoxChannels) {
		return &ShapeError{Array: "bboxes", Shape: a.Shape, Want: "(N, T, 4)"}
	}
	return nil
}

// CheckCrowdShape requires (N, T, 3).
func CheckCrowdShape(a *dataset.Array) error {
	if a.Rank() != 3 || a.Dim(2) != len(CrowdChannels) {
		return &ShapeError{Array: "crowd", Shape: a.Shape, Want: "(N, T, 3)"}
	}
	return nil
}

// ChannelStats summarizes one channel over the whole array. A NaN anywhere
// in the channel makes Mean NaN; CrowdSummary.HasNaN reports presence.
type ChannelStats struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Min   Float  `json:"min"`
	Max   Float  `json:"max"`
	Mean  Float  `json:"mean"`
}

func summarize(name string, vals []float64) ChannelStats {
	s := ChannelStats{Name: name, Count: len(vals)}
	if len(vals) == 0 {
		v := Float(nan())
		s.Min, s.Max, s.Mean = v, v, v
		return s
	}
	s.Min = Float(floats.Min(vals))
	s.Max = Float(floats.Max(vals))
	s.Mean = Float(stat.Mean(vals, nil))
	return s
}

// JointSummary holds joint-array statistics.
type JointSummary struct {
	Channels []ChannelStats `json:"channels"`
	Sentinel float64        `json:"sentinel"`
	// SentinelPct is the share of confidence values close to Sentinel, in percent.
	SentinelPct   float64 `json:"sentinel_pct"`
	SentinelCount int     `json:"sentinel_count"`
}

// JointStats computes per-channel statistics for an (N, 3, T, V, M) array
// and the share of interpolated confidence values.
func JointStats(joints *dataset.Array, cfg Config) (*JointSummary, error) {
	if err := CheckJointShape(joints); err != nil {
		return nil, err
	}
	n, c := joints.Dim(0), joints.Dim(1)
	block := joints.Dim(2) * joints.Dim(3) * joints.Dim(4)
	js := &JointSummary{Sentinel: cfg.Sentinel}
	for ch, name := range JointChannels {
		vals := make([]float64, 0, n*block)
		for i := 0; i < n; i++ {
			off := (i*c + ch) * block
			vals = append(vals, joints.Data[off:off+block]...)
		}
		js.Channels = append(js.Channels, summarize(name, vals))
		if ch == 2 {
			for _, v := range vals {
				if scalar.EqualWithinAbsOrRel(v, cfg.Sentinel, cfg.SentinelAbsTol, cfg.SentinelRelTol) {
					js.SentinelCount++
				}
			}
			if len(vals) > 0 {
				js.SentinelPct = float64(js.SentinelCount) / float64(len(vals)) * 100
			}
		}
	}
	return js, nil
}

// BBoxSummary holds per-coordinate box statistics.
type BBoxSummary struct {
	Channels []ChannelStats `json:"channels"`
}

// BBoxStats computes per-coordinate statistics for an (N, T, 4) array.
func BBoxStats(bbox *dataset.Array) (*BBoxSummary, error) {
	if err := CheckBBoxShape(bbox); err != nil {
		return nil, err
	}
	return &BBoxSummary{Channels: lastAxisStats(bbox, BBoxChannels)}, nil
}

// CrowdSummary holds crowd-feature statistics and anomaly flags.
type CrowdSummary struct {
	Channels         []ChannelStats `json:"channels"`
	MotionMax        float64        `json:"motion_max"`
	MotionOutOfRange bool           `json:"motion_out_of_range"`
	HasNaN           bool           `json:"has_nan"`
	// Negative names channels whose minimum is below zero.
	Negative []string `json:"negative,omitempty"`
}

// CrowdStats computes per-channel statistics for an (N, T, 3) array and
// flags out-of-range motion, negative values and NaN presence.
func CrowdStats(crowd *dataset.Array, cfg Config) (*CrowdSummary, error) {
	if err := CheckCrowdShape(crowd); err != nil {
		return nil, err
	}
	cs := &CrowdSummary{
		Channels:  lastAxisStats(crowd, CrowdChannels),
		MotionMax: cfg.MotionMax,
		HasNaN:    floats.HasNaN(crowd.Data),
	}
	// NaN compares false, matching numpy: a NaN maximum is not out of range.
	cs.MotionOutOfRange = float64(cs.Channels[CrowdMotion].Max) > cfg.MotionMax
	for _, ch := range cs.Channels {
		if float64(ch.Min) < 0 {
			cs.Negative = append(cs.Negative, ch.Name)
		}
	}
	return cs, nil
}

// lastAxisStats summarizes each index of the innermost axis.
func lastAxisStats(a *dataset.Array, names []string) []ChannelStats {
	k := len(names)
	per := a.Size() / k
	out := make([]ChannelStats, k)
	vals := make([]float64, per)
	for ch := 0; ch < k; ch++ {
		for i := 0; i < per; i++ {
			vals[i] = a.Data[i*k+ch]
		}
		out[ch] = summarize(names[ch], vals)
	}
	return out
}
