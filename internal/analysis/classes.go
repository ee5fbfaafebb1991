package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/skelaudit-cli/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// SampleFeatures holds the temporal mean of each crowd channel, one value
// per sample.
type SampleFeatures struct {
	Area       []float64 `json:"-"`
	Visibility []float64 `json:"-"`
	Motion     []float64 `json:"-"`
}

// Len returns the number of samples.
func (f SampleFeatures) Len() int { return len(f.Area) }

// SampleMeans averages an (N, T, 3) crowd array over the frame axis.
func SampleMeans(crowd *dataset.Array) (SampleFeatures, error) {
	if err := CheckCrowdShape(crowd); err != nil {
		return SampleFeatures{}, err
	}
	n, t := crowd.Dim(0), crowd.Dim(1)
	f := SampleFeatures{
		Area:       make([]float64, n),
		Visibility: make([]float64, n),
		Motion:     make([]float64, n),
	}
	dst := [3][]float64{f.Area, f.Visibility, f.Motion}
	buf := make([]float64, t)
	for i := 0; i < n; i++ {
		base := i * t * 3
		for ch := 0; ch < 3; ch++ {
			for j := 0; j < t; j++ {
				buf[j] = crowd.Data[base+j*3+ch]
			}
			dst[ch][i] = stat.Mean(buf, nil)
		}
	}
	return f, nil
}

// ClassStat aggregates the samples of one class.
type ClassStat struct {
	ClassID        int   `json:"class_id"`
	Count          int   `json:"count"`
	MeanArea       Float `json:"mean_area"`
	MeanVisibility Float `json:"mean_visibility"`
	MeanMotion     Float `json:"mean_motion"`
}

// ClassDistribution is the per-class report.
type ClassDistribution struct {
	Samples int `json:"samples"`
	// Classes is sorted by class id; classes without samples are absent.
	Classes            []ClassStat `json:"classes"`
	ImbalanceThreshold float64     `json:"imbalance_threshold"`
	// Spread is max minus min per-class mean area.
	Spread     Float      `json:"spread"`
	Imbalanced bool       `json:"imbalanced"`
	Smallest   *ClassStat `json:"smallest,omitempty"`
	Largest    *ClassStat `json:"largest,omitempty"`

	NoiseThreshold   float64 `json:"noise_threshold"`
	LowVisibility    int     `json:"low_visibility"`
	LowVisibilityPct float64 `json:"low_visibility_pct"`
}

// ClassDistributionOf groups per-sample features by class id. Features and
// classIDs are paired by index; if their lengths differ only the common
// prefix is used.
func ClassDistributionOf(f SampleFeatures, classIDs []int, cfg Config) *ClassDistribution {
	n := min(f.Len(), len(classIDs))
	d := &ClassDistribution{
		Samples:            n,
		ImbalanceThreshold: cfg.ImbalanceThreshold,
		NoiseThreshold:     cfg.NoiseThreshold,
		Spread:             Float(nan()),
	}

	type acc struct {
		count             int
		area, vis, motion []float64
	}
	groups := map[int]*acc{}
	for i := 0; i < n; i++ {
		g := groups[classIDs[i]]
		if g == nil {
			g = &acc{}
			groups[classIDs[i]] = g
		}
		g.count++
		g.area = append(g.area, f.Area[i])
		g.vis = append(g.vis, f.Visibility[i])
		g.motion = append(g.motion, f.Motion[i])
		// NaN < threshold is false, so NaN samples are never counted as noisy.
		if f.Visibility[i] < cfg.NoiseThreshold {
			d.LowVisibility++
		}
	}
	if n > 0 {
		d.LowVisibilityPct = float64(d.LowVisibility) / float64(n) * 100
	}

	ids := make([]int, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		g := groups[id]
		d.Classes = append(d.Classes, ClassStat{
			ClassID:        id,
			Count:          g.count,
			MeanArea:       Float(meanSkipNaN(g.area)),
			MeanVisibility: Float(meanSkipNaN(g.vis)),
			MeanMotion:     Float(meanSkipNaN(g.motion)),
		})
	}

	// First occurrence wins on ties, scanning in class-id order.
	var lo, hi *ClassStat
	for i := range d.Classes {
		c := &d.Classes[i]
		if c.MeanArea.IsNaN() {
			continue
		}
		if lo == nil || c.MeanArea < lo.MeanArea {
			lo = c
		}
		if hi == nil || c.MeanArea > hi.MeanArea {
			hi = c
		}
	}
	if lo != nil {
		smallest, largest := *lo, *hi
		d.Smallest, d.Largest = &smallest, &largest
		spread := float64(hi.MeanArea - lo.MeanArea)
		d.Spread = Float(spread)
		d.Imbalanced = spread > cfg.ImbalanceThreshold
	}
	return d
}

// meanSkipNaN averages vals, ignoring NaN entries.
func meanSkipNaN(vals []float64) float64 {
	kept := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return math.NaN()
	}
	return stat.Mean(kept, nil)
}
