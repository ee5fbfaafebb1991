package analysis

import (
	"fmt"
	"time"

	"github.com/KaramelBytes/skelaudit-cli/internal/dataset"
	"github.com/KaramelBytes/skelaudit-cli/internal/labels"
	"github.com/cyclopcam/logs"
	"github.com/google/uuid"
)

// Inputs is one loaded split. Nil arrays are skipped; the remaining
// statistics are still computed.
type Inputs struct {
	Split  dataset.Split
	Joints *dataset.Array
	BBoxes *dataset.Array
	Crowd  *dataset.Array
	Labels *labels.LabelSet
}

// Audit validates shapes, checks alignment and computes every statistic for
// one split. Only a shape invariant violation is returned as an error;
// misalignment and anomalies become report warnings.
func Audit(in Inputs, cfg Config) (*Report, error) {
	r := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Split:       string(in.Split),
	}

	var counts []NamedCount
	arrays := []struct {
		name  string
		a     *dataset.Array
		check func(*dataset.Array) error
	}{
		{"joints", in.Joints, CheckJointShape},
		{"bboxes", in.BBoxes, CheckBBoxShape},
		{"crowd", in.Crowd, CheckCrowdShape},
	}
	for _, x := range arrays {
		if x.a == nil {
			continue
		}
		r.Shapes = append(r.Shapes, ArrayShape{Name: x.name, Shape: append([]int(nil), x.a.Shape...)})
		if err := x.check(x.a); err != nil {
			return nil, err
		}
		counts = append(counts, NamedCount{Name: x.name, Count: x.a.Len()})
	}
	if in.Labels != nil {
		counts = append(counts, NamedCount{Name: "labels", Count: in.Labels.Len()})
		r.Labels = LabelMeta{
			Source:     string(in.Labels.Source),
			ClassField: in.Labels.ClassField,
			Keys:       in.Labels.Keys,
			Count:      in.Labels.Len(),
		}
	}
	r.Alignment = CheckAlignment(counts...)
	if !r.Alignment.Consistent {
		r.warn("misalignment in the number of samples (N): %s", countsString(r.Alignment.Counts))
	}

	var err error
	if in.Joints != nil {
		if r.Joints, err = JointStats(in.Joints, cfg); err != nil {
			return nil, err
		}
	}
	if in.BBoxes != nil {
		if r.BBoxes, err = BBoxStats(in.BBoxes); err != nil {
			return nil, err
		}
	}
	if in.Crowd != nil {
		if r.Crowd, err = CrowdStats(in.Crowd, cfg); err != nil {
			return nil, err
		}
		if r.Crowd.MotionOutOfRange {
			r.warn("motion proxy appears to be out of range (max %.4f > %.1f); check global normalization",
				float64(r.Crowd.Channels[CrowdMotion].Max), cfg.MotionMax)
		}
		if r.Crowd.HasNaN {
			r.warn("found NaN values in crowd features")
		}
		for _, name := range r.Crowd.Negative {
			r.warn("negative values in crowd channel %s", name)
		}
		if r.Features, err = SampleMeans(in.Crowd); err != nil {
			return nil, err
		}
	}

	if in.Crowd != nil && in.Labels != nil {
		r.ClassIDs = in.Labels.ClassIDs
		r.Classes = ClassDistributionOf(r.Features, r.ClassIDs, cfg)
		if r.Features.Len() != in.Labels.Len() {
			r.warn("class distribution computed over the first %d samples only (crowd=%d, labels=%d)",
				r.Classes.Samples, r.Features.Len(), in.Labels.Len())
		}
		if r.Classes.Imbalanced {
			r.warn("significant scale difference between classes: smallest class %d (%.4f), largest class %d (%.4f)",
				r.Classes.Smallest.ClassID, float64(r.Classes.Smallest.MeanArea),
				r.Classes.Largest.ClassID, float64(r.Classes.Largest.MeanArea))
		}
		if r.Classes.LowVisibility > 0 {
			r.warn("%d of %d samples (%.1f%%) have mean visibility below %.2f",
				r.Classes.LowVisibility, r.Classes.Samples, r.Classes.LowVisibilityPct, cfg.NoiseThreshold)
		}
	}
	return r, nil
}

// RunSplit loads the four inputs of split from dir and audits them. A
// missing input, an unreadable array or an unrecognized label container
// aborts the split.
func RunSplit(dir string, split dataset.Split, cfg Config, log logs.Log) (*Report, error) {
	log.Infof("Loading data for %s set from %s", split, dir)
	files, err := dataset.ResolveSplit(dir, split)
	if err != nil {
		return nil, err
	}
	set, err := labels.Load(files.Label)
	if err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}
	in := Inputs{Split: split, Labels: set}
	for _, t := range []struct {
		path string
		dst  **dataset.Array
	}{
		{files.Joints, &in.Joints},
		{files.BBox, &in.BBoxes},
		{files.Crowd, &in.Crowd},
	} {
		a, err := dataset.LoadArray(t.path)
		if err != nil {
			return nil, err
		}
		*t.dst = a
	}

	r, err := Audit(in, cfg)
	if err != nil {
		return nil, err
	}
	r.DataDir = dir
	for _, w := range r.Warnings {
		log.Warnf("%s: %s", split, w)
	}
	log.Infof("Audit of %s set complete (%d warnings)", split, len(r.Warnings))
	return r, nil
}
