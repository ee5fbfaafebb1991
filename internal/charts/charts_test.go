package charts

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/skelaudit-cli/internal/analysis"
)

func features(n int) analysis.SampleFeatures {
	f := analysis.SampleFeatures{
		Area:       make([]float64, n),
		Visibility: make([]float64, n),
		Motion:     make([]float64, n),
	}
	for i := 0; i < n; i++ {
		f.Area[i] = 0.1 + float64(i%7)*0.05
		f.Visibility[i] = float64(i%10) / 10
		f.Motion[i] = float64(i%5) / 10
	}
	return f
}

func isPNG(t *testing.T, path string) {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if !bytes.HasPrefix(b, []byte("\x89PNG")) {
		t.Fatalf("%s is not a PNG", filepath.Base(path))
	}
}

func TestHistograms(t *testing.T) {
	f := features(40)
	f.Motion[3] = math.NaN()
	path := filepath.Join(t.TempDir(), "h.png")
	if err := Histograms(f, 0.2, path); err != nil {
		t.Fatalf("Histograms: %v", err)
	}
	isPNG(t, path)
}

func TestHistogramsNoData(t *testing.T) {
	f := analysis.SampleFeatures{Area: []float64{math.NaN()}, Visibility: []float64{1}, Motion: []float64{1}}
	err := Histograms(f, 0.2, filepath.Join(t.TempDir(), "h.png"))
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestRenderAll(t *testing.T) {
	f := features(30)
	ids := make([]int, 30)
	for i := range ids {
		ids[i] = i % 3
	}
	r := &analysis.Report{
		Split:    "train",
		Features: f,
		ClassIDs: ids,
		Classes:  analysis.ClassDistributionOf(f, ids, analysis.DefaultConfig()),
	}
	dir := filepath.Join(t.TempDir(), "plots")
	paths, err := RenderAll(dir, r)
	if err != nil {
		t.Fatalf("RenderAll: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("expected 3 charts, got %v", paths)
	}
	for _, p := range paths {
		isPNG(t, p)
	}
}

func TestRenderAllWithoutLabels(t *testing.T) {
	r := &analysis.Report{Split: "test", Features: features(10)}
	paths, err := RenderAll(t.TempDir(), r)
	if err != nil {
		t.Fatalf("RenderAll: %v", err)
	}
	if len(paths) != 1 || filepath.Base(paths[0]) != "test_histograms.png" {
		t.Fatalf("unexpected charts: %v", paths)
	}
}

func TestClassCountsEmpty(t *testing.T) {
	if err := ClassCounts(nil, "train", filepath.Join(t.TempDir(), "c.png")); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}
