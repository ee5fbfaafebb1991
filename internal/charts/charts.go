// Package charts renders report distributions as PNG images.
package charts

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/KaramelBytes/skelaudit-cli/internal/analysis"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Bins is the histogram bin count.
const Bins = 30

// ErrNoData is returned when a chart has nothing finite to draw.
var ErrNoData = errors.New("no finite values to plot")

var (
	colorArea       = color.RGBA{R: 135, G: 206, B: 235, A: 255}
	colorVisibility = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	colorMotion     = color.RGBA{R: 0, G: 128, B: 0, A: 255}
	colorThreshold  = color.RGBA{R: 220, A: 255}
	colorBars       = color.RGBA{R: 68, G: 1, B: 84, A: 255}
)

// Histograms draws the per-sample mean area, visibility and motion side by
// side, with the noise threshold marked on the visibility panel.
func Histograms(f analysis.SampleFeatures, noiseThreshold float64, path string) error {
	panels := []struct {
		title, xlabel string
		vals          []float64
		fill          color.Color
	}{
		{"BBox Area Distribution (Mean per Sample)", "Normalized Area", f.Area, colorArea},
		{"Visibility Distribution (Mean per Sample)", "Visibility", f.Visibility, colorVisibility},
		{"Motion Proxy Distribution (Mean per Sample)", "Normalized Motion", f.Motion, colorMotion},
	}
	row := make([]*plot.Plot, len(panels))
	for i, s := range panels {
		p := plot.New()
		p.Title.Text = s.title
		p.X.Label.Text = s.xlabel
		p.Y.Label.Text = "Count"
		vals := finite(s.vals)
		if len(vals) == 0 {
			return fmt.Errorf("%s: %w", s.xlabel, ErrNoData)
		}
		h, err := plotter.NewHist(vals, Bins)
		if err != nil {
			return fmt.Errorf("histogram %s: %w", s.xlabel, err)
		}
		h.FillColor = s.fill
		p.Add(h)
		if i == 1 {
			l, err := plotter.NewLine(plotter.XYs{{X: noiseThreshold, Y: 0}, {X: noiseThreshold, Y: p.Y.Max}})
			if err != nil {
				return fmt.Errorf("threshold line: %w", err)
			}
			l.LineStyle.Color = colorThreshold
			l.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
			p.Add(l)
			p.Legend.Add(fmt.Sprintf("Noise Threshold (%.1f)", noiseThreshold), l)
		}
		row[i] = p
	}

	img := vgimg.New(18*vg.Inch, 5*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: 1, Cols: len(row), PadX: vg.Millimeter * 4, PadY: vg.Millimeter * 4,
		PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2, PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2}
	canvases := plot.Align([][]*plot.Plot{row}, tiles, dc)
	for j, p := range row {
		p.Draw(canvases[0][j])
	}
	return writePNG(img, path)
}

// ClassCounts draws the number of samples per class.
func ClassCounts(d *analysis.ClassDistribution, split, path string) error {
	if d == nil || len(d.Classes) == 0 {
		return ErrNoData
	}
	vals := make(plotter.Values, len(d.Classes))
	names := make([]string, len(d.Classes))
	for i, c := range d.Classes {
		vals[i] = float64(c.Count)
		names[i] = strconv.Itoa(c.ClassID)
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Number of Samples per Class (%s)", split)
	p.X.Label.Text = "Action ID"
	p.Y.Label.Text = "Count"
	bars, err := plotter.NewBarChart(vals, vg.Points(12))
	if err != nil {
		return fmt.Errorf("bar chart: %w", err)
	}
	bars.Color = colorBars
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(names...)
	return save(p, 10*vg.Inch, 6*vg.Inch, path)
}

// AreaByClass draws a box plot of mean sample area for each class.
func AreaByClass(f analysis.SampleFeatures, classIDs []int, path string) error {
	n := min(f.Len(), len(classIDs))
	byClass := map[int][]float64{}
	var order []int
	for i := 0; i < n; i++ {
		v := f.Area[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		id := classIDs[i]
		if _, ok := byClass[id]; !ok {
			order = append(order, id)
		}
		byClass[id] = append(byClass[id], v)
	}
	if len(order) == 0 {
		return ErrNoData
	}
	sort.Ints(order)

	p := plot.New()
	p.Title.Text = "Bias Check: Subject Size per Class"
	p.X.Label.Text = "Action ID"
	p.Y.Label.Text = "Normalized BBox Area"
	p.Add(plotter.NewGrid())
	names := make([]string, len(order))
	for i, id := range order {
		b, err := plotter.NewBoxPlot(vg.Points(20), float64(i), plotter.Values(byClass[id]))
		if err != nil {
			return fmt.Errorf("box plot class %d: %w", id, err)
		}
		p.Add(b)
		names[i] = strconv.Itoa(id)
	}
	p.NominalX(names...)
	return save(p, 12*vg.Inch, 6*vg.Inch, path)
}

// RenderAll writes the three standard charts for r into dir and returns the
// written paths.
func RenderAll(dir string, r *analysis.Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir plots dir: %w", err)
	}
	noise := analysis.DefaultConfig().NoiseThreshold
	if r.Classes != nil {
		noise = r.Classes.NoiseThreshold
	}
	var out []string
	hist := filepath.Join(dir, r.Split+"_histograms.png")
	if err := Histograms(r.Features, noise, hist); err != nil {
		return out, err
	}
	out = append(out, hist)
	if r.Classes == nil {
		return out, nil
	}
	counts := filepath.Join(dir, r.Split+"_class_counts.png")
	if err := ClassCounts(r.Classes, r.Split, counts); err != nil {
		return out, err
	}
	out = append(out, counts)
	box := filepath.Join(dir, r.Split+"_area_by_class.png")
	if err := AreaByClass(r.Features, r.ClassIDs, box); err != nil {
		return out, err
	}
	return append(out, box), nil
}

func save(p *plot.Plot, w, h vg.Length, path string) error {
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("save %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writePNG(img *vgimg.Canvas, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func finite(vals []float64) plotter.Values {
	out := make(plotter.Values, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
