package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"chartjobs/internal/exact"
	"chartjobs/internal/series"
	logx "chartjobs/pkg/logx"
)

type ChartOptions struct {
	Width  int
	Height int

	// OutDir, when set, receives one <dataset-slug>.png per render.
	OutDir string

	// Stamp draws the render time onto the image.
	Stamp bool
	Now   func() time.Time
}

// ChartRenderer renders datasets to PNG with go-chart.
type ChartRenderer struct {
	opt ChartOptions
	log logx.Logger
}

func NewChart(opt ChartOptions, log logx.Logger) *ChartRenderer {
	if opt.Width <= 0 {
		opt.Width = 800
	}
	if opt.Height <= 0 {
		opt.Height = 480
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &ChartRenderer{opt: opt, log: log.With(logx.String("comp", "render.chart"))}
}

func (r *ChartRenderer) Render(ctx context.Context, ds *series.Dataset) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}
	vp, err := viewport(ds)
	if err != nil {
		return Artifact{}, err
	}

	var buf bytes.Buffer
	switch p := ds.Payload.(type) {
	case *series.Bar:
		err = r.renderBar(&buf, ds, p, vp)
	default:
		err = r.renderXY(&buf, ds, vp)
	}
	if err != nil {
		return Artifact{}, fmt.Errorf("render %s: %w", ds.Name, err)
	}

	data := buf.Bytes()
	if r.opt.Stamp {
		if data, err = stampPNG(data, logx.Stamp(r.opt.Now())); err != nil {
			return Artifact{}, fmt.Errorf("stamp %s: %w", ds.Name, err)
		}
	}

	art := Artifact{Format: "png", Data: data, Points: ds.Series.Len()}
	if r.opt.OutDir != "" {
		if err := os.MkdirAll(r.opt.OutDir, 0o755); err != nil {
			return art, err
		}
		path := filepath.Join(r.opt.OutDir, slug(ds.Name)+".png")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return art, err
		}
		art.Path = path
		r.log.Debug("chart written", logx.String("path", path), logx.Int("bytes", len(data)))
	}
	return art, nil
}

// pointStyle renders points only, no connecting line.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    4,
		DotColor:    col,
	}
}

func lineStyle(col drawing.Color, width float64) chart.Style {
	return chart.Style{
		StrokeWidth: width,
		StrokeColor: col,
	}
}

func segment(name string, a, b exact.Point, st chart.Style) chart.ContinuousSeries {
	return chart.ContinuousSeries{
		Name:    name,
		XValues: []float64{a.X.Float64(), b.X.Float64()},
		YValues: []float64{a.Y.Float64(), b.Y.Float64()},
		Style:   st,
	}
}

func (r *ChartRenderer) renderXY(buf *bytes.Buffer, ds *series.Dataset, vp series.Bounds) error {
	var ss []chart.Series
	legend := false

	switch p := ds.Payload.(type) {
	case series.Scatter, series.Line:
		entries := ds.Series.Sorted(series.ByX[string])
		xs := make([]float64, len(entries))
		ys := make([]float64, len(entries))
		for i, e := range entries {
			xs[i] = e.Point.X.Float64()
			ys[i] = e.Point.Y.Float64()
		}
		st := lineStyle(chart.ColorBlue, 2)
		if ds.Kind() == series.KindScatter {
			st = pointStyle(chart.ColorBlue)
		}
		ss = append(ss, chart.ContinuousSeries{Name: ds.Name, XValues: xs, YValues: ys, Style: st})
		legend = true

	case *series.AgeGender:
		for _, band := range p.Bands {
			if m, ok := ds.Series.Get(band + "/m"); ok {
				ss = append(ss, segment("", exact.Pt(exact.Int(0), m.Y), m, lineStyle(chart.ColorBlue, 10)))
			}
			if f, ok := ds.Series.Get(band + "/f"); ok {
				ss = append(ss, segment("", exact.Pt(exact.Int(0), f.Y), f, lineStyle(chart.ColorRed, 10)))
			}
		}

	case *series.BoxPlot:
		for i, label := range p.Labels {
			st, ok := p.Stats[label]
			if !ok {
				continue
			}
			x := exact.Int(int64(i))
			ss = append(ss,
				segment("", exact.Pt(x, st.Min), exact.Pt(x, st.Max), lineStyle(chart.ColorBlack, 1)),
				segment("", exact.Pt(x, st.Q1), exact.Pt(x, st.Q3), lineStyle(chart.ColorBlue, 12)),
				chart.ContinuousSeries{
					XValues: []float64{x.Float64()},
					YValues: []float64{st.Median.Float64()},
					Style:   pointStyle(chart.ColorOrange),
				},
			)
		}

	default:
		return fmt.Errorf("unsupported dataset kind %s", ds.Kind())
	}

	ch := chart.Chart{
		Title:      ds.Name,
		Width:      r.opt.Width,
		Height:     r.opt.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 24}},
		XAxis:      chart.XAxis{Range: &chart.ContinuousRange{Min: vp.MinX.Float64(), Max: vp.MaxX.Float64()}},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: vp.MinY.Float64(), Max: vp.MaxY.Float64()}},
		Series:     ss,
	}
	if legend {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	return ch.Render(chart.PNG, buf)
}

func (r *ChartRenderer) renderBar(buf *bytes.Buffer, ds *series.Dataset, p *series.Bar, vp series.Bounds) error {
	bars := make([]chart.Value, 0, len(p.Categories))
	for _, label := range p.Categories {
		pt, ok := ds.Series.Get(label)
		if !ok {
			continue
		}
		bars = append(bars, chart.Value{Label: label, Value: pt.Y.Float64()})
	}
	lo := exact.Min(exact.Int(0), vp.MinY)
	hi := exact.Max(exact.Int(0), vp.MaxY)

	bc := chart.BarChart{
		Title:      ds.Name,
		Width:      r.opt.Width,
		Height:     r.opt.Height,
		BarWidth:   40,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: lo.Float64(), Max: hi.Float64()}},
		Bars:       bars,
	}
	return bc.Render(chart.PNG, buf)
}
