package app

import (
	"context"
	"fmt"
	"strings"

	"chartjobs/internal/config"
	"chartjobs/internal/exact"
	"chartjobs/internal/series"
	"chartjobs/internal/task/job"
	logx "chartjobs/pkg/logx"
)

const syntheticPoints = 12

var (
	syntheticDays  = []string{"mon", "tue", "wed", "thu", "fri"}
	syntheticBands = []string{"0-9", "10-19", "20-29", "30-39", "40-49", "50-59", "60+"}
	syntheticBoxes = []string{"a", "b", "c"}
)

// newSource returns a job.Source building a fresh dataset per call. The
// entries from dc are used when present; otherwise a small deterministic
// series is derived from the job sequence id. Dataset names carry the
// sequence id so file outputs don't collide across jobs.
func newSource(dc config.DatasetConfig, log logx.Logger) (job.Source, error) {
	kind, err := series.ParseKind(dc.Kind)
	if err != nil {
		return nil, err
	}
	base := strings.TrimSpace(dc.Name)
	if base == "" {
		base = kind.String()
	}
	configured := len(dc.Points)+len(dc.Bars)+len(dc.Bands)+len(dc.Boxes) > 0
	log = log.With(logx.String("comp", "source"))

	return func(ctx context.Context, seq int) (*series.Dataset, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ds, err := series.New(kind, fmt.Sprintf("%s-%d", base, seq), log)
		if err != nil {
			return nil, err
		}
		if configured {
			err = fillConfigured(ds, dc)
		} else {
			err = fillSynthetic(ds, seq)
		}
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", ds.Name, err)
		}
		return ds, nil
	}, nil
}

func fillConfigured(ds *series.Dataset, dc config.DatasetConfig) error {
	for i, p := range dc.Points {
		id := p.ID
		if id == "" {
			id = fmt.Sprintf("p%d", i)
		}
		if err := ds.Add(id, exact.Pt(p.X, p.Y)); err != nil {
			return err
		}
	}
	for _, b := range dc.Bars {
		if err := ds.AddBar(b.Label, b.Value); err != nil {
			return err
		}
	}
	for _, b := range dc.Bands {
		if err := ds.AddBand(b.Band, b.Male, b.Female); err != nil {
			return err
		}
	}
	for _, b := range dc.Boxes {
		st := series.BoxStats{Min: b.Min, Q1: b.Q1, Median: b.Median, Q3: b.Q3, Max: b.Max}
		if err := ds.AddBox(b.Label, st); err != nil {
			return err
		}
	}
	return nil
}

func fillSynthetic(ds *series.Dataset, seq int) error {
	s := int64(seq)
	switch ds.Kind() {
	case series.KindBar:
		for i, day := range syntheticDays {
			v := (int64(i)+1)*(s+2)%9 + 1
			if err := ds.AddBar(day, exact.Int(v)); err != nil {
				return err
			}
		}
	case series.KindAgeGender:
		for i, band := range syntheticBands {
			n := int64(i)
			male := exact.Int(50 + (n*13+s)%40)
			female := exact.Int(50 + (n*17+s)%40)
			if err := ds.AddBand(band, male, female); err != nil {
				return err
			}
		}
	case series.KindBoxPlot:
		half := exact.MustFrac(1, 2)
		for i, label := range syntheticBoxes {
			lo := exact.Int(int64(i)*10 + s%5)
			st := series.BoxStats{
				Min:    lo,
				Q1:     lo.Add(exact.Int(2)),
				Median: lo.Add(exact.Int(3)).Add(half),
				Q3:     lo.Add(exact.Int(5)),
				Max:    lo.Add(exact.Int(8)),
			}
			if err := ds.AddBox(label, st); err != nil {
				return err
			}
		}
	default:
		for i := int64(0); i < syntheticPoints; i++ {
			x := exact.MustFrac(i, 2)
			y := exact.MustFrac((i*7+s*3)%13, 4).Sub(exact.Int(1))
			if err := ds.Add(fmt.Sprintf("p%d", i), exact.Pt(x, y)); err != nil {
				return err
			}
		}
	}
	return nil
}
