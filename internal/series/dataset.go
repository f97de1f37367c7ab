package series

import (
	"errors"
	"fmt"
	"strings"

	"chartjobs/internal/exact"
	logx "chartjobs/pkg/logx"
)

// Kind tags the Dataset payload.
type Kind int

const (
	KindScatter Kind = iota
	KindBar
	KindLine
	KindAgeGender
	KindBoxPlot
)

func (k Kind) String() string {
	switch k {
	case KindScatter:
		return "scatter"
	case KindBar:
		return "bar"
	case KindLine:
		return "line"
	case KindAgeGender:
		return "age_gender"
	case KindBoxPlot:
		return "box_plot"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a config name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "scatter":
		return KindScatter, nil
	case "bar":
		return KindBar, nil
	case "line":
		return KindLine, nil
	case "age_gender", "agegender", "pyramid":
		return KindAgeGender, nil
	case "box", "box_plot", "boxplot":
		return KindBoxPlot, nil
	default:
		return 0, fmt.Errorf("unknown dataset kind %q", s)
	}
}

var ErrKindMismatch = errors.New("series: operation does not match dataset kind")

// Payload is the per-kind part of a Dataset.
type Payload interface {
	Kind() Kind
}

// Scatter has no extra data: the points are the chart.
type Scatter struct{}

// Line draws the points joined in x order.
type Line struct{}

// Bar keeps category labels in presentation order; the bar at index i is the
// point stored under Categories[i], plotted at x = i.
type Bar struct {
	Categories []string
}

// AgeGender is a population pyramid. For each band at index i the male count
// is stored at (-male, i) and the female count at (female, i), so the shared
// bounds cover both halves.
type AgeGender struct {
	Bands []string
}

// BoxStats are the five summary values of one box, as supplied by the caller.
type BoxStats struct {
	Min, Q1, Median, Q3, Max exact.Number
}

// BoxPlot keeps the supplied stats per box; the bounded series stores the
// whisker ends (i, Min) and (i, Max) for each box.
type BoxPlot struct {
	Labels []string
	Stats  map[string]BoxStats
}

func (Scatter) Kind() Kind    { return KindScatter }
func (Line) Kind() Kind       { return KindLine }
func (*Bar) Kind() Kind       { return KindBar }
func (*AgeGender) Kind() Kind { return KindAgeGender }
func (*BoxPlot) Kind() Kind   { return KindBoxPlot }

// Dataset is one chartable series: a shared bounded point set plus a payload.
// The payload mutators (AddBar, AddBand, AddBox) are not synchronized; build a
// Dataset from one goroutine and share it read-only.
type Dataset struct {
	Name    string
	Series  *Bounded[string]
	Payload Payload
}

func newDataset(name string, p Payload, log logx.Logger) *Dataset {
	return &Dataset{
		Name:    name,
		Series:  NewBounded[string](name, log.With(logx.String("kind", p.Kind().String()))),
		Payload: p,
	}
}

func NewScatter(name string, log logx.Logger) *Dataset { return newDataset(name, Scatter{}, log) }
func NewLine(name string, log logx.Logger) *Dataset    { return newDataset(name, Line{}, log) }
func NewBar(name string, log logx.Logger) *Dataset     { return newDataset(name, &Bar{}, log) }
func NewAgeGender(name string, log logx.Logger) *Dataset {
	return newDataset(name, &AgeGender{}, log)
}
func NewBoxPlot(name string, log logx.Logger) *Dataset {
	return newDataset(name, &BoxPlot{Stats: map[string]BoxStats{}}, log)
}

// New returns an empty Dataset of the given kind.
func New(kind Kind, name string, log logx.Logger) (*Dataset, error) {
	switch kind {
	case KindScatter:
		return NewScatter(name, log), nil
	case KindLine:
		return NewLine(name, log), nil
	case KindBar:
		return NewBar(name, log), nil
	case KindAgeGender:
		return NewAgeGender(name, log), nil
	case KindBoxPlot:
		return NewBoxPlot(name, log), nil
	default:
		return nil, fmt.Errorf("unknown dataset kind %v", kind)
	}
}

func (d *Dataset) Kind() Kind { return d.Payload.Kind() }

// Add stores a raw point; valid for scatter and line datasets.
func (d *Dataset) Add(id string, p exact.Point) error {
	switch d.Payload.(type) {
	case Scatter, Line:
		d.Series.Add(id, p)
		return nil
	default:
		return fmt.Errorf("%w: Add on %s", ErrKindMismatch, d.Kind())
	}
}

// AddBar sets the value of category label. A new label is appended to the
// category order; an existing one keeps its slot and is overwritten.
func (d *Dataset) AddBar(label string, value exact.Number) error {
	bar, ok := d.Payload.(*Bar)
	if !ok {
		return fmt.Errorf("%w: AddBar on %s", ErrKindMismatch, d.Kind())
	}
	idx := indexOf(bar.Categories, label)
	if idx < 0 {
		idx = len(bar.Categories)
		bar.Categories = append(bar.Categories, label)
	}
	d.Series.Add(label, exact.Pt(exact.Int(int64(idx)), value))
	return nil
}

// AddBand records male and female counts for an age band.
func (d *Dataset) AddBand(band string, male, female exact.Number) error {
	ag, ok := d.Payload.(*AgeGender)
	if !ok {
		return fmt.Errorf("%w: AddBand on %s", ErrKindMismatch, d.Kind())
	}
	idx := indexOf(ag.Bands, band)
	if idx < 0 {
		idx = len(ag.Bands)
		ag.Bands = append(ag.Bands, band)
	}
	y := exact.Int(int64(idx))
	d.Series.Add(band+"/m", exact.Pt(male.Neg(), y))
	d.Series.Add(band+"/f", exact.Pt(female, y))
	return nil
}

// AddBox records the summary values for one box.
func (d *Dataset) AddBox(label string, st BoxStats) error {
	bp, ok := d.Payload.(*BoxPlot)
	if !ok {
		return fmt.Errorf("%w: AddBox on %s", ErrKindMismatch, d.Kind())
	}
	idx := indexOf(bp.Labels, label)
	if idx < 0 {
		idx = len(bp.Labels)
		bp.Labels = append(bp.Labels, label)
	}
	bp.Stats[label] = st
	x := exact.Int(int64(idx))
	d.Series.Add(label+"/min", exact.Pt(x, st.Min))
	d.Series.Add(label+"/max", exact.Pt(x, st.Max))
	return nil
}

func indexOf(xs []string, s string) int {
	for i, v := range xs {
		if v == s {
			return i
		}
	}
	return -1
}
