package render

import (
	"context"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"chartjobs/internal/exact"
	"chartjobs/internal/series"
)

var (
	borderCol  = lipgloss.Color("#243141")
	accentFg   = lipgloss.Color("#7C3AED")
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderCol).Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
)

// BrailleRenderer draws a dataset as unicode braille text (2x4 dots per cell).
type BrailleRenderer struct {
	Cols, Rows int
	// Frame wraps the plot in a titled border.
	Frame bool
}

func NewBraille(cols, rows int, frame bool) *BrailleRenderer {
	if cols <= 0 {
		cols = 60
	}
	if rows <= 0 {
		rows = 15
	}
	return &BrailleRenderer{Cols: cols, Rows: rows, Frame: frame}
}

func (r *BrailleRenderer) Render(ctx context.Context, ds *series.Dataset) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}
	vp, err := viewport(ds)
	if err != nil {
		return Artifact{}, err
	}
	buf := newBrailleBuf(r.Cols, r.Rows)
	pr := projector{vp: vp, w: r.Cols*2 - 1, h: r.Rows*4 - 1}
	zero := exact.Int(0)

	switch p := ds.Payload.(type) {
	case series.Scatter:
		for _, e := range ds.Series.Points() {
			buf.setPixel(pr.xy(e.Point))
		}
	case series.Line:
		entries := ds.Series.Sorted(series.ByX[string])
		for i, e := range entries {
			x1, y1 := pr.xy(e.Point)
			if i == 0 {
				buf.setPixel(x1, y1)
				continue
			}
			x0, y0 := pr.xy(entries[i-1].Point)
			buf.drawLineMicro(x0, y0, x1, y1)
		}
	case *series.Bar:
		base := clamp(zero, vp.MinY, vp.MaxY)
		for _, label := range p.Categories {
			if pt, ok := ds.Series.Get(label); ok {
				pr.line(buf, exact.Pt(pt.X, base), pt)
			}
		}
	case *series.AgeGender:
		base := clamp(zero, vp.MinX, vp.MaxX)
		for _, e := range ds.Series.Points() {
			pr.line(buf, exact.Pt(base, e.Point.Y), e.Point)
		}
	case *series.BoxPlot:
		for i, label := range p.Labels {
			st := p.Stats[label]
			x := exact.Int(int64(i))
			pr.line(buf, exact.Pt(x, st.Min), exact.Pt(x, st.Max))
		}
	}

	out := strings.Join(buf.toLines(), "\n")
	if r.Frame {
		out = boxStyle.Render(titleStyle.Render(ds.Name) + "\n" + out)
	}
	return Artifact{Format: "text", Data: []byte(out), Points: ds.Series.Len()}, nil
}

// projector maps exact coordinates onto the braille microgrid, y pointing down.
type projector struct {
	vp   series.Bounds
	w, h int
}

func (p projector) xy(pt exact.Point) (int, int) {
	mx := scale(pt.X, p.vp.MinX, p.vp.Width(), p.w)
	my := p.h - scale(pt.Y, p.vp.MinY, p.vp.Height(), p.h)
	return mx, my
}

func (p projector) line(b *brailleBuf, a, c exact.Point) {
	x0, y0 := p.xy(a)
	x1, y1 := p.xy(c)
	b.drawLineMicro(x0, y0, x1, y1)
}

type brailleBuf struct {
	w, h int       // in cells
	m    [][]uint8 // per-cell 8-bit mask
}

func newBrailleBuf(w, h int) *brailleBuf {
	m := make([][]uint8, h)
	for i := range m {
		m[i] = make([]uint8, w)
	}
	return &brailleBuf{w: w, h: h, m: m}
}

// dot bits indexed by [column][row] within a cell.
var brailleBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// setPixel sets a micro-pixel at micro coords (2x4 per cell)
func (b *brailleBuf) setPixel(mx, my int) {
	if mx < 0 || my < 0 {
		return
	}
	cx, cy := mx/2, my/4
	if cy >= b.h || cx >= b.w {
		return
	}
	b.m[cy][cx] |= brailleBits[mx%2][my%4]
}

// drawLineMicro draws a line on the microgrid using Bresenham
func (b *brailleBuf) drawLineMicro(x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		b.setPixel(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (b *brailleBuf) toLines() []string {
	out := make([]string, b.h)
	for y := 0; y < b.h; y++ {
		row := make([]rune, b.w)
		for x := 0; x < b.w; x++ {
			if mask := b.m[y][x]; mask == 0 {
				row[x] = ' '
			} else {
				row[x] = rune(0x2800 + int(mask))
			}
		}
		out[y] = string(row)
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
