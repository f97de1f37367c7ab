package exact

// Point is an immutable (x, y) pair. It is a plain value: copy it freely.
type Point struct {
	X Number `json:"x"`
	Y Number `json:"y"`
}

func Pt(x, y Number) Point { return Point{X: x, Y: y} }

// IntPt is shorthand for integer coordinates.
func IntPt(x, y int64) Point { return Point{X: Int(x), Y: Int(y)} }

func (p Point) Equal(o Point) bool { return p.X.Equal(o.X) && p.Y.Equal(o.Y) }

// Key is a canonical string for p; value-equal points share a key, so it can
// stand in for a hash.
func (p Point) Key() string { return p.X.String() + "," + p.Y.String() }

func (p Point) String() string { return "(" + p.X.String() + ", " + p.Y.String() + ")" }
