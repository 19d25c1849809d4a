package chart

import (
	"strconv"
	"strings"
)

// Point is a position on the drawing surface.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Op is a drawing primitive.
type Op int

// Drawing primitives.
const (
	OpMoveTo Op = iota
	OpLineTo
	OpQuadTo
	OpClose
)

// String returns the SVG command letter for the primitive.
func (o Op) String() string {
	switch o {
	case OpMoveTo:
		return "M"
	case OpLineTo:
		return "L"
	case OpQuadTo:
		return "Q"
	case OpClose:
		return "Z"
	default:
		return "?"
	}
}

// Segment is one primitive of a path. Control is only meaningful for OpQuadTo.
type Segment struct {
	To      Point
	Control Point
	Op      Op
}

// MoveTo starts a new subpath at p.
func MoveTo(p Point) Segment { return Segment{Op: OpMoveTo, To: p} }

// LineTo draws a straight line to p.
func LineTo(p Point) Segment { return Segment{Op: OpLineTo, To: p} }

// QuadTo draws a quadratic curve to p using control point c.
func QuadTo(c, p Point) Segment { return Segment{Op: OpQuadTo, Control: c, To: p} }

// Close closes the current subpath.
func Close() Segment { return Segment{Op: OpClose} }

// Path is an ordered list of drawing primitives.
type Path []Segment

// Closed reports whether the path ends with a close primitive.
func (p Path) Closed() bool {
	return len(p) > 0 && p[len(p)-1].Op == OpClose
}

// Count returns how many segments use op.
func (p Path) Count(op Op) int {
	n := 0
	for _, s := range p {
		if s.Op == op {
			n++
		}
	}
	return n
}

// End returns the last point the path reaches.
func (p Path) End() Point {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].Op != OpClose {
			return p[i].To
		}
	}
	return Point{}
}

// SVG returns the path as SVG path data.
func (p Path) SVG() string {
	var b strings.Builder
	for i, s := range p {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s.Op.String())
		switch s.Op {
		case OpQuadTo:
			writePoint(&b, s.Control)
			b.WriteByte(' ')
			writePoint(&b, s.To)
		case OpMoveTo, OpLineTo:
			writePoint(&b, s.To)
		}
	}
	return b.String()
}

func writePoint(b *strings.Builder, p Point) {
	b.WriteString(strconv.FormatFloat(p.X, 'f', -1, 64))
	b.WriteByte(',')
	b.WriteString(strconv.FormatFloat(p.Y, 'f', -1, 64))
}
