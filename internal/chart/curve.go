// Package chart builds smoothed usage curves as drawing-surface geometry.
//
// Coordinates follow the drawing surface convention: the origin is the top
// left corner and y grows downward, so larger values map to smaller y.
package chart

import (
	"errors"
	"fmt"
	"math"

	"github.com/samber/lo"
)

var (
	// ErrDegenerateSeries is matched by every DegenerateSeriesError.
	ErrDegenerateSeries = errors.New("at least two samples are required")
	// ErrInvalidDimensions is returned for unusable canvas sizes, insets or bands.
	ErrInvalidDimensions = errors.New("invalid drawing dimensions")
	// ErrInvalidSample is returned when a sample or scale bound is NaN or infinite.
	ErrInvalidSample = errors.New("invalid sample value")
)

// DegenerateSeriesError reports a series too short to define a curve segment.
type DegenerateSeriesError struct {
	Count int
}

func (e *DegenerateSeriesError) Error() string {
	return fmt.Sprintf("cannot build curve from %d sample(s): %v", e.Count, ErrDegenerateSeries)
}

// Is reports whether target is ErrDegenerateSeries.
func (e *DegenerateSeriesError) Is(target error) bool {
	return target == ErrDegenerateSeries
}

// Scale selects the value range mapped onto the canvas height.
type Scale struct {
	Min   float64
	Max   float64
	Fixed bool
}

// AutoScale derives the value range from the samples of each build.
func AutoScale() Scale {
	return Scale{}
}

// FixedScale pins the value range so repeated renders share a y axis.
// Build rejects a range with minValue above maxValue.
func FixedScale(minValue, maxValue float64) Scale {
	return Scale{Min: minValue, Max: maxValue, Fixed: true}
}

type options struct {
	minFrac float64
	maxFrac float64
}

// Option customizes a Build call.
type Option func(*options)

// WithBand restricts plotting to a vertical band of the canvas. minFrac is
// the share of the height kept free below the band, maxFrac the share the
// band spans. The defaults (0, 1) use the full height.
func WithBand(minFrac, maxFrac float64) Option {
	return func(o *options) {
		o.minFrac = minFrac
		o.maxFrac = maxFrac
	}
}

// Geometry is the renderable result of Build.
type Geometry struct {
	// Fill starts and ends on the baseline and is closed.
	Fill Path
	// Stroke starts on the baseline and stops at the last anchor.
	Stroke Path
	// Anchors holds one mapped point per sample.
	Anchors []Point
	YMin    float64
	YMax    float64
	// Flat is set when the value range was zero and the curve was drawn
	// through the middle of the band.
	Flat bool
}

// Build maps samples onto a width x height canvas and returns the smoothed
// fill and stroke paths. The last anchor lands at width-xInset.
//
// When the scale range is zero every anchor is placed at the vertical middle
// of the plotting band and Geometry.Flat is set.
func Build(width, height float64, samples []float64, scale Scale, xInset float64, opts ...Option) (*Geometry, error) {
	o := options{minFrac: 0, maxFrac: 1}
	for _, opt := range opts {
		opt(&o)
	}

	if err := validate(width, height, xInset, o); err != nil {
		return nil, err
	}
	if len(samples) < 2 {
		return nil, &DegenerateSeriesError{Count: len(samples)}
	}
	for i, v := range samples {
		if !finite(v) {
			return nil, fmt.Errorf("%w: sample %d is %v", ErrInvalidSample, i, v)
		}
	}

	yMin, yMax := scale.Min, scale.Max
	if !scale.Fixed {
		yMin, yMax = lo.Min(samples), lo.Max(samples)
	} else if !finite(yMin) || !finite(yMax) {
		return nil, fmt.Errorf("%w: scale [%v, %v]", ErrInvalidSample, yMin, yMax)
	} else if yMin > yMax {
		return nil, fmt.Errorf("%w: inverted scale [%v, %v]", ErrInvalidDimensions, yMin, yMax)
	}

	difference := yMax - yMin
	flat := difference == 0
	baseline := height * (1 - o.minFrac)
	span := height * o.maxFrac
	step := (width - xInset) / float64(len(samples)-1)

	anchors := make([]Point, len(samples))
	for i, v := range samples {
		frac := 0.5
		if !flat {
			frac = (v - yMin) / difference
		}
		anchors[i] = Point{X: step * float64(i), Y: baseline - frac*span}
	}

	fill, stroke := smoothPaths(anchors, width-xInset, height)
	return &Geometry{
		Fill:    fill,
		Stroke:  stroke,
		Anchors: anchors,
		YMin:    yMin,
		YMax:    yMax,
		Flat:    flat,
	}, nil
}

// smoothPaths joins consecutive anchors with a pair of quadratic curves that
// meet at the pair's midpoint. Each control point shares its anchor's y, so
// the curve is flat at every anchor.
func smoothPaths(points []Point, right, height float64) (Path, Path) {
	curves := make(Path, 0, 2*(len(points)-1))
	for i := 0; i < len(points)-1; i++ {
		cur, next := points[i], points[i+1]
		mid := Point{X: (cur.X + next.X) / 2, Y: (cur.Y + next.Y) / 2}
		curves = append(curves,
			QuadTo(Point{X: (mid.X + cur.X) / 2, Y: cur.Y}, mid),
			QuadTo(Point{X: (mid.X + next.X) / 2, Y: next.Y}, next),
		)
	}

	head := Path{MoveTo(Point{X: 0, Y: height}), LineTo(points[0])}

	fill := make(Path, 0, len(curves)+4)
	fill = append(fill, head...)
	fill = append(fill, curves...)
	fill = append(fill, LineTo(Point{X: right, Y: height}), Close())

	stroke := make(Path, 0, len(curves)+2)
	stroke = append(stroke, head...)
	stroke = append(stroke, curves...)

	return fill, stroke
}

func validate(width, height, xInset float64, o options) error {
	switch {
	case !finite(width) || !finite(height) || width <= 0 || height <= 0:
		return fmt.Errorf("%w: size %vx%v", ErrInvalidDimensions, width, height)
	case !finite(xInset) || xInset < 0 || xInset >= width:
		return fmt.Errorf("%w: x inset %v for width %v", ErrInvalidDimensions, xInset, width)
	case o.minFrac < 0 || o.maxFrac <= 0 || o.minFrac+o.maxFrac > 1:
		return fmt.Errorf("%w: band (%v, %v)", ErrInvalidDimensions, o.minFrac, o.maxFrac)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
