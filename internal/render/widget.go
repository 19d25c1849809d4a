// Package render draws the usage widget and the error widget as PNG or SVG
// images.
package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/j-veylop/sense-dashboard-tui/internal/chart"
	"github.com/j-veylop/sense-dashboard-tui/internal/models"
)

// Format is an output image format.
type Format string

// Supported formats.
const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat validates an image format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPNG, FormatSVG:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported image format %q (want png or svg)", s)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

func (f Format) provider() gochart.RendererProvider {
	if f == FormatSVG {
		return gochart.SVG
	}
	return gochart.PNG
}

// Layout sizes the widget. Units are pixels.
type Layout struct {
	// PlotWidth excludes LeftInset; the plot canvas is PlotWidth+LeftInset
	// wide and starts LeftInset pixels left of the visible edge.
	PlotWidth    float64
	PlotHeight   float64
	LeftInset    float64
	XInset       float64
	HeaderHeight float64
	MinFrac      float64
	MaxFrac      float64
}

// DefaultLayout returns the medium widget layout.
func DefaultLayout() Layout {
	return Layout{
		PlotWidth:    620,
		PlotHeight:   240,
		LeftInset:    10,
		XInset:       25,
		HeaderHeight: 44,
		MinFrac:      0,
		MaxFrac:      1,
	}
}

// CanvasWidth is the width of the plot canvas including the left inset.
func (l Layout) CanvasWidth() float64 {
	return l.PlotWidth + l.LeftInset
}

const (
	labelFontSize  = 16
	titleFontSize  = 20
	iconSize       = 24
	strokeWidth    = 2
	gradientBands  = 32
	labelPadding   = 4
	labelScale     = 2
	titleOpacity   = 0.7
	tickerOpacity  = 0.1
	errorTitleSize = 40
	errorTextSize  = 24
	errorPadding   = 24
	errorSpacer    = 40
)

// ScaleMax rounds peak up to the next multiple of 100, the top of the
// widget's y axis.
func ScaleMax(peak float64) float64 {
	return math.Ceil(peak/100) * 100
}

// Geometry builds the curve for plot on the layout's canvas with a y axis
// from 0 to ScaleMax of the peak.
func Geometry(plot *models.PlotData, l Layout) (*chart.Geometry, error) {
	return chart.Build(
		l.CanvasWidth(),
		l.PlotHeight,
		plot.Usage,
		chart.FixedScale(0, ScaleMax(plot.Usage.Peak())),
		l.XInset,
		chart.WithBand(l.MinFrac, l.MaxFrac),
	)
}

// RenderWidget draws the usage widget for plot.
func RenderWidget(w io.Writer, format Format, plot *models.PlotData, theme Theme) error {
	return RenderWidgetLayout(w, format, plot, theme, DefaultLayout())
}

// RenderWidgetLayout is RenderWidget with a custom layout.
func RenderWidgetLayout(w io.Writer, format Format, plot *models.PlotData, theme Theme, l Layout) error {
	geom, err := Geometry(plot, l)
	if err != nil {
		return err
	}

	width := int(l.PlotWidth)
	height := int(l.HeaderHeight + l.PlotHeight)
	r, err := format.provider()(width, height)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	font, err := gochart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("failed to load font: %w", err)
	}
	r.SetFont(font)

	drawBackground(r, theme, width, height)
	drawHeader(r, theme, plot.Title(), l)

	// Plot canvas origin on the image.
	p := plotter{r: r, dx: -l.LeftInset, dy: l.HeaderHeight}
	canvasWidth := l.CanvasWidth()

	// Y axis markers
	mid := l.PlotHeight * ((l.MaxFrac-l.MinFrac)/2 + l.MinFrac)
	top := l.PlotHeight * (1 - l.MaxFrac)
	r.SetStrokeWidth(1)
	r.SetStrokeColor(theme.TickLine)
	p.line(chart.Point{X: 0, Y: mid}, chart.Point{X: canvasWidth, Y: mid})
	p.line(chart.Point{X: 0, Y: top}, chart.Point{X: canvasWidth, Y: top})

	r.SetFillColor(theme.Fill)
	p.path(geom.Fill)
	r.Fill()

	r.SetStrokeColor(theme.Accent)
	r.SetStrokeWidth(strokeWidth)
	p.path(geom.Stroke)
	r.Stroke()

	r.SetFontSize(labelFontSize)
	r.SetFontColor(theme.Label)
	label := fmt.Sprintf("%.0fw", geom.YMax)
	p.text(label, (l.LeftInset+labelPadding)*labelScale, 3+labelFontSize)

	ticker := canvasWidth - l.XInset
	r.SetStrokeWidth(1)
	r.SetStrokeColor(theme.Accent.WithAlpha(alpha(tickerOpacity)))
	p.line(chart.Point{X: ticker, Y: l.PlotHeight}, chart.Point{X: ticker, Y: 0})

	return r.Save(w)
}

func drawBackground(r gochart.Renderer, theme Theme, width, height int) {
	band := float64(height) / gradientBands
	for i := 0; i < gradientBands; i++ {
		y0 := int(math.Floor(float64(i) * band))
		y1 := int(math.Ceil(float64(i+1) * band))
		r.SetFillColor(theme.background((float64(i) + 0.5) / gradientBands))
		fillRect(r, 0, y0, width, y1)
	}
}

func drawHeader(r gochart.Renderer, theme Theme, title string, l Layout) {
	x := int(labelPadding * labelScale)
	iconTop := int(l.HeaderHeight-iconSize) / 2

	r.SetFillColor(theme.Accent)
	fillRect(r, x, iconTop, x+iconSize, iconTop+iconSize)

	r.SetFontSize(titleFontSize)
	r.SetFontColor(theme.Header.WithAlpha(alpha(titleOpacity)))
	r.Text(title, x+iconSize+labelPadding*labelScale, iconTop+iconSize-4)
}

func fillRect(r gochart.Renderer, x0, y0, x1, y1 int) {
	r.MoveTo(x0, y0)
	r.LineTo(x1, y0)
	r.LineTo(x1, y1)
	r.LineTo(x0, y1)
	r.Close()
	r.Fill()
}

// plotter replays curve paths on a renderer, shifting them to the plot
// canvas origin.
type plotter struct {
	r      gochart.Renderer
	dx, dy float64
}

func (p plotter) pt(pt chart.Point) (int, int) {
	return int(math.Round(pt.X + p.dx)), int(math.Round(pt.Y + p.dy))
}

func (p plotter) path(path chart.Path) {
	for _, s := range path {
		switch s.Op {
		case chart.OpMoveTo:
			p.r.MoveTo(p.pt(s.To))
		case chart.OpLineTo:
			p.r.LineTo(p.pt(s.To))
		case chart.OpQuadTo:
			cx, cy := p.pt(s.Control)
			x, y := p.pt(s.To)
			p.r.QuadCurveTo(cx, cy, x, y)
		case chart.OpClose:
			p.r.Close()
		}
	}
}

func (p plotter) line(from, to chart.Point) {
	p.path(chart.Path{chart.MoveTo(from), chart.LineTo(to)})
	p.r.Stroke()
}

func (p plotter) text(body string, x, y float64) {
	p.r.Text(body, int(math.Round(x+p.dx)), int(math.Round(y+p.dy)))
}

// RenderError draws the error widget: a red heading over the message on a
// black background.
func RenderError(w io.Writer, format Format, message string) error {
	l := DefaultLayout()
	width := int(l.PlotWidth)
	height := int(l.HeaderHeight + l.PlotHeight)

	r, err := format.provider()(width, height)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	font, err := gochart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("failed to load font: %w", err)
	}
	r.SetFont(font)

	r.SetFillColor(drawing.ColorFromHex("000000"))
	fillRect(r, 0, 0, width, height)

	y := errorPadding + errorTitleSize
	r.SetFontSize(errorTitleSize)
	r.SetFontColor(drawing.ColorFromHex("FF0000"))
	r.Text("Error!", errorPadding, y)
	y += errorSpacer

	if message == "" {
		message = "None"
	}
	r.SetFontSize(errorTextSize)
	r.SetFontColor(drawing.ColorFromHex("FFFFFF"))
	for _, line := range wrap(r, message, width-2*errorPadding) {
		if y > height {
			break
		}
		y += errorTextSize + errorTextSize/3
		r.Text(line, errorPadding, y)
	}

	return r.Save(w)
}

// wrap breaks text into lines no wider than maxWidth as measured by r.
// Explicit newlines are kept.
func wrap(r gochart.Renderer, text string, maxWidth int) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, word := range words[1:] {
			candidate := line + " " + word
			if r.MeasureText(candidate).Width() > maxWidth {
				lines = append(lines, line)
				line = word
				continue
			}
			line = candidate
		}
		lines = append(lines, line)
	}
	return lines
}
