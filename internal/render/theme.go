package render

import (
	"fmt"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Theme holds the widget palette.
type Theme struct {
	Name             string
	Accent           drawing.Color
	Fill             drawing.Color
	BackgroundTop    drawing.Color
	BackgroundBottom drawing.Color
	TickLine         drawing.Color
	Label            drawing.Color
	Header           drawing.Color
}

// alpha converts an opacity in [0, 1] to a color channel value.
func alpha(opacity float64) uint8 {
	return uint8(opacity*255 + 0.5)
}

// DarkTheme returns the default palette.
func DarkTheme() Theme {
	return Theme{
		Name:             "dark",
		Accent:           drawing.ColorFromHex("F8461C"),
		Fill:             drawing.ColorFromHex("A8482F").WithAlpha(alpha(0.6)),
		BackgroundTop:    drawing.ColorFromHex("202020"),
		BackgroundBottom: drawing.ColorFromHex("353535"),
		TickLine:         drawing.ColorFromHex("635353").WithAlpha(alpha(0.3)),
		Label:            drawing.ColorFromHex("FFFFFF").WithAlpha(alpha(0.5)),
		Header:           drawing.ColorFromHex("FFFFFF"),
	}
}

// LightTheme returns the palette for light backgrounds.
func LightTheme() Theme {
	return Theme{
		Name:             "light",
		Accent:           drawing.ColorFromHex("F8461C"),
		Fill:             drawing.ColorFromHex("FB8C82").WithAlpha(alpha(0.6)),
		BackgroundTop:    drawing.ColorFromHex("FFFFFF"),
		BackgroundBottom: drawing.ColorFromHex("FFFFFF"),
		TickLine:         drawing.ColorFromHex("635353").WithAlpha(alpha(0.2)),
		Label:            drawing.ColorFromHex("635353").WithAlpha(alpha(0.5)),
		Header:           drawing.ColorFromHex("101010"),
	}
}

// ThemeByName returns the palette called name ("dark" or "light").
func ThemeByName(name string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "dark":
		return DarkTheme(), nil
	case "light":
		return LightTheme(), nil
	default:
		return Theme{}, fmt.Errorf("unknown theme %q", name)
	}
}

// background returns the gradient color at fraction t of the height. The
// gradient runs over the top 80% and holds the bottom color below that.
func (t Theme) background(frac float64) drawing.Color {
	const stop = 0.8
	p := frac / stop
	if p > 1 {
		p = 1
	}
	if p < 0 {
		p = 0
	}
	lerp := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*p + 0.5)
	}
	a, b := t.BackgroundTop, t.BackgroundBottom
	return drawing.Color{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: 255}
}
