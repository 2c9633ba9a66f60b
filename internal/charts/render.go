package charts

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"gnlreports/pkg/contracts/domain"
)

// Format is an image encoding supported by Render.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// ParseFormat validates an image format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatPNG:
		return FormatPNG, nil
	case FormatSVG:
		return FormatSVG, nil
	}
	return "", fmt.Errorf("unsupported chart format %q", s)
}

// maxDateLabels bounds the number of date labels on a bar chart's x axis.
const maxDateLabels = 12

// Renderer draws charts into images.
type Renderer struct {
	Width  vg.Length
	Height vg.Length
	label  Labeler
}

// NewRenderer creates a renderer producing 8x4 inch images.
func NewRenderer(label Labeler) *Renderer {
	return &Renderer{Width: 8 * vg.Inch, Height: 4 * vg.Inch, label: label}
}

// Render draws spec over records. Fields missing from available fail with
// ErrFieldUnavailable. An empty record set renders an empty chart.
func (r *Renderer) Render(spec Spec, available []string, records []domain.Record, format Format) ([]byte, error) {
	series, err := Extract(spec, available, records, r.label)
	if err != nil {
		return nil, err
	}

	p, err := r.plot(spec, series)
	if err != nil {
		return nil, fmt.Errorf("chart %s: %w", spec.ID, err)
	}

	wt, err := p.WriterTo(r.Width, r.Height, string(format))
	if err != nil {
		return nil, fmt.Errorf("chart %s: %w", spec.ID, err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("chart %s: encode %s: %w", spec.ID, format, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) plot(spec Spec, series []Series) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = spec.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Y.Label.Text = spec.YLabel
	p.Add(plotter.NewGrid())

	if len(series) == 0 || len(series[0].Points) == 0 {
		p.Title.Text += " (sin datos)"
		p.X.Min, p.X.Max = 0, 1
		p.Y.Min, p.Y.Max = 0, 1
		return p, nil
	}

	if len(series) > 1 {
		p.Legend.Top = true
	}

	var err error
	switch spec.Kind {
	case KindBar:
		err = addBars(p, series)
	case KindLine, KindArea:
		err = addLines(p, series, spec.Kind == KindArea, spec.Markers)
	default:
		err = fmt.Errorf("unsupported chart kind %q", spec.Kind)
	}
	return p, err
}

func addBars(p *plot.Plot, series []Series) error {
	n := len(series[0].Points)
	width := vg.Points(math.Max(1, math.Min(20, 480/float64(n*len(series)))))

	for i, s := range series {
		values := make(plotter.Values, len(s.Points))
		for j, pt := range s.Points {
			values[j] = pt.Value
		}
		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return err
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = parseHex(s.Color)
		bars.Offset = vg.Length(float64(i)-float64(len(series)-1)/2) * width
		p.Add(bars)
		if len(series) > 1 {
			p.Legend.Add(s.Label, bars)
		}
	}

	step := int(math.Ceil(float64(n) / maxDateLabels))
	names := make([]string, n)
	for j, pt := range series[0].Points {
		if j%step == 0 {
			names[j] = pt.Date.Format("02/01/06")
		}
	}
	p.NominalX(names...)
	return nil
}

func addLines(p *plot.Plot, series []Series, fill, markers bool) error {
	p.X.Tick.Marker = plot.TimeTicks{Format: "02/01/06"}

	for _, s := range series {
		xys := make(plotter.XYs, len(s.Points))
		for j, pt := range s.Points {
			xys[j].X = float64(pt.Date.Unix())
			xys[j].Y = pt.Value
		}
		c := parseHex(s.Color)

		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return err
		}
		line.LineStyle.Color = c
		line.LineStyle.Width = vg.Points(1.5)
		if fill {
			line.FillColor = withAlpha(c, 0x80)
		}
		p.Add(line)

		if markers {
			points.GlyphStyle.Color = c
			points.GlyphStyle.Shape = draw.CircleGlyph{}
			points.GlyphStyle.Radius = vg.Points(2)
			p.Add(points)
			p.Legend.Add(s.Label, line, points)
		} else {
			p.Legend.Add(s.Label, line)
		}
	}
	return nil
}

// parseHex reads "#rrggbb"; anything else is black.
func parseHex(s string) color.RGBA {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{A: 0xff}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{A: 0xff}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

func withAlpha(c color.RGBA, a uint8) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: a}
}
