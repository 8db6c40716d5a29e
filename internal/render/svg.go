package render

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/mohammed-shakir/uk-towns-map/internal/geo/boundary"
)

// animationSteps is the number of segments used to approximate the easing
// curve with SMIL keyTimes.
const animationSteps = 16

// WriteSVG serializes the scene. Circles carry their final radius and
// opacity as attributes and an <animate> child that replays the
// transition, so renderers without SMIL support draw the end state.
func WriteSVG(w io.Writer, s *Scene) error {
	return writeSVG(w, s, true)
}

// writeSVG leaves out the <animate> children when animate is false; oksvg
// rejects their fill="freeze".
func writeSVG(w io.Writer, s *Scene, animate bool) error {
	bw := bufio.NewWriter(w)
	canvas := svg.New(bw)

	canvas.Start(s.Width, s.Height,
		fmt.Sprintf(`viewBox="0 0 %d %d"`, s.Width, s.Height),
		`style="display:block;margin:0 auto"`)

	if s.Legend != nil {
		canvas.Def()
		stops := make([]svg.Offcolor, 0, len(s.Legend.Stops))
		for _, st := range s.Legend.Stops {
			stops = append(stops, svg.Offcolor{Offset: st.Offset, Color: st.Color, Opacity: 1})
		}
		canvas.LinearGradient(LegendGradientID, 0, 0, 100, 0, stops)
		canvas.DefEnd()
	}

	if s.Base != nil {
		canvas.Gid("base-layer")
		for _, sh := range s.Base.Shapes {
			attrs := []string{
				`fill="` + boundary.Fill + `"`,
				`stroke="` + boundary.Stroke + `"`,
			}
			if sh.Name != "" {
				attrs = append(attrs, `data-name="`+html.EscapeString(sh.Name)+`"`)
			}
			canvas.Path(sh.D, attrs...)
		}
		canvas.Gend()
	}

	for _, m := range s.markers {
		writeMarker(canvas, m, animate)
	}

	if s.Legend != nil {
		writeLegend(canvas, s.Legend)
	}

	canvas.End()
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func writeMarker(canvas *svg.SVG, m *Marker, animate bool) {
	canvas.Group(
		`class="town-group"`,
		`data-town="`+html.EscapeString(m.Key)+`"`,
		`transform="translate(`+num(m.X)+`,`+num(m.Y)+`)"`,
	)

	var open strings.Builder
	open.WriteString(`<circle r="` + num(m.Radius.To) + `" fill="` + html.EscapeString(m.Fill) + `"`)
	if m.OpacityAnimated || m.Opacity.To != 1 {
		open.WriteString(` opacity="` + num(m.Opacity.To) + `"`)
	}
	open.WriteString(">\n")
	_, _ = io.WriteString(canvas.Writer, open.String())

	if animate {
		ease := m.Ease
		if ease == nil {
			ease = BounceOut
		}
		times, progress := Sample(ease, animationSteps)
		writeAnimate(canvas.Writer, "r", m.Radius, m.Duration.Seconds(), times, progress)
		if m.OpacityAnimated {
			writeAnimate(canvas.Writer, "opacity", m.Opacity, m.Duration.Seconds(), times, progress)
		}
	}
	canvas.Title(strings.Join(TooltipLines(m.Record.County, m.Record.Population), "\n"))
	_, _ = io.WriteString(canvas.Writer, "</circle>\n")

	canvas.Text(0, 0, m.Label,
		`dy="`+strconv.Itoa(LabelDY)+`"`,
		`text-anchor="middle"`,
		fmt.Sprintf("font-size:%dpx;fill:%s", LabelFontSize, LabelFill))
	canvas.Gend()
}

func writeAnimate(w io.Writer, attr string, tr Transition, dur float64, times, progress []float64) {
	vals := make([]string, len(progress))
	keys := make([]string, len(times))
	for i := range progress {
		vals[i] = num(tr.From + (tr.To-tr.From)*progress[i])
		keys[i] = num(times[i])
	}
	_, _ = fmt.Fprintf(w,
		`<animate attributeName="%s" dur="%ss" values="%s" keyTimes="%s" calcMode="linear" fill="freeze"/>`+"\n",
		attr, num(dur), strings.Join(vals, ";"), strings.Join(keys, ";"))
}

func writeLegend(canvas *svg.SVG, l *Legend) {
	canvas.Group(`id="legend"`, fmt.Sprintf(`transform="translate(%d,%d)"`, l.X, l.Y))
	canvas.Rect(0, 0, l.Width, l.Height, "fill:url(#"+LegendGradientID+")")
	font := fmt.Sprintf("font-size:%dpx", l.FontSize)
	for _, t := range l.Labels {
		if t.Anchor != "" {
			canvas.Text(t.X, t.Y, t.Text, `text-anchor="`+t.Anchor+`"`, font)
			continue
		}
		canvas.Text(t.X, t.Y, t.Text, font)
	}
	canvas.Gend()
}

// num formats with at most three decimals and no trailing zeros.
func num(v float64) string {
	s := strconv.FormatFloat(v, 'f', 3, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}
