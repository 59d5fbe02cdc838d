package gantt

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/stackplan/pkg/timeline"
)

const interactionCSS = `
    .bar { transition: opacity 0.2s ease; }
    svg.focus .bar:not(.highlight), svg.focus .connector:not(.highlight) { opacity: 0.25; }`

const interactionJS = `
    const root = document.currentScript.closest('svg');
    function focusTask(id) {
      root.classList.add('focus');
      root.querySelectorAll('.connector').forEach(c => {
        const on = c.dataset.from === id || c.dataset.to === id;
        c.classList.toggle('highlight', on);
        if (on) {
          root.getElementById('bar-' + c.dataset.from)?.classList.add('highlight');
          root.getElementById('bar-' + c.dataset.to)?.classList.add('highlight');
        }
      });
      root.getElementById('bar-' + id)?.classList.add('highlight');
    }
    function clearFocus() {
      root.classList.remove('focus');
      root.querySelectorAll('.highlight').forEach(el => el.classList.remove('highlight'));
    }
    root.querySelectorAll('.bar').forEach(el => {
      el.addEventListener('mouseenter', () => focusTask(el.id.replace('bar-', '')));
      el.addEventListener('mouseleave', clearFocus);
    });`

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	style       Style
	connectors  bool
	interactive bool
}

// WithStyle sets the drawing style.
func WithStyle(s Style) SVGOption { return func(r *svgRenderer) { r.style = s } }

// WithoutConnectors hides dependency connectors.
func WithoutConnectors() SVGOption { return func(r *svgRenderer) { r.connectors = false } }

// WithInteraction embeds CSS and a script that highlight a task's
// connectors on hover. Leave it off for PNG and PDF conversion.
func WithInteraction() SVGOption { return func(r *svgRenderer) { r.interactive = true } }

// RenderSVG draws l as a standalone SVG document.
func RenderSVG(l *timeline.Layout, opts ...SVGOption) []byte {
	r := svgRenderer{style: Status{}, connectors: true}
	for _, opt := range opts {
		opt(&r)
	}

	header := l.Options.HeaderHeight
	width := max(l.Width, 1)
	height := max(l.Height, header)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	r.style.RenderDefs(&buf)

	for _, c := range l.Columns {
		r.style.RenderColumn(&buf, toColumn(c, header, height))
	}

	bars := make([]Bar, len(l.Rows))
	for i, row := range l.Rows {
		bars[i] = toBar(row, header)
		r.style.RenderBar(&buf, bars[i])
	}

	if r.connectors {
		fmt.Fprintf(&buf, `  <g class="connectors" transform="translate(0 %.2f)">`+"\n", header)
		for _, c := range l.Connectors {
			r.style.RenderConnector(&buf, Connector{
				FromID:   c.FromTaskID,
				ToID:     c.ToTaskID,
				Path:     c.Route.Path,
				Complete: c.IsComplete,
			})
		}
		buf.WriteString("  </g>\n")
	}

	for _, b := range bars {
		r.style.RenderLabel(&buf, b)
	}

	if l.Today != nil {
		r.style.RenderToday(&buf, *l.Today, 0, height)
	}

	if r.interactive {
		fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", interactionCSS)
		fmt.Fprintf(&buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", interactionJS)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func toColumn(c timeline.DateColumn, header, bottom float64) Column {
	return Column{
		Label:    c.Label,
		X:        c.Left,
		W:        c.Width,
		HeaderH:  header,
		Bottom:   bottom,
		Today:    c.IsToday,
		Weekend:  c.IsWeekend,
		WeekendX: c.WeekendLeft,
		WeekendW: c.WeekendWidth,
	}
}

func toBar(row timeline.RowEntry, header float64) Bar {
	label := row.Task.Title
	if label == "" {
		label = row.Task.ID
	}
	return Bar{
		ID:       row.Task.ID,
		Label:    label,
		Status:   string(row.Task.Status),
		Priority: string(row.Task.Priority),
		X:        row.Bar.Left,
		Y:        header + row.Bar.Top,
		W:        row.Bar.Width,
		H:        row.Bar.Height,
		Done:     row.Task.IsDone(),
	}
}
