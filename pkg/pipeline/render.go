package pipeline

import (
	"fmt"

	"github.com/matzehuels/stackplan/pkg/render/gantt"
	"github.com/matzehuels/stackplan/pkg/render/nodelink"
	"github.com/matzehuels/stackplan/pkg/task"
	"github.com/matzehuels/stackplan/pkg/timeline"
)

// Render produces every requested format. The snapshot is only needed for
// the dot format, which draws the graph rather than the timeline.
// Options must have been validated.
func Render(l *timeline.Layout, s task.Snapshot, opts Options) (map[string][]byte, error) {
	style, err := gantt.StyleByName(opts.Style)
	if err != nil {
		return nil, err
	}
	svgOpts := []gantt.SVGOption{gantt.WithStyle(style)}
	if opts.HideConnectors {
		svgOpts = append(svgOpts, gantt.WithoutConnectors())
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			o := svgOpts
			if opts.Interactive {
				o = append(o[:len(o):len(o)], gantt.WithInteraction())
			}
			data = gantt.RenderSVG(l, o...)
		case FormatJSON:
			data, err = gantt.RenderJSON(l)
		case FormatDOT:
			data = []byte(nodelink.ToDOT(s, nodelink.Options{Detailed: opts.Detailed}))
		case FormatPNG:
			data, err = gantt.RenderPNG(l, opts.Scale, svgOpts...)
		case FormatPDF:
			data, err = gantt.RenderPDF(l, svgOpts...)
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
