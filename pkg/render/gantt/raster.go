package gantt

import (
	"github.com/matzehuels/stackplan/pkg/render"
	"github.com/matzehuels/stackplan/pkg/timeline"
)

// RenderPNG renders the chart as PNG at the given scale.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(l *timeline.Layout, scale float64, opts ...SVGOption) ([]byte, error) {
	return render.ToPNG(RenderSVG(l, opts...), scale)
}

// RenderPDF renders the chart as PDF.
func RenderPDF(l *timeline.Layout, opts ...SVGOption) ([]byte, error) {
	return render.ToPDF(RenderSVG(l, opts...))
}
