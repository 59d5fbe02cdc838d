package gantt

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/stackplan/pkg/timeline"
)

// RenderJSON encodes the layout for clients that draw their own chart.
func RenderJSON(l *timeline.Layout) ([]byte, error) {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode layout: %w", err)
	}
	return append(data, '\n'), nil
}

// ParseJSON decodes a layout produced by [RenderJSON].
func ParseJSON(data []byte) (*timeline.Layout, error) {
	var l timeline.Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	if !l.Zoom.Valid() {
		return nil, fmt.Errorf("decode layout: %w: %q", timeline.ErrInvalidZoom, l.Zoom)
	}
	return &l, nil
}
