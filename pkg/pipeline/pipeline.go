// Package pipeline runs the snapshot → layout → render flow shared by the
// CLI and the HTTP API.
//
// Both hosts load a [task.Snapshot] from their own source (a dataset file
// or a store), then hand it to a [Runner]. The runner computes the
// timeline layout and the requested artifacts, caching both so that
// repeated requests for an unchanged plan on the same day are served
// without recomputation.
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, snapshot, pipeline.Options{
//	    Zoom:    "week",
//	    Formats: []string{"svg", "json"},
//	    Now:     time.Now(),
//	})
//	svg := result.Artifacts["svg"]
//
// Stages can also be run on their own with [Runner.Layout] and
// [Runner.Render].
package pipeline

import (
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackplan/pkg/cache"
	"github.com/matzehuels/stackplan/pkg/errors"
	"github.com/matzehuels/stackplan/pkg/render/gantt"
	"github.com/matzehuels/stackplan/pkg/task"
	"github.com/matzehuels/stackplan/pkg/timeline"
)

const (
	// DefaultZoom is used when Options.Zoom is empty.
	DefaultZoom = timeline.ZoomWeek

	// DefaultStyle is the gantt style used when Options.Style is empty.
	DefaultStyle = gantt.StyleStatus

	// DefaultScale is the PNG resolution multiplier.
	DefaultScale = 2.0
)

// Output formats.
const (
	FormatSVG  = "svg"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// Formats lists every supported output format.
var Formats = []string{FormatSVG, FormatJSON, FormatDOT, FormatPNG, FormatPDF}

// Options configures one pipeline run.
type Options struct {
	// ProjectID restricts the snapshot to one project. Empty keeps all.
	ProjectID string `json:"project_id,omitempty"`

	// Layout options
	Zoom        string           `json:"zoom,omitempty"`
	Start       string           `json:"start,omitempty"`
	End         string           `json:"end,omitempty"`
	ColumnWidth float64          `json:"column_width,omitempty"`
	Timeline    timeline.Options `json:"timeline"`

	// Render options
	Formats        []string `json:"formats,omitempty"`
	Style          string   `json:"style,omitempty"`
	HideConnectors bool     `json:"hide_connectors,omitempty"`
	Interactive    bool     `json:"interactive,omitempty"`
	Detailed       bool     `json:"detailed,omitempty"`
	Scale          float64  `json:"scale,omitempty"`

	// Refresh skips cache reads. Results are still written.
	Refresh bool `json:"refresh,omitempty"`

	// Now is the clock reading the layout is computed for. Required.
	Now time.Time `json:"-"`

	Logger *log.Logger `json:"-"`

	zoom       timeline.Zoom
	start, end *time.Time
	validated  bool
}

// Result holds the outputs of [Runner.Execute].
type Result struct {
	Snapshot     task.Snapshot
	SnapshotHash string
	Layout       *timeline.Layout
	Artifacts    map[string][]byte
	Stats        Stats
	CacheInfo    CacheInfo
}

// Stats describes a pipeline run.
type Stats struct {
	TaskCount    int
	EdgeCount    int
	RowCount     int
	UndatedCount int
	LayoutTime   time.Duration
	RenderTime   time.Duration
}

// CacheInfo reports which stages were served from cache.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool
}

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !slices.Contains(Formats, format) {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)",
			format, strings.Join(Formats, ", "))
	}
	return nil
}

// ValidateFormats checks every format.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks the options and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Now.IsZero() {
		return errors.New(errors.ErrCodeInvalidInput, "now is required")
	}

	if o.Zoom == "" {
		o.Zoom = string(DefaultZoom)
	}
	z, err := timeline.ParseZoom(o.Zoom)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidZoom, err, "invalid zoom %q", o.Zoom)
	}
	o.zoom, o.Zoom = z, string(z)

	if o.start, err = parseBound("start", o.Start); err != nil {
		return err
	}
	if o.end, err = parseBound("end", o.End); err != nil {
		return err
	}
	if o.ColumnWidth < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "column width must not be negative")
	}
	o.Timeline = o.Timeline.WithDefaults()
	if err := o.Timeline.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid timeline options")
	}

	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Style == "" {
		o.Style = DefaultStyle
	}
	if _, err := gantt.StyleByName(o.Style); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid style")
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}

	o.validated = true
	return nil
}

func parseBound(name, value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	d, err := timeline.ParseDate(value)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDate, err, "invalid %s date %q", name, value)
	}
	return &d, nil
}

// Request builds the layout request for a snapshot. Options must have
// been validated.
func (o *Options) Request(s task.Snapshot) timeline.Request {
	return timeline.Request{
		Tasks:        s.Tasks,
		Dependencies: s.Dependencies,
		Zoom:         o.zoom,
		Start:        o.start,
		End:          o.end,
		ColumnWidth:  o.ColumnWidth,
		Now:          o.Now,
		Options:      o.Timeline,
	}
}

// LayoutKeyOpts returns the cache key inputs for the layout stage. Only
// the calendar day of Now matters to the layout.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Zoom:        o.Zoom,
		Start:       dayString(o.start),
		End:         dayString(o.end),
		Today:       timeline.Day(o.Now).Format(time.DateOnly),
		ColumnWidth: o.ColumnWidth,
		Options:     o.Timeline,
	}
}

// ArtifactKeyOpts returns the cache key inputs for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	style := o.Style
	if o.HideConnectors {
		style += "+bare"
	}
	switch format {
	case FormatSVG:
		if o.Interactive {
			style += "+interactive"
		}
	case FormatDOT:
		style = "plain"
		if o.Detailed {
			style = "detailed"
		}
	case FormatPNG:
		style += "@" + strconv.FormatFloat(o.Scale, 'f', -1, 64)
	case FormatJSON:
		style = ""
	}
	return cache.ArtifactKeyOpts{Format: format, Style: style}
}

func dayString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}
