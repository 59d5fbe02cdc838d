package timeline

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidZoom is returned for an unknown zoom level.
	ErrInvalidZoom = errors.New("invalid zoom level")

	// ErrNoDate is returned by ParseDate for an empty value.
	ErrNoDate = errors.New("no date")

	// ErrInvalidDate is returned by ParseDate for a value in no known layout.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidColumnWidth is returned by Build for a negative column width.
	ErrInvalidColumnWidth = errors.New("column width must not be negative")

	// ErrInvalidOptions is returned by Build when Options fail validation.
	ErrInvalidOptions = errors.New("invalid timeline options")

	// ErrMissingNow is returned by Build when the request carries no clock
	// reading. The layout never reads the wall clock itself.
	ErrMissingNow = errors.New("now must be set")
)

// Presentation defaults. One call always applies a single value of each.
const (
	DefaultPaddingDays  = 7
	DefaultHorizonDays  = 30
	DefaultMinBarWidth  = 8.0
	DefaultRowHeight    = 36.0
	DefaultBarHeight    = 24.0
	DefaultHeaderHeight = 48.0
	DefaultGutter       = 12.0
)

// Options holds the presentation constants of a layout. Zero fields take
// the package defaults, except the day counts: those default only when nil,
// so an explicit zero is kept.
type Options struct {
	// PaddingDays extends an inferred window on both sides.
	PaddingDays *int `json:"padding_days,omitempty" toml:"padding_days"`
	// HorizonDays is how far the default window reaches past today when no
	// task carries a usable date.
	HorizonDays *int `json:"horizon_days,omitempty" toml:"horizon_days"`
	// MinBarWidth is the narrowest bar ever drawn.
	MinBarWidth float64 `json:"min_bar_width,omitempty" toml:"min_bar_width"`
	// RowHeight is the vertical slot per task.
	RowHeight float64 `json:"row_height,omitempty" toml:"row_height"`
	// BarHeight is the bar thickness, centered in its row.
	BarHeight float64 `json:"bar_height,omitempty" toml:"bar_height"`
	// HeaderHeight is reserved above the first row for column labels.
	HeaderHeight float64 `json:"header_height,omitempty" toml:"header_height"`
	// Gutter is the horizontal stub a detour connector runs before turning.
	Gutter float64 `json:"gutter,omitempty" toml:"gutter"`
}

// DefaultOptions returns Options with every field set to its default.
func DefaultOptions() Options {
	return Options{
		PaddingDays:  Days(DefaultPaddingDays),
		HorizonDays:  Days(DefaultHorizonDays),
		MinBarWidth:  DefaultMinBarWidth,
		RowHeight:    DefaultRowHeight,
		BarHeight:    DefaultBarHeight,
		HeaderHeight: DefaultHeaderHeight,
		Gutter:       DefaultGutter,
	}
}

// Days returns a pointer to n for the day-count fields of Options.
func Days(n int) *int { return &n }

// WithDefaults returns a copy of o with unset fields replaced by defaults.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.PaddingDays == nil {
		o.PaddingDays = d.PaddingDays
	}
	if o.HorizonDays == nil {
		o.HorizonDays = d.HorizonDays
	}
	if o.MinBarWidth == 0 {
		o.MinBarWidth = d.MinBarWidth
	}
	if o.RowHeight == 0 {
		o.RowHeight = d.RowHeight
	}
	if o.BarHeight == 0 {
		o.BarHeight = d.BarHeight
	}
	if o.HeaderHeight == 0 {
		o.HeaderHeight = d.HeaderHeight
	}
	if o.Gutter == 0 {
		o.Gutter = d.Gutter
	}
	return o
}

// Validate checks that o, after defaults, describes drawable geometry.
func (o Options) Validate() error {
	o = o.WithDefaults()
	switch {
	case o.padding() < 0:
		return fmt.Errorf("%w: padding_days %d is negative", ErrInvalidOptions, o.padding())
	case o.horizon() < 0:
		return fmt.Errorf("%w: horizon_days %d is negative", ErrInvalidOptions, o.horizon())
	case o.MinBarWidth < 0:
		return fmt.Errorf("%w: min_bar_width %g is negative", ErrInvalidOptions, o.MinBarWidth)
	case o.RowHeight < 0, o.BarHeight < 0, o.HeaderHeight < 0, o.Gutter < 0:
		return fmt.Errorf("%w: heights and gutter must not be negative", ErrInvalidOptions)
	case o.BarHeight > o.RowHeight:
		return fmt.Errorf("%w: bar_height %g exceeds row_height %g", ErrInvalidOptions, o.BarHeight, o.RowHeight)
	}
	return nil
}

func (o Options) padding() int {
	if o.PaddingDays == nil {
		return DefaultPaddingDays
	}
	return *o.PaddingDays
}

func (o Options) horizon() int {
	if o.HorizonDays == nil {
		return DefaultHorizonDays
	}
	return *o.HorizonDays
}

// rowGap is the space between a bar and the edge of its row.
func (o Options) rowGap() float64 { return (o.RowHeight - o.BarHeight) / 2 }

// DiagnosticKind classifies a recovered layout problem.
type DiagnosticKind string

const (
	// DiagInvalidDate: a date could not be parsed and was treated as absent.
	DiagInvalidDate DiagnosticKind = "invalid_date"
	// DiagInvertedRange: the due date precedes the start date; the two were
	// swapped for drawing.
	DiagInvertedRange DiagnosticKind = "inverted_range"
	// DiagDefaultWindow: no task had a usable date and no explicit window
	// was given, so the default window around today was used.
	DiagDefaultWindow DiagnosticKind = "default_window"
	// DiagClampedWindow: the window end preceded its start and was clamped.
	DiagClampedWindow DiagnosticKind = "clamped_window"
)

// Diagnostic describes a problem the layout recovered from. None of them
// prevent a layout from being produced.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	TaskID  string         `json:"task_id,omitempty"`
	Field   string         `json:"field,omitempty"`
	Value   string         `json:"value,omitempty"`
	Message string         `json:"message"`
}
