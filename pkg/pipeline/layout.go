package pipeline

import (
	"context"
	stderrors "errors"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackplan/pkg/errors"
	"github.com/matzehuels/stackplan/pkg/observability"
	"github.com/matzehuels/stackplan/pkg/task"
	"github.com/matzehuels/stackplan/pkg/timeline"
)

// BuildLayout computes the timeline layout for a snapshot without caching.
// Options must have been validated.
func BuildLayout(s task.Snapshot, opts Options) (*timeline.Layout, error) {
	l, err := timeline.Build(opts.Request(s))
	if err != nil {
		return nil, layoutError(err)
	}
	return l, nil
}

func layoutError(err error) error {
	switch {
	case stderrors.Is(err, timeline.ErrInvalidZoom):
		return errors.Wrap(errors.ErrCodeInvalidZoom, err, "layout")
	case stderrors.Is(err, timeline.ErrInvalidColumnWidth),
		stderrors.Is(err, timeline.ErrInvalidOptions),
		stderrors.Is(err, timeline.ErrMissingNow):
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "layout")
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "layout")
}

// reportDiagnostics forwards layout diagnostics to the log and the
// pipeline hooks. Bad dates never fail a layout, so this is the only
// place they surface.
func reportDiagnostics(ctx context.Context, logger *log.Logger, l *timeline.Layout) {
	hooks := observability.Pipeline()
	for _, d := range l.Diagnostics {
		switch d.Kind {
		case timeline.DiagInvalidDate:
			hooks.OnInvalidDate(ctx, d.TaskID, d.Field, d.Value)
			logger.Warn("ignoring unparsable date", "task", d.TaskID, "field", d.Field, "value", d.Value)
		case timeline.DiagDefaultWindow:
			hooks.OnDefaultWindow(ctx, l.Window.Start, l.Window.End)
			logger.Debug("no dated tasks, using default window",
				"start", l.Window.Start.Format("2006-01-02"), "end", l.Window.End.Format("2006-01-02"))
		default:
			logger.Debug(d.Message, "kind", d.Kind, "task", d.TaskID)
		}
	}
}
