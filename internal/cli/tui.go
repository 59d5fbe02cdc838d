package cli

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/stackplan/pkg/pipeline"
	"github.com/matzehuels/stackplan/pkg/task"
	"github.com/matzehuels/stackplan/pkg/timeline"
)

const labelWidth = 24

var (
	viewSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	viewNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	viewDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	viewTodayStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// TimelineModel - Interactive timeline
// =============================================================================

// TimelineModel is the bubbletea model behind 'stackplan view'. Changing
// the zoom recomputes the layout from the unchanged snapshot.
type TimelineModel struct {
	Snapshot task.Snapshot
	Layout   *timeline.Layout
	Err      error

	Cursor int
	Offset int
	Width  int
	Height int

	// options returns unvalidated pipeline options for a zoom.
	options  func(zoom string) (pipeline.Options, error)
	blockers map[string]int
}

// NewTimelineModel lays out snap at the given zoom.
func NewTimelineModel(snap task.Snapshot, zoom string, options func(zoom string) (pipeline.Options, error)) TimelineModel {
	m := TimelineModel{
		Snapshot: snap,
		Width:    100,
		Height:   15,
		options:  options,
		blockers: make(map[string]int),
	}
	for _, d := range snap.Edges() {
		m.blockers[d.TaskID]++
	}
	m.relayout(zoom)
	return m
}

func (m *TimelineModel) relayout(zoom string) {
	opts, err := m.options(zoom)
	if err == nil {
		err = opts.ValidateAndSetDefaults()
	}
	if err != nil {
		m.Err = err
		return
	}
	l, err := pipeline.BuildLayout(m.Snapshot, opts)
	if err != nil {
		m.Err = err
		return
	}
	m.Layout, m.Err = l, nil
	if m.Cursor >= len(l.Rows) {
		m.Cursor = max(len(l.Rows)-1, 0)
	}
}

func (m TimelineModel) Init() tea.Cmd {
	return nil
}

func (m TimelineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "d":
			m.relayout(string(timeline.ZoomDay))
		case "w":
			m.relayout(string(timeline.ZoomWeek))
		case "m":
			m.relayout(string(timeline.ZoomMonth))
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Layout != nil && m.Cursor < len(m.Layout.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		}
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height - 9
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m TimelineModel) View() string {
	var b strings.Builder

	if m.Err != nil {
		b.WriteString(iconError.line(m.Err.Error()) + "\n")
		b.WriteString(viewDimStyle.Render("d/w/m zoom  q quit"))
		return b.String()
	}
	l := m.Layout

	b.WriteString(StyleTitle.Render(fmt.Sprintf("Timeline · %s", l.Zoom)))
	b.WriteString(viewDimStyle.Render(fmt.Sprintf("  %s → %s",
		l.Window.Start.Format("Jan 2"), l.Window.End.Format("Jan 2, 2006"))))
	b.WriteString("\n")
	b.WriteString(viewDimStyle.Render("d/w/m zoom  ↑/↓ navigate  q quit"))
	b.WriteString("\n\n")

	cols := max(m.Width-labelWidth-2, 10)
	scale := 0.0
	if l.Width > 0 {
		scale = float64(cols) / l.Width
	}
	b.WriteString(strings.Repeat(" ", labelWidth+2))
	b.WriteString(viewDimStyle.Render(headerLine(l.Columns, scale, cols)))
	b.WriteString("\n")

	end := min(m.Offset+m.Height, len(l.Rows))
	for i := m.Offset; i < end; i++ {
		row := l.Rows[i]
		cursor, style := "  ", viewNormalStyle
		if i == m.Cursor {
			cursor, style = "▸ ", viewSelectedStyle
		}
		b.WriteString(cursor)
		b.WriteString(style.Render(padLabel(row.Task.Title, row.Task.ID)))
		b.WriteString(barLine(row, l.Today, scale, cols))
		b.WriteString("\n")
	}
	if len(l.Rows) == 0 {
		b.WriteString(viewDimStyle.Render("  no dated tasks"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.Cursor < len(l.Rows) {
		t := l.Rows[m.Cursor].Task
		span := l.Rows[m.Cursor].Span
		b.WriteString(StyleValue.Render(t.ID))
		b.WriteString(viewDimStyle.Render(fmt.Sprintf("  %s → %s · %d day(s) · %s · %d blocker(s)",
			span.Start.Format("2006-01-02"), span.End.Format("2006-01-02"), span.Days(),
			orDash(string(t.Status)), m.blockers[t.ID])))
		b.WriteString("\n")
	}
	b.WriteString(viewDimStyle.Render(fmt.Sprintf("  [%d/%d] %d undated", min(m.Cursor+1, len(l.Rows)), len(l.Rows), len(l.Undated))))
	return b.String()
}

// headerLine places column labels at their scaled offsets, skipping labels
// that would overlap the previous one.
func headerLine(columns []timeline.DateColumn, scale float64, width int) string {
	line := []rune(strings.Repeat(" ", width))
	next := 0
	for _, c := range columns {
		x := int(math.Round(c.Left * scale))
		label := []rune(c.Label)
		if x < next || x+len(label) > width {
			continue
		}
		copy(line[x:], label)
		next = x + len(label) + 1
	}
	return string(line)
}

// barLine draws one task's bar in a cell grid of the given width, with the
// today marker on top.
func barLine(row timeline.RowEntry, today *float64, scale float64, width int) string {
	from := clampCell(int(math.Floor(row.Bar.Left*scale)), width)
	to := clampCell(int(math.Ceil(row.Bar.Right()*scale)), width)
	if to <= from && from < width {
		to = from + 1
	}
	marker := -1
	if today != nil {
		marker = clampCell(int(*today*scale), width-1)
	}

	barStyle := lipgloss.NewStyle().Foreground(statusColor(row.Task.Status))

	var b strings.Builder
	for x := 0; x < width; x++ {
		switch {
		case x == marker:
			b.WriteString(viewTodayStyle.Render("│"))
		case x >= from && x < to:
			b.WriteString(barStyle.Render("█"))
		default:
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func clampCell(x, width int) int {
	return min(max(x, 0), width)
}

func padLabel(title, id string) string {
	label := title
	if label == "" {
		label = id
	}
	r := []rune(label)
	if len(r) > labelWidth-1 {
		r = append(r[:labelWidth-2], '…')
	}
	return string(r) + strings.Repeat(" ", labelWidth-len(r))
}
