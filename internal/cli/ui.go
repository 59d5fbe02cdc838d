package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/stackplan/pkg/task"
	"github.com/matzehuels/stackplan/pkg/timeline"
)

// =============================================================================
// Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

// statusColors colors a task by workflow status, in tables and timeline bars.
// Statuses without an entry use colorGray.
var statusColors = map[task.Status]lipgloss.Color{
	task.StatusDone:       colorGreen,
	task.StatusInProgress: colorCyan,
	task.StatusReview:     colorBlue,
	task.StatusBlocked:    colorRed,
}

func statusColor(s task.Status) lipgloss.Color {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return colorGray
}

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for task ids and addresses inside messages.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)
)

var (
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleWarningText = lipgloss.NewStyle().Foreground(colorYellow)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	stylePath        = lipgloss.NewStyle().Foreground(colorRed)
)

// statusIcon is a leading marker and its color.
type statusIcon struct {
	glyph string
	color lipgloss.Color
}

var (
	iconSuccess = statusIcon{"✓", colorGreen}
	iconError   = statusIcon{"✗", colorRed}
	iconWarning = statusIcon{"!", colorYellow}
	iconInfo    = statusIcon{"›", colorGray}
)

const iconArrow = "→"

func (i statusIcon) line(msg string) string {
	return lipgloss.NewStyle().Foreground(i.color).Render(i.glyph) + " " + msg
}

// =============================================================================
// Messages
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(iconSuccess.line(fmt.Sprintf(format, args...)))
}

func printError(format string, args ...any) {
	fmt.Println(iconError.line(fmt.Sprintf(format, args...)))
}

func printWarning(format string, args ...any) {
	fmt.Println(iconWarning.line(styleWarningText.Render(fmt.Sprintf(format, args...))))
}

func printInfo(format string, args ...any) {
	fmt.Println(iconInfo.line(fmt.Sprintf(format, args...)))
}

// printDetail prints an indented, dimmed line under the previous message.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a path the command wrote.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Plan Output
// =============================================================================

// printStats prints the plan size and whether the layout came from cache.
func printStats(taskCount, edgeCount, rowCount int, cached bool) {
	fmt.Println("  " + statsLine(taskCount, edgeCount, rowCount, cached))
}

// statsLine renders "3 tasks · 2 edges · 3 rows · cached". Zero counts are
// left out; the cache state never is.
func statsLine(taskCount, edgeCount, rowCount int, cached bool) string {
	var parts []string
	for _, c := range []struct {
		n    int
		noun string
	}{{taskCount, "tasks"}, {edgeCount, "edges"}, {rowCount, "rows"}} {
		if c.n > 0 {
			parts = append(parts, StyleDim.Render(fmt.Sprintf("%d %s", c.n, c.noun)))
		}
	}
	if cached {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorGreen).Render("cached"))
	} else {
		parts = append(parts, StyleDim.Render("fresh"))
	}
	return strings.Join(parts, StyleDim.Render(" · "))
}

// printCyclePath prints the path a rejected edge would close.
func printCyclePath(path []string) {
	fmt.Println("  " + stylePath.Render(strings.Join(path, " "+iconArrow+" ")))
}

// printDiagnostics prints problems the layout recovered from.
func printDiagnostics(diags []timeline.Diagnostic) {
	for _, d := range diags {
		printWarning("%s", d.Message)
	}
}

func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Println()
}
