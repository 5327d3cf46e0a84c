package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/hugo-lorenzo-mato/aiderkit/internal/core"
	"github.com/hugo-lorenzo-mato/aiderkit/internal/diagnostics"
)

// Color palette
var (
	colorPrimary = lipgloss.Color("#7C3AED") // Purple
	colorSuccess = lipgloss.Color("#10B981") // Green
	colorWarning = lipgloss.Color("#F59E0B") // Amber
	colorError   = lipgloss.Color("#EF4444") // Red
	colorMuted   = lipgloss.Color("#9CA3AF") // Muted gray
	colorBorder  = lipgloss.Color("#374151") // Dark gray
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

func statusIcon(s core.TaskStatus) string {
	switch s {
	case core.TaskStatusCompleted:
		return successStyle.Render("✓")
	case core.TaskStatusFailed:
		return errorStyle.Render("✗")
	case core.TaskStatusRunning:
		return warningStyle.Render("●")
	default:
		return mutedStyle.Render("○")
	}
}

func checkIcon(s diagnostics.Status) string {
	switch s {
	case diagnostics.StatusOK:
		return successStyle.Render("✓")
	case diagnostics.StatusWarn:
		return warningStyle.Render("⚠")
	default:
		return errorStyle.Render("✗")
	}
}

// newTable returns a bordered table with the shared styles.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

// printTask writes the human-readable summary of one task.
func printTask(w io.Writer, t *core.Task, full bool) {
	fmt.Fprintf(w, "%s %s %s\n", statusIcon(t.Status), titleStyle.Render(string(t.Type)), mutedStyle.Render(string(t.ID)))
	fmt.Fprintf(w, "  description: %s\n", t.Description)
	if len(t.Files) > 0 {
		fmt.Fprintf(w, "  files:       %s\n", strings.Join(t.Files, ", "))
	}
	fmt.Fprintf(w, "  created:     %s\n", t.CreatedAt.Format(time.RFC3339))
	if t.IsTerminal() {
		fmt.Fprintf(w, "  duration:    %s\n", formatDuration(t.Duration()))
	}
	for i, cp := range t.Steps {
		mark := mutedStyle.Render("○")
		if cp.Filled() {
			mark = successStyle.Render("✓")
		}
		if !cp.Tracked {
			mark = mutedStyle.Render("-")
		}
		fmt.Fprintf(w, "  step %d %s %s\n", i+1, mark, cp.Description)
	}
	if t.Error != nil {
		fmt.Fprintf(w, "  error:       %s\n", errorStyle.Render(*t.Error))
	}
	if !full || t.Result == nil {
		return
	}
	if out := t.Result.Output(); out != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, out)
	}
}
