package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/studywise/internal/ui/theme"
)

// ProgressBar displays a horizontal progress bar.
type ProgressBar struct {
	Label   string
	Percent float64
	Width   int
}

// View renders the bar followed by the percentage.
func (p ProgressBar) View() string {
	var result string
	if p.Label != "" {
		result += theme.Body.Render(p.Label) + "  "
	}

	barWidth := p.Width - lipgloss.Width(result) - 6
	if barWidth < 4 {
		barWidth = 4
	}
	filled := min(max(int(float64(barWidth)*p.Percent), 0), barWidth)

	result += lipgloss.NewStyle().Background(theme.Secondary).Render(strings.Repeat(" ", filled))
	result += lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-filled))
	result += theme.Dim.Render(fmt.Sprintf("  %d%%", int(p.Percent*100)))
	return result
}
