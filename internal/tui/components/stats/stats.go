// Package stats renders the summary cards shown above the habit list.
package stats

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/streakline/internal/models"
)

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1).
			Align(lipgloss.Center)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

const minCardWidth = 14

type card struct {
	label string
	value string
}

func cards(s models.Stats) []card {
	return []card{
		{"Total Habits", fmt.Sprintf("%d", s.TotalHabits)},
		{"Completed Today", fmt.Sprintf("%d", s.CompletedToday)},
		{"Longest Streak", fmt.Sprintf("%d", s.LongestStreak)},
		{"Completion Rate", fmt.Sprintf("%d%%", s.CompletionRate)},
	}
}

// View lays the four cards out in a row sized to width
func View(s models.Stats, width int) string {
	cs := cards(s)

	// two border columns per card
	cardWidth := width/len(cs) - 2
	if cardWidth < minCardWidth {
		cardWidth = minCardWidth
	}

	rendered := make([]string, len(cs))
	for i, c := range cs {
		rendered[i] = cardStyle.Width(cardWidth).Render(
			lipgloss.JoinVertical(lipgloss.Center,
				valueStyle.Render(c.value),
				labelStyle.Render(c.label),
			),
		)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}
