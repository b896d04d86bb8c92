package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/streakline/internal/constants"
	"github.com/julianstephens/streakline/internal/tui/components/stats"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case constants.StateAuth:
		content = m.viewAuth()
	case constants.StateAddHabit:
		content = docStyle.Render(m.form.View())
	case constants.StateConfirmDelete:
		content = m.viewConfirmDelete()
	default:
		content = m.viewHabits()
	}

	parts := []string{m.viewHeader()}
	if m.err != "" {
		parts = append(parts, errorBannerStyle.Render(m.err))
	}
	parts = append(parts, content, m.help.View(m))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewHeader() string {
	header := titleStyle.Render(constants.AppName)
	if session := m.app.Session(); session != nil && m.state != constants.StateAuth {
		header = lipgloss.JoinHorizontal(lipgloss.Top, header, subtleStyle.Render(session.User.Email))
	}
	return header
}

func (m Model) viewAuth() string {
	if m.authBusy {
		verb := "Signing in..."
		if m.authForm.SignUp {
			verb = "Creating account..."
		}
		return docStyle.Render(verb)
	}
	return docStyle.Render(m.form.View())
}

func (m Model) viewHabits() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		stats.View(m.app.Habits().Stats(), m.width-4),
		m.habitsModel.View(),
	)
}

func (m Model) viewConfirmDelete() string {
	name := "this habit"
	if h, ok := m.app.Habits().Habit(m.habitToDeleteID); ok {
		name = "\"" + h.Name + "\""
	}
	return lipgloss.Place(m.width, max(m.height-4, 5),
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render("Delete "+name+" and its history?"),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
