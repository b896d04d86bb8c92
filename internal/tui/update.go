package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/streakline/internal/constants"
	"github.com/julianstephens/streakline/internal/logger"
	"github.com/julianstephens/streakline/internal/tui/components/habits"
)

// rows taken by the header, stats cards and help line
const chromeHeight = 9

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.habitsModel.SetSize(msg.Width-4, max(msg.Height-chromeHeight, 3))

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}

	case habitsLoadedMsg:
		m.habitsModel.SetLoading(false)
		if msg.err != nil {
			m.err = msg.err.Error()
		}
		m.syncHabits()
		return m, nil

	case toggledMsg:
		delete(m.toggling, msg.id)
		m.habitsModel.SetPending(msg.id, false)
		if msg.err != nil {
			logger.Error("Error toggling habit", "habit", msg.id, "error", msg.err)
			m.err = msg.err.Error()
		}
		m.syncHabits()
		return m, nil

	case addedMsg:
		if msg.err != nil {
			logger.Error("Error adding habit", "error", msg.err)
			m.err = msg.err.Error()
			return m, nil
		}
		m.syncHabits()
		return m, nil

	case deletedMsg:
		if msg.err != nil {
			logger.Error("Error deleting habit", "habit", msg.id, "error", msg.err)
			m.err = msg.err.Error()
		}
		m.syncHabits()
		return m, nil

	case authDoneMsg:
		m.authBusy = false
		if msg.err != nil {
			m.err = msg.err.Error()
			m.showAuth(m.authForm.Email)
			return m, m.form.Init()
		}
		m.err = ""
		m.state = constants.StateHabits
		m.syncHabits()
		if !m.app.Habits().Loaded() {
			m.habitsModel.SetLoading(true)
			return m, refreshCmd(m.ctx, m.app)
		}
		return m, nil

	case signedOutMsg:
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.err = ""
		m.toggling = make(map[string]bool)
		m.syncHabits()
		m.showAuth("")
		return m, m.form.Init()

	case habits.AddHabitMsg:
		m.err = ""
		m.showAddHabit()
		return m, m.form.Init()

	case habits.ToggleHabitMsg:
		if m.toggling[msg.ID] {
			return m, nil
		}
		m.err = ""
		m.toggling[msg.ID] = true
		m.habitsModel.SetPending(msg.ID, true)
		return m, toggleCmd(m.ctx, m.app, msg.ID)

	case habits.DeleteHabitMsg:
		m.habitToDeleteID = msg.ID
		m.state = constants.StateConfirmDelete
		return m, nil
	}

	switch m.state {
	case constants.StateAuth:
		return m.updateAuth(msg)
	case constants.StateAddHabit:
		return m.updateAddHabit(msg)
	case constants.StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	default:
		return m.updateHabits(msg)
	}
}

func (m *Model) updateForm(msg tea.Msg) tea.Cmd {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	return cmd
}

func (m Model) updateAuth(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.authBusy {
		return m, nil
	}

	cmd := m.updateForm(msg)
	switch m.form.State {
	case huh.StateCompleted:
		m.authBusy = true
		m.err = ""
		return m, authCmd(m.ctx, m.app, m.authForm.Email, m.authForm.Password, m.authForm.SignUp)
	case huh.StateAborted:
		m.quitting = true
		return m, tea.Quit
	}
	return m, cmd
}

func (m Model) updateAddHabit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = constants.StateHabits
		return m, nil
	}

	cmd := m.updateForm(msg)
	switch m.form.State {
	case huh.StateCompleted:
		m.state = constants.StateHabits
		return m, addCmd(m.ctx, m.app, m.habitForm.Name, m.habitForm.Frequency)
	case huh.StateAborted:
		m.state = constants.StateHabits
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Confirm):
		id := m.habitToDeleteID
		m.habitToDeleteID = ""
		m.state = constants.StateHabits
		m.err = ""
		return m, deleteCmd(m.ctx, m.app, id)
	case key.Matches(keyMsg, m.keys.Cancel):
		m.habitToDeleteID = ""
		m.state = constants.StateHabits
	}
	return m, nil
}

func (m Model) updateHabits(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(keyMsg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(keyMsg, m.keys.Refresh):
			if m.habitsModel.Loading() {
				return m, nil
			}
			m.err = ""
			m.habitsModel.SetLoading(true)
			return m, refreshCmd(m.ctx, m.app)
		case key.Matches(keyMsg, m.keys.SignOut):
			return m, signOutCmd(m.ctx, m.app)
		}
	}

	var cmd tea.Cmd
	m.habitsModel, cmd = m.habitsModel.Update(msg)
	return m, cmd
}
