package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/streakline/internal/app"
	"github.com/julianstephens/streakline/internal/constants"
	"github.com/julianstephens/streakline/internal/models"
	"github.com/julianstephens/streakline/internal/tui/components/habits"
	"github.com/julianstephens/streakline/internal/validation"
)

type AuthFormModel struct {
	Email    string
	Password string
	SignUp   bool
}

type HabitFormModel struct {
	Name      string
	Frequency models.Frequency
}

type Model struct {
	ctx             context.Context
	app             *app.App
	state           constants.SessionState
	keys            KeyMap
	help            help.Model
	habitsModel     habits.Model
	form            *huh.Form
	authForm        *AuthFormModel
	habitForm       *HabitFormModel
	habitToDeleteID string
	toggling        map[string]bool
	authBusy        bool
	err             string
	quitting        bool
	width           int
	height          int
}

func New(ctx context.Context, a *app.App) Model {
	m := Model{
		ctx:         ctx,
		app:         a,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		habitsModel: habits.New(0, 0),
		toggling:    make(map[string]bool),
	}

	if a.SignedIn() {
		m.state = constants.StateHabits
		m.syncHabits()
		m.habitsModel.SetLoading(!a.Habits().Loaded())
		if err := a.LastError(); err != nil {
			m.err = err.Error()
		}
	} else {
		m.showAuth("")
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.state == constants.StateAuth {
		return m.form.Init()
	}
	if m.habitsModel.Loading() {
		return refreshCmd(m.ctx, m.app)
	}
	return nil
}

// syncHabits copies the store's list into the view
func (m *Model) syncHabits() {
	store := m.app.Habits()
	m.habitsModel.SetHabits(store.Habits(), store.Today())
}

func (m *Model) showAuth(email string) {
	m.state = constants.StateAuth
	m.authBusy = false
	m.authForm = &AuthFormModel{Email: email}
	m.form = NewAuthForm(m.authForm)
}

func (m *Model) showAddHabit() {
	m.state = constants.StateAddHabit
	m.habitForm = &HabitFormModel{Frequency: models.FrequencyDaily}
	m.form = NewHabitForm(m.habitForm)
}

// NewAuthForm creates the sign-in / sign-up form
func NewAuthForm(fm *AuthFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&fm.Email),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&fm.Password),
			huh.NewSelect[bool]().
				Title("Account").
				Options(
					huh.NewOption("Sign in", false),
					huh.NewOption("Create an account", true),
				).
				Value(&fm.SignUp),
		),
	).WithShowHelp(true)
}

// NewHabitForm creates the add-habit form
func NewHabitForm(fm *HabitFormModel) *huh.Form {
	options := make([]huh.Option[models.Frequency], len(models.Frequencies))
	for i, f := range models.Frequencies {
		options[i] = huh.NewOption(f.Label(), f)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit name").
				Placeholder("Enter habit name...").
				Value(&fm.Name).
				Validate(func(s string) error {
					return validation.ValidateHabit(s, models.FrequencyDaily)
				}),
			huh.NewSelect[models.Frequency]().
				Title("Frequency").
				Options(options...).
				Value(&fm.Frequency),
		),
	).WithShowHelp(true)
}

func (m Model) ShortHelp() []key.Binding {
	hk := m.habitsModel.Keys()
	switch m.state {
	case constants.StateHabits:
		return []key.Binding{hk.Add, hk.Toggle, hk.Delete, m.keys.Refresh, m.keys.SignOut, m.keys.Quit, m.keys.Help}
	case constants.StateConfirmDelete:
		return []key.Binding{m.keys.Confirm, m.keys.Cancel}
	}
	return nil
}

func (m Model) FullHelp() [][]key.Binding {
	if m.state != constants.StateHabits {
		return [][]key.Binding{m.ShortHelp()}
	}
	hk := m.habitsModel.Keys()
	return [][]key.Binding{
		{m.keys.Up, m.keys.Down},
		{hk.Add, hk.Toggle, hk.Delete},
		{m.keys.Refresh, m.keys.SignOut, m.keys.Quit, m.keys.Help},
	}
}
