package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/streakline/internal/app"
	"github.com/julianstephens/streakline/internal/models"
)

// Every store call runs inside a tea.Cmd and reports back with one of these.

type habitsLoadedMsg struct {
	err error
}

type toggledMsg struct {
	id        string
	completed bool
	err       error
}

type addedMsg struct {
	habit models.Habit
	err   error
}

type deletedMsg struct {
	id  string
	err error
}

type authDoneMsg struct {
	signUp bool
	err    error
}

type signedOutMsg struct {
	err error
}

func refreshCmd(ctx context.Context, a *app.App) tea.Cmd {
	return func() tea.Msg {
		return habitsLoadedMsg{err: a.Habits().Refresh(ctx)}
	}
}

func toggleCmd(ctx context.Context, a *app.App, id string) tea.Cmd {
	return func() tea.Msg {
		completed, err := a.Habits().Toggle(ctx, id)
		return toggledMsg{id: id, completed: completed, err: err}
	}
}

func addCmd(ctx context.Context, a *app.App, name string, freq models.Frequency) tea.Cmd {
	return func() tea.Msg {
		habit, err := a.Habits().Add(ctx, name, freq)
		return addedMsg{habit: habit, err: err}
	}
}

func deleteCmd(ctx context.Context, a *app.App, id string) tea.Cmd {
	return func() tea.Msg {
		return deletedMsg{id: id, err: a.Habits().Delete(ctx, id)}
	}
}

func authCmd(ctx context.Context, a *app.App, email, password string, signUp bool) tea.Cmd {
	return func() tea.Msg {
		var err error
		if signUp {
			_, err = a.SignUp(ctx, email, password)
		} else {
			_, err = a.SignIn(ctx, email, password)
		}
		return authDoneMsg{signUp: signUp, err: err}
	}
}

func signOutCmd(ctx context.Context, a *app.App) tea.Cmd {
	return func() tea.Msg {
		return signedOutMsg{err: a.SignOut(ctx)}
	}
}
