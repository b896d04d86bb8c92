package habits

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/streakline/internal/models"
)

const (
	LoadingText = "Loading habits..."
	EmptyText   = "No habits added yet. Start by adding a new habit above!"
)

type AddHabitMsg struct{}

type ToggleHabitMsg struct {
	ID string
}

type DeleteHabitMsg struct {
	ID string
}

type Item struct {
	Habit   models.Habit
	Done    bool
	Pending bool
}

func (i Item) Title() string {
	if i.Done {
		return "✓ " + i.Habit.Name
	}
	return "○ " + i.Habit.Name
}

func (i Item) Description() string {
	parts := []string{
		fmt.Sprintf("streak %d", i.Habit.Streak),
		strings.ToLower(i.Habit.Frequency.Label()),
	}
	if i.Pending {
		parts = append(parts, "saving...")
	} else if i.Done {
		parts = append(parts, "completed today")
	}
	return strings.Join(parts, " · ")
}

func (i Item) FilterValue() string { return i.Habit.Name }

type KeyMap struct {
	Add    key.Binding
	Toggle key.Binding
	Delete key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "toggle today"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
	}
}

type Model struct {
	list    list.Model
	keys    KeyMap
	habits  []models.Habit
	today   string
	pending map[string]bool
	loading bool
}

func New(width, height int) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.Title = "Habits"
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	// quitting is owned by the parent model
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)

	return Model{
		list:    l,
		keys:    DefaultKeyMap(),
		pending: make(map[string]bool),
	}
}

// Keys returns the component bindings for the parent's help view
func (m Model) Keys() KeyMap {
	return m.keys
}

// SetHabits replaces the list, marking habits completed on today
func (m *Model) SetHabits(habits []models.Habit, today string) {
	m.habits = habits
	m.today = today
	m.refreshItems()
}

// SetPending marks a habit's toggle as in flight; its toggle key is ignored until cleared
func (m *Model) SetPending(id string, pending bool) {
	if pending {
		m.pending[id] = true
	} else {
		delete(m.pending, id)
	}
	m.refreshItems()
}

func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

func (m Model) Loading() bool {
	return m.loading
}

func (m *Model) refreshItems() {
	items := make([]list.Item, len(m.habits))
	for i, h := range m.habits {
		items[i] = Item{
			Habit:   h,
			Done:    h.CompletedOn(m.today),
			Pending: m.pending[h.ID],
		}
	}
	m.list.SetItems(items)
}

// Selected returns the habit under the cursor
func (m Model) Selected() (Item, bool) {
	i, ok := m.list.SelectedItem().(Item)
	return i, ok
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Add):
			return m, func() tea.Msg { return AddHabitMsg{} }
		case key.Matches(msg, m.keys.Toggle):
			if i, ok := m.Selected(); ok && !i.Pending {
				return m, func() tea.Msg { return ToggleHabitMsg{ID: i.Habit.ID} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Delete):
			if i, ok := m.Selected(); ok {
				return m, func() tea.Msg { return DeleteHabitMsg{ID: i.Habit.ID} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.loading {
		return "\n  " + LoadingText
	}
	if len(m.list.Items()) == 0 {
		return "\n  " + EmptyText
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
