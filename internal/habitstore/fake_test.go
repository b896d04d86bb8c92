package habitstore

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/streakline/internal/models"
	"github.com/julianstephens/streakline/internal/storage"
)

// fakeBackend is an in-memory Records + Auth used by store tests.
type fakeBackend struct {
	mu          sync.Mutex
	user        *models.User
	habits      []models.Habit
	completions map[string]map[string]struct{}
	nextID      int

	calls    map[string]int
	failList error
	failMut  error

	// block, when set, is waited on inside InsertCompletion
	block   chan struct{}
	entered chan struct{}

	// holdList, when set, parks the next ListHabits after it has read
	holdList    chan struct{}
	listEntered chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		user:        &models.User{ID: "user-1", Email: "me@example.com"},
		completions: make(map[string]map[string]struct{}),
		calls:       make(map[string]int),
	}
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) record(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeBackend) seedHabit(name string, freq models.Frequency, days ...string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("habit-%d", f.nextID)
	f.habits = append(f.habits, models.Habit{
		ID:        id,
		Name:      name,
		Frequency: freq,
		UserID:    f.user.ID,
		CreatedAt: time.Date(2024, 1, f.nextID, 0, 0, 0, 0, time.UTC),
	})
	f.completions[id] = make(map[string]struct{})
	for _, d := range days {
		f.completions[id][d] = struct{}{}
	}
	return id
}

func (f *fakeBackend) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*models.Session, error) {
	return nil, stderrors.New("not implemented")
}

func (f *fakeBackend) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	return nil, stderrors.New("not implemented")
}

func (f *fakeBackend) SignOut(ctx context.Context) error { return nil }

func (f *fakeBackend) GetSession(ctx context.Context) (*models.Session, error) {
	if f.user == nil {
		return nil, nil
	}
	return &models.Session{AccessToken: "token", User: *f.user}, nil
}

func (f *fakeBackend) GetUser(ctx context.Context) (*models.User, error) {
	f.record("GetUser")
	return f.user, nil
}

func (f *fakeBackend) OnAuthStateChange(fn storage.Listener) func() { return func() {} }

func (f *fakeBackend) ListHabits(ctx context.Context) ([]models.Habit, error) {
	f.record("ListHabits")
	f.mu.Lock()
	if f.failList != nil {
		f.mu.Unlock()
		return nil, f.failList
	}
	out := append([]models.Habit(nil), f.habits...)
	hold, entered := f.holdList, f.listEntered
	f.holdList, f.listEntered = nil, nil
	f.mu.Unlock()

	if hold != nil {
		entered <- struct{}{}
		<-hold
	}
	return out, nil
}

func (f *fakeBackend) InsertHabit(ctx context.Context, h models.NewHabit) (models.Habit, error) {
	f.record("InsertHabit")
	if f.failMut != nil {
		return models.Habit{}, f.failMut
	}
	f.seedHabit(h.Name, h.Frequency)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.habits[len(f.habits)-1], nil
}

func (f *fakeBackend) DeleteHabit(ctx context.Context, id string) error {
	f.record("DeleteHabit")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMut != nil {
		return f.failMut
	}
	kept := f.habits[:0]
	for _, h := range f.habits {
		if h.ID != id {
			kept = append(kept, h)
		}
	}
	f.habits = kept
	delete(f.completions, id)
	return nil
}

func (f *fakeBackend) ListCompletions(ctx context.Context) ([]models.Completion, error) {
	f.record("ListCompletions")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList != nil {
		return nil, f.failList
	}
	var out []models.Completion
	for id, days := range f.completions {
		for d := range days {
			t, _ := time.Parse("2006-01-02", d)
			out = append(out, models.Completion{HabitID: id, CompletedAt: t})
		}
	}
	return out, nil
}

func (f *fakeBackend) InsertCompletion(ctx context.Context, habitID, day string) error {
	f.record("InsertCompletion")
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMut != nil {
		return f.failMut
	}
	if f.completions[habitID] == nil {
		f.completions[habitID] = make(map[string]struct{})
	}
	f.completions[habitID][day] = struct{}{}
	return nil
}

func (f *fakeBackend) DeleteCompletion(ctx context.Context, habitID, day string) error {
	f.record("DeleteCompletion")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMut != nil {
		return f.failMut
	}
	delete(f.completions[habitID], day)
	return nil
}
