// Package habitstore keeps the in-memory habit list in step with the remote
// record store and derives completion dates, streaks and stats from it.
package habitstore

import (
	"context"
	stderrors "errors"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/streakline/internal/errors"
	"github.com/julianstephens/streakline/internal/logger"
	"github.com/julianstephens/streakline/internal/models"
	"github.com/julianstephens/streakline/internal/storage"
	"github.com/julianstephens/streakline/internal/streak"
	"github.com/julianstephens/streakline/internal/utils"
	"github.com/julianstephens/streakline/internal/validation"
)

var (
	ErrHabitNotFound    = stderrors.New("habit not found")
	ErrToggleInProgress = stderrors.New("a completion update for this habit is already in progress")
)

// Option configures a Store
type Option func(*Store)

// WithLocation sets the timezone used to resolve calendar days
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store owns the in-memory habit collection. It is safe for concurrent use;
// remote calls are made without holding the lock.
type Store struct {
	records storage.Records
	auth    storage.Auth
	loc     *time.Location
	now     func() time.Time

	mu       sync.RWMutex
	habits   []models.Habit
	loaded   bool
	toggling map[string]struct{}

	// gen counts local writes, resets counts sign-outs
	gen    uint64
	resets uint64
}

// maxRefreshAttempts bounds refetching while writes keep landing mid-fetch
const maxRefreshAttempts = 3

func New(records storage.Records, auth storage.Auth, opts ...Option) *Store {
	s := &Store{
		records:  records,
		auth:     auth,
		loc:      time.Local,
		now:      time.Now,
		toggling: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns today's calendar date in the store's timezone
func (s *Store) Today() string {
	return utils.Today(s.now(), s.loc)
}

// Habits returns a copy of the current habit list
func (s *Store) Habits() []models.Habit {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Habit, len(s.habits))
	for i, h := range s.habits {
		h.CompletedDates = append([]string(nil), h.CompletedDates...)
		out[i] = h
	}
	return out
}

// Habit returns the habit with id
func (s *Store) Habit(id string) (models.Habit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.habits {
		if h.ID == id {
			h.CompletedDates = append([]string(nil), h.CompletedDates...)
			return h, true
		}
	}
	return models.Habit{}, false
}

// Loaded reports whether a refresh has succeeded since the last reset
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Reset drops the in-memory list, e.g. after sign-out
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.habits = nil
	s.loaded = false
	s.resets++
}

// Refresh re-fetches habits and completions and rebuilds derived state.
// On failure the previous list is kept. A fetch that overlaps an add, delete
// or toggle is retried; one that overlaps a reset is discarded.
func (s *Store) Refresh(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		s.mu.RLock()
		gen, resets := s.gen, s.resets
		s.mu.RUnlock()

		habits, completions, err := s.fetch(ctx)
		if err != nil {
			logger.Error("Error fetching habits", "error", err)
			return errors.NewRemote("fetch habits", err)
		}
		assembled := Assemble(habits, completions, s.loc)

		s.mu.Lock()
		switch {
		case s.resets != resets:
			s.mu.Unlock()
			logger.Debug("Discarded habit refresh started before reset")
			return nil
		case s.gen != gen && attempt < maxRefreshAttempts:
			s.mu.Unlock()
			logger.Debug("Habits changed during refresh, fetching again", "attempt", attempt)
			continue
		case s.gen != gen:
			s.mu.Unlock()
			logger.Warn("Habits kept changing during refresh, keeping current list")
			return nil
		}
		s.habits = assembled
		s.loaded = true
		s.mu.Unlock()

		logger.Debug("Refreshed habits", "habits", len(assembled), "completions", len(completions))
		return nil
	}
}

func (s *Store) fetch(ctx context.Context) ([]models.Habit, []models.Completion, error) {
	var (
		habits      []models.Habit
		completions []models.Completion
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		habits, err = s.records.ListHabits(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		completions, err = s.records.ListCompletions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return habits, completions, nil
}

// bump marks that the remote state changed under any in-flight fetch
func (s *Store) bump() {
	s.mu.Lock()
	s.gen++
	s.mu.Unlock()
}

// Assemble attaches each habit's completion dates and streak. Habit order is
// preserved; completions for unknown habits are dropped.
func Assemble(habits []models.Habit, completions []models.Completion, loc *time.Location) []models.Habit {
	byHabit := make(map[string]map[string]struct{}, len(habits))
	for _, c := range completions {
		day := utils.CompletionDay(c.CompletedAt, loc)
		set, ok := byHabit[c.HabitID]
		if !ok {
			set = make(map[string]struct{})
			byHabit[c.HabitID] = set
		}
		set[day] = struct{}{}
	}

	out := make([]models.Habit, len(habits))
	for i, h := range habits {
		dates := make([]string, 0, len(byHabit[h.ID]))
		for day := range byHabit[h.ID] {
			dates = append(dates, day)
		}
		sort.Strings(dates)

		h.CompletedDates = dates
		h.Streak = streak.Compute(dates, h.Frequency)
		out[i] = h
	}
	return out
}

// Toggle flips today's completion for habitID and re-fetches. It returns
// whether the habit is now completed today. Concurrent toggles of the same
// habit are rejected with ErrToggleInProgress.
func (s *Store) Toggle(ctx context.Context, habitID string) (bool, error) {
	s.mu.Lock()
	habit, ok := s.findLocked(habitID)
	if !ok {
		s.mu.Unlock()
		return false, ErrHabitNotFound
	}
	if _, busy := s.toggling[habitID]; busy {
		s.mu.Unlock()
		return habit.CompletedOn(s.Today()), ErrToggleInProgress
	}
	s.toggling[habitID] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.toggling, habitID)
		s.mu.Unlock()
	}()

	today := s.Today()
	completed := habit.CompletedOn(today)

	var err error
	if completed {
		err = s.records.DeleteCompletion(ctx, habitID, today)
	} else {
		err = s.records.InsertCompletion(ctx, habitID, today)
	}
	if err != nil {
		logger.Error("Error toggling habit", "habit", habitID, "error", err)
		return completed, errors.NewRemote("update habit completion", err)
	}
	s.bump()
	logger.Info("Toggled habit", "habit", habitID, "day", today, "completed", !completed)

	if err := s.Refresh(ctx); err != nil {
		return !completed, err
	}
	return !completed, nil
}

// Add creates a habit. Blank names are rejected before any remote call.
func (s *Store) Add(ctx context.Context, name string, freq models.Frequency) (models.Habit, error) {
	if err := validation.ValidateHabit(name, freq); err != nil {
		return models.Habit{}, err
	}

	user, err := s.auth.GetUser(ctx)
	if err != nil {
		logger.Error("Error adding habit", "error", err)
		return models.Habit{}, errors.NewRemote("get user", err)
	}
	if user == nil {
		return models.Habit{}, &errors.AuthRequiredError{Action: "add habits"}
	}

	created, err := s.records.InsertHabit(ctx, models.NewHabit{
		Name:      strings.TrimSpace(name),
		Frequency: freq,
		UserID:    user.ID,
	})
	if err != nil {
		logger.Error("Error adding habit", "error", err)
		return models.Habit{}, errors.NewRemote("add habit", err)
	}

	// a new habit has no completions, so no re-fetch
	created.CompletedDates = []string{}
	created.Streak = 0

	s.mu.Lock()
	// a refresh that landed after the insert may already hold it
	if _, ok := s.findLocked(created.ID); !ok {
		s.habits = append(s.habits, created)
	}
	s.gen++
	s.mu.Unlock()

	logger.Info("Added habit", "habit", created.ID, "name", created.Name, "frequency", created.Frequency)
	return created, nil
}

// Delete removes the habit remotely, then from the in-memory list.
func (s *Store) Delete(ctx context.Context, habitID string) error {
	if err := s.records.DeleteHabit(ctx, habitID); err != nil {
		logger.Error("Error deleting habit", "habit", habitID, "error", err)
		return errors.NewRemote("delete habit", err)
	}

	s.mu.Lock()
	kept := s.habits[:0]
	for _, h := range s.habits {
		if h.ID != habitID {
			kept = append(kept, h)
		}
	}
	s.habits = kept
	s.gen++
	s.mu.Unlock()

	logger.Info("Deleted habit", "habit", habitID)
	return nil
}

// Stats aggregates the current list against today
func (s *Store) Stats() models.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ComputeStats(s.habits, s.Today())
}

// ComputeStats derives totals, today's completions, the longest streak and
// the completion rate (0 when there are no habits).
func ComputeStats(habits []models.Habit, today string) models.Stats {
	stats := models.Stats{TotalHabits: len(habits)}
	for _, h := range habits {
		if h.CompletedOn(today) {
			stats.CompletedToday++
		}
		if h.Streak > stats.LongestStreak {
			stats.LongestStreak = h.Streak
		}
	}
	if stats.TotalHabits > 0 {
		stats.CompletionRate = int(math.Round(float64(stats.CompletedToday) / float64(stats.TotalHabits) * 100))
	}
	return stats
}

func (s *Store) findLocked(id string) (models.Habit, bool) {
	for _, h := range s.habits {
		if h.ID == id {
			return h, true
		}
	}
	return models.Habit{}, false
}
