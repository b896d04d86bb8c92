package supabase

import (
	"context"
	"net/http"
	"net/url"

	"github.com/julianstephens/streakline/internal/constants"
	"github.com/julianstephens/streakline/internal/errors"
	"github.com/julianstephens/streakline/internal/logger"
	"github.com/julianstephens/streakline/internal/models"
	"github.com/julianstephens/streakline/internal/utils"
)

const restPrefix = "/rest/v1/"

type completionRow struct {
	HabitID     string `json:"habit_id"`
	CompletedAt string `json:"completed_at"`
}

func (c *Client) ListHabits(ctx context.Context) ([]models.Habit, error) {
	var habits []models.Habit
	err := c.do(ctx, c.rest, request{
		op:     "list habits",
		method: http.MethodGet,
		path:   restPrefix + constants.HabitsTable,
		query:  url.Values{"select": {"*"}, "order": {"created_at.asc"}},
	}, &habits)
	if err != nil {
		return nil, err
	}
	if habits == nil {
		habits = []models.Habit{}
	}
	return habits, nil
}

func (c *Client) InsertHabit(ctx context.Context, habit models.NewHabit) (models.Habit, error) {
	var created []models.Habit
	err := c.do(ctx, c.rest, request{
		op:     "insert habit",
		method: http.MethodPost,
		path:   restPrefix + constants.HabitsTable,
		body: []map[string]any{{
			"name":      habit.Name,
			"frequency": habit.Frequency,
			"user_id":   habit.UserID,
		}},
		header: http.Header{"Prefer": {"return=representation"}},
	}, &created)
	if err != nil {
		return models.Habit{}, err
	}
	if len(created) == 0 {
		return models.Habit{}, &errors.RemoteError{Op: "insert habit", Status: http.StatusBadGateway, Message: "insert returned no rows"}
	}
	return created[0], nil
}

// DeleteHabit relies on the foreign key cascade to remove completions
func (c *Client) DeleteHabit(ctx context.Context, id string) error {
	return c.do(ctx, c.rest, request{
		op:     "delete habit",
		method: http.MethodDelete,
		path:   restPrefix + constants.HabitsTable,
		query:  url.Values{"id": {"eq." + id}},
	}, nil)
}

func (c *Client) ListCompletions(ctx context.Context) ([]models.Completion, error) {
	var rows []completionRow
	err := c.do(ctx, c.rest, request{
		op:     "list completions",
		method: http.MethodGet,
		path:   restPrefix + constants.CompletionsTable,
		query:  url.Values{"select": {"habit_id,completed_at"}},
	}, &rows)
	if err != nil {
		return nil, err
	}

	completions := make([]models.Completion, 0, len(rows))
	for _, row := range rows {
		t, err := utils.ParseTimestamp(row.CompletedAt)
		if err != nil {
			logger.Warn("Skipping completion with unreadable date", "habit", row.HabitID, "completed_at", row.CompletedAt)
			continue
		}
		completions = append(completions, models.Completion{HabitID: row.HabitID, CompletedAt: t})
	}
	return completions, nil
}

// InsertCompletion upserts on (habit_id, completed_at) so a repeated toggle
// never creates a duplicate row.
func (c *Client) InsertCompletion(ctx context.Context, habitID, day string) error {
	return c.do(ctx, c.rest, request{
		op:     "insert completion",
		method: http.MethodPost,
		path:   restPrefix + constants.CompletionsTable,
		query:  url.Values{"on_conflict": {"habit_id,completed_at"}},
		body:   []completionRow{{HabitID: habitID, CompletedAt: day}},
		header: http.Header{"Prefer": {"resolution=ignore-duplicates,return=minimal"}},
	}, nil)
}

func (c *Client) DeleteCompletion(ctx context.Context, habitID, day string) error {
	return c.do(ctx, c.rest, request{
		op:     "delete completion",
		method: http.MethodDelete,
		path:   restPrefix + constants.CompletionsTable,
		query:  url.Values{"habit_id": {"eq." + habitID}, "completed_at": {"eq." + day}},
	}, nil)
}
