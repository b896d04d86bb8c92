package sqldb

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/julianstephens/streakline/internal/constants"
	"github.com/julianstephens/streakline/internal/errors"
	"github.com/julianstephens/streakline/internal/models"
	"github.com/julianstephens/streakline/internal/utils"
)

func (s *Store) ListHabits(ctx context.Context) ([]models.Habit, error) {
	userID, err := s.currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, name, frequency, user_id, created_at
		FROM habits WHERE user_id = ?
		ORDER BY created_at ASC, id ASC`), userID)
	if err != nil {
		return nil, errors.NewRemote("list habits", err)
	}
	defer rows.Close()

	habits := []models.Habit{}
	for rows.Next() {
		var (
			h         models.Habit
			freq      string
			createdAt timeValue
		)
		if err := rows.Scan(&h.ID, &h.Name, &freq, &h.UserID, &createdAt); err != nil {
			return nil, errors.NewRemote("list habits", err)
		}
		h.Frequency = models.Frequency(freq)
		h.CreatedAt = createdAt.Time
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewRemote("list habits", err)
	}
	return habits, nil
}

func (s *Store) InsertHabit(ctx context.Context, habit models.NewHabit) (models.Habit, error) {
	userID, err := s.currentUserID(ctx)
	if err != nil {
		return models.Habit{}, err
	}
	if habit.UserID != userID {
		return models.Habit{}, policyViolation("insert habit", constants.HabitsTable)
	}

	createdAt := s.timestamp()
	h := models.Habit{
		ID:        uuid.NewString(),
		Name:      habit.Name,
		Frequency: habit.Frequency,
		UserID:    userID,
	}
	_, err = s.db.ExecContext(ctx,
		s.q(`INSERT INTO habits (id, user_id, name, frequency, created_at) VALUES (?, ?, ?, ?, ?)`),
		h.ID, h.UserID, h.Name, string(h.Frequency), createdAt)
	if err != nil {
		return models.Habit{}, errors.NewRemote("insert habit", err)
	}
	h.CreatedAt, _ = parseStamp(createdAt)
	return h, nil
}

// DeleteHabit removes the habit's completions and the habit in one
// transaction. Deleting a missing habit is not an error.
func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	userID, err := s.currentUserID(ctx)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewRemote("delete habit", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		s.q(`DELETE FROM habit_completions WHERE habit_id = ? AND user_id = ?`), id, userID); err != nil {
		return errors.NewRemote("delete habit", err)
	}
	if _, err := tx.ExecContext(ctx,
		s.q(`DELETE FROM habits WHERE id = ? AND user_id = ?`), id, userID); err != nil {
		return errors.NewRemote("delete habit", err)
	}
	if err := tx.Commit(); err != nil {
		return errors.NewRemote("delete habit", err)
	}
	return nil
}

func (s *Store) ListCompletions(ctx context.Context) ([]models.Completion, error) {
	userID, err := s.currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT habit_id, completed_at
		FROM habit_completions WHERE user_id = ?
		ORDER BY completed_at ASC`), userID)
	if err != nil {
		return nil, errors.NewRemote("list completions", err)
	}
	defer rows.Close()

	completions := []models.Completion{}
	for rows.Next() {
		var (
			c           models.Completion
			completedAt timeValue
		)
		if err := rows.Scan(&c.HabitID, &completedAt); err != nil {
			return nil, errors.NewRemote("list completions", err)
		}
		c.CompletedAt = completedAt.Time
		completions = append(completions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewRemote("list completions", err)
	}
	return completions, nil
}

// InsertCompletion records day for the habit. Repeating an existing
// (habit, day) pair is a no-op.
func (s *Store) InsertCompletion(ctx context.Context, habitID, day string) error {
	userID, err := s.currentUserID(ctx)
	if err != nil {
		return err
	}
	if _, err := utils.ParseDate(day); err != nil {
		return invalidDate("insert completion", day)
	}

	var owned int
	err = s.db.QueryRowContext(ctx,
		s.q(`SELECT COUNT(*) FROM habits WHERE id = ? AND user_id = ?`), habitID, userID).Scan(&owned)
	if err != nil {
		return errors.NewRemote("insert completion", err)
	}
	if owned == 0 {
		return &errors.RemoteError{
			Op:      "insert completion",
			Status:  http.StatusConflict,
			Code:    "23503",
			Message: fmt.Sprintf("habit %s does not exist", habitID),
		}
	}

	_, err = s.db.ExecContext(ctx, s.q(`
		INSERT INTO habit_completions (id, habit_id, user_id, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (habit_id, completed_at) DO NOTHING`),
		uuid.NewString(), habitID, userID, day, s.timestamp())
	if err != nil {
		return errors.NewRemote("insert completion", err)
	}
	return nil
}

func (s *Store) DeleteCompletion(ctx context.Context, habitID, day string) error {
	userID, err := s.currentUserID(ctx)
	if err != nil {
		return err
	}
	if _, err := utils.ParseDate(day); err != nil {
		return invalidDate("delete completion", day)
	}

	_, err = s.db.ExecContext(ctx,
		s.q(`DELETE FROM habit_completions WHERE habit_id = ? AND completed_at = ? AND user_id = ?`),
		habitID, day, userID)
	if err != nil {
		return errors.NewRemote("delete completion", err)
	}
	return nil
}

func policyViolation(op, table string) error {
	return &errors.RemoteError{
		Op:      op,
		Status:  http.StatusForbidden,
		Code:    "42501",
		Message: fmt.Sprintf("new row violates row-level security policy for table %q", table),
	}
}

func invalidDate(op, day string) error {
	return &errors.RemoteError{
		Op:      op,
		Status:  http.StatusBadRequest,
		Code:    "22007",
		Message: fmt.Sprintf("invalid input syntax for type date: %q", day),
	}
}
