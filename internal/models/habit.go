package models

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is the recurrence granularity used to judge consecutive completions
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Frequencies lists the supported frequencies in display order
var Frequencies = []Frequency{FrequencyDaily, FrequencyWeekly, FrequencyMonthly}

// Valid reports whether f is a supported frequency
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// Label returns the human-readable label shown in forms
func (f Frequency) Label() string {
	switch f {
	case FrequencyDaily:
		return "Every day"
	case FrequencyWeekly:
		return "Every week"
	case FrequencyMonthly:
		return "Every month"
	default:
		return string(f)
	}
}

// ParseFrequency parses a frequency name, case-insensitively
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("invalid frequency: %s", s)
	}
	return f, nil
}

// Habit represents a recurring practice to track.
// CompletedDates and Streak are derived on the client and never persisted.
type Habit struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Frequency Frequency `json:"frequency"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	CompletedDates []string `json:"-"` // YYYY-MM-DD, ascending
	Streak         int      `json:"-"`
}

// CompletedOn reports whether the habit has a completion on day (YYYY-MM-DD)
func (h Habit) CompletedOn(day string) bool {
	for _, d := range h.CompletedDates {
		if d == day {
			return true
		}
	}
	return false
}

// NewHabit holds the fields sent when creating a habit
type NewHabit struct {
	Name      string    `json:"name"`
	Frequency Frequency `json:"frequency"`
	UserID    string    `json:"user_id"`
}

// Completion records that a habit was performed on a calendar day
type Completion struct {
	HabitID     string    `json:"habit_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// Stats is the aggregate view over the in-memory habit collection
type Stats struct {
	TotalHabits    int `json:"total_habits"`
	CompletedToday int `json:"completed_today"`
	LongestStreak  int `json:"longest_streak"`
	CompletionRate int `json:"completion_rate"`
}
