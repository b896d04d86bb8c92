package stats

import (
	"strings"
	"testing"

	"github.com/julianstephens/streakline/internal/models"
)

func TestView(t *testing.T) {
	out := View(models.Stats{TotalHabits: 3, CompletedToday: 2, LongestStreak: 7, CompletionRate: 67}, 100)

	for _, want := range []string{"Total Habits", "Completed Today", "Longest Streak", "Completion Rate", "67%", "7"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats view missing %q:\n%s", want, out)
		}
	}
}

func TestViewNarrowWidth(t *testing.T) {
	out := View(models.Stats{}, 0)
	if !strings.Contains(out, "0%") {
		t.Errorf("expected zero rate:\n%s", out)
	}
}
