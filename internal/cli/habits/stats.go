package habits

import (
	"github.com/julianstephens/streakline/internal/cli"
)

type StatsCmd struct{}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	a, err := ctx.SignedInApp("view stats")
	if err != nil {
		return err
	}

	stats := a.Habits().Stats()
	ctx.Printf("Total habits:     %d\n", stats.TotalHabits)
	ctx.Printf("Completed today:  %d\n", stats.CompletedToday)
	ctx.Printf("Longest streak:   %d\n", stats.LongestStreak)
	ctx.Printf("Completion rate:  %d%%\n", stats.CompletionRate)
	return nil
}
