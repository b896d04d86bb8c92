package habits

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/streakline/internal/cli"
	"github.com/julianstephens/streakline/internal/constants"
	"github.com/julianstephens/streakline/internal/habitstore"
	"github.com/julianstephens/streakline/internal/models"
	"github.com/julianstephens/streakline/internal/validation"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	List   HabitListCmd   `cmd:"" help:"List habits with today's status and streaks."`
	Toggle HabitToggleCmd `cmd:"" help:"Mark or unmark a habit as done today."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit and its history."`
	Log    HabitLogCmd    `cmd:"" help:"Show habit log (ASCII history)."`
}

type HabitAddCmd struct {
	Name      string `arg:"" help:"Habit name."`
	Frequency string `help:"How often the habit recurs (${enum})." enum:"daily,weekly,monthly" default:"daily" short:"f"`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	// reject bad input before opening the backend
	freq, err := models.ParseFrequency(c.Frequency)
	if err != nil {
		return err
	}
	if err := validation.ValidateHabit(c.Name, freq); err != nil {
		return err
	}

	a, err := ctx.SignedInApp("add habits")
	if err != nil {
		return err
	}

	habit, err := a.Habits().Add(ctx.Ctx(), c.Name, freq)
	if err != nil {
		return err
	}
	ctx.Printf("Added habit: %s (%s)\n", habit.Name, strings.ToLower(habit.Frequency.Label()))
	return nil
}

type HabitListCmd struct{}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	a, err := ctx.SignedInApp("list habits")
	if err != nil {
		return err
	}

	store := a.Habits()
	habits := store.Habits()
	if len(habits) == 0 {
		ctx.Println("No habits added yet.")
		return nil
	}

	today := store.Today()
	for _, h := range habits {
		marker := "○"
		if h.CompletedOn(today) {
			marker = "✓"
		}
		ctx.Printf("%s %-24s streak %-4d %s\n", marker, h.Name, h.Streak, h.Frequency)
	}
	return nil
}

type HabitToggleCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
}

func (c *HabitToggleCmd) Run(ctx *cli.Context) error {
	a, err := ctx.SignedInApp("update habits")
	if err != nil {
		return err
	}

	store := a.Habits()
	habit, err := find(store, c.Habit)
	if err != nil {
		return err
	}

	completed, err := store.Toggle(ctx.Ctx(), habit.ID)
	if err != nil {
		return err
	}
	updated, _ := store.Habit(habit.ID)
	if completed {
		ctx.Printf("Marked %q done for %s (streak %d)\n", habit.Name, store.Today(), updated.Streak)
	} else {
		ctx.Printf("Unmarked %q for %s (streak %d)\n", habit.Name, store.Today(), updated.Streak)
	}
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit name or ID."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	a, err := ctx.SignedInApp("delete habits")
	if err != nil {
		return err
	}

	store := a.Habits()
	habit, err := find(store, c.Habit)
	if err != nil {
		return err
	}
	if err := store.Delete(ctx.Ctx(), habit.ID); err != nil {
		return err
	}
	ctx.Printf("Deleted habit: %s\n", habit.Name)
	return nil
}

// find resolves an exact ID, then a case-insensitive name
func find(store *habitstore.Store, ref string) (models.Habit, error) {
	if h, ok := store.Habit(ref); ok {
		return h, nil
	}

	var matches []models.Habit
	for _, h := range store.Habits() {
		if strings.EqualFold(h.Name, strings.TrimSpace(ref)) {
			matches = append(matches, h)
		}
	}
	switch len(matches) {
	case 0:
		return models.Habit{}, fmt.Errorf("habit %q not found", ref)
	case 1:
		return matches[0], nil
	default:
		return models.Habit{}, fmt.Errorf("%d habits are named %q, use the habit ID instead", len(matches), ref)
	}
}

type HabitLogCmd struct {
	Days  int    `help:"Number of days to show." default:"14"`
	Habit string `help:"Show log for specific habit only."`
}

const logNameWidth = 20

func (c *HabitLogCmd) Run(ctx *cli.Context) error {
	a, err := ctx.SignedInApp("view habit history")
	if err != nil {
		return err
	}
	if c.Days <= 0 {
		c.Days = constants.DefaultLogDays
	}

	store := a.Habits()
	habits := store.Habits()
	if c.Habit != "" {
		h, err := find(store, c.Habit)
		if err != nil {
			return err
		}
		habits = []models.Habit{h}
	}
	if len(habits) == 0 {
		ctx.Println("No habits added yet.")
		return nil
	}

	end, err := time.Parse(constants.DateFormat, store.Today())
	if err != nil {
		return err
	}
	start := end.AddDate(0, 0, -(c.Days - 1))

	ctx.Printf("Habit log (last %d days):\n\n", c.Days)

	var b strings.Builder
	b.WriteString(pad("Habit", logNameWidth))
	for i := 0; i < c.Days; i++ {
		fmt.Fprintf(&b, " %5s", start.AddDate(0, 0, i).Format("01/02"))
	}
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", logNameWidth+6*c.Days))
	b.WriteString("\n")

	for _, h := range habits {
		b.WriteString(pad(h.Name, logNameWidth))
		for i := 0; i < c.Days; i++ {
			if h.CompletedOn(start.AddDate(0, 0, i).Format(constants.DateFormat)) {
				b.WriteString("  x   ")
			} else {
				b.WriteString("  .   ")
			}
		}
		b.WriteString("\n")
	}
	ctx.Printf("%s", b.String())
	return nil
}

// pad truncates or pads s to width runes
func pad(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width-3]) + "..."
	}
	return s + strings.Repeat(" ", width-len(r))
}
