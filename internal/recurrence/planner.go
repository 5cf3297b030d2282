// internal/recurrence/planner.go
package recurrence

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/unclebandit/campaign-engine/internal/model"
)

// The planner is deliberately pure: NextTrigger reads no clock and keeps no
// state, so identical inputs always produce identical outputs. The single
// persisted next_run field is a display/ordering convenience; everything else
// recomputes from the cadence.

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NextTrigger returns the first firing time of the cadence strictly after
// `after`, evaluated in loc.
func NextTrigger(c model.Cadence, after time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	after = after.In(loc)

	switch c.Kind {
	case model.CadenceDaily:
		return nextDaily(c, after), nil
	case model.CadenceWeekly:
		return nextWeekly(c, after), nil
	case model.CadenceMonthly:
		return nextMonthly(c, after), nil
	case model.CadenceCustom:
		if c.CronExpr != "" {
			sched, err := cronParser.Parse(c.CronExpr)
			if err != nil {
				return time.Time{}, fmt.Errorf("bad cron expression %q: %w", c.CronExpr, err)
			}
			// cron's Next is already strictly after its argument
			return sched.Next(after), nil
		}
		if len(c.Slots) == 0 {
			return time.Time{}, fmt.Errorf("custom cadence needs slots or a cron expression")
		}
		return nextSlot(c.Slots, after), nil
	default:
		return time.Time{}, fmt.Errorf("unknown cadence kind %q", c.Kind)
	}
}

func nextDaily(c model.Cadence, after time.Time) time.Time {
	t := time.Date(after.Year(), after.Month(), after.Day(), c.Hour, c.Minute, 0, 0, after.Location())
	if !t.After(after) {
		// today's slot has passed (or lands exactly on the boundary): tomorrow
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func nextWeekly(c model.Cadence, after time.Time) time.Time {
	days := (int(c.Weekday) - int(after.Weekday()) + 7) % 7
	t := time.Date(after.Year(), after.Month(), after.Day(), c.Hour, c.Minute, 0, 0, after.Location())
	t = t.AddDate(0, 0, days)
	if !t.After(after) {
		t = t.AddDate(0, 0, 7)
	}
	return t
}

func nextMonthly(c model.Cadence, after time.Time) time.Time {
	day := c.MonthDay
	if day <= 0 {
		day = 1
	}
	t := monthlyAt(after.Year(), after.Month(), day, c.Hour, c.Minute, after.Location())
	if !t.After(after) {
		y, m := after.Year(), after.Month()+1
		t = monthlyAt(y, m, day, c.Hour, c.Minute, after.Location())
	}
	return t
}

// monthlyAt clamps day to the month's length so a day-31 cadence still fires
// in February.
func monthlyAt(year int, month time.Month, day, hour, minute int, loc *time.Location) time.Time {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
	if day > last {
		day = last
	}
	return time.Date(year, month, day, hour, minute, 0, 0, loc)
}

func nextSlot(slots []model.WeekdaySlot, after time.Time) time.Time {
	var best time.Time
	for _, s := range slots {
		days := (int(s.Weekday) - int(after.Weekday()) + 7) % 7
		t := time.Date(after.Year(), after.Month(), after.Day(), s.Hour, s.Minute, 0, 0, after.Location())
		t = t.AddDate(0, 0, days)
		if !t.After(after) {
			// none of this week's occurrence remains: wrap to next week
			t = t.AddDate(0, 0, 7)
		}
		if best.IsZero() || t.Before(best) {
			best = t
		}
	}
	return best
}

// Validate rejects cadences the planner cannot step. Used at campaign
// creation so malformed definitions never reach the scheduler.
func Validate(c model.Cadence) error {
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 {
		return fmt.Errorf("time of day %02d:%02d out of range", c.Hour, c.Minute)
	}
	switch c.Kind {
	case model.CadenceDaily, model.CadenceWeekly:
		return nil
	case model.CadenceMonthly:
		if c.MonthDay < 0 || c.MonthDay > 31 {
			return fmt.Errorf("month day %d out of range", c.MonthDay)
		}
		return nil
	case model.CadenceCustom:
		if c.CronExpr != "" {
			_, err := cronParser.Parse(c.CronExpr)
			return err
		}
		if len(c.Slots) == 0 {
			return fmt.Errorf("custom cadence needs slots or a cron expression")
		}
		for _, s := range c.Slots {
			if s.Hour < 0 || s.Hour > 23 || s.Minute < 0 || s.Minute > 59 {
				return fmt.Errorf("slot time %02d:%02d out of range", s.Hour, s.Minute)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown cadence kind %q", c.Kind)
	}
}
