// Package window derives the visible subset of a task collection and the
// default deadline for new tasks from a named time span and the current
// wall-clock instant. It is a pure derivation: callers recompute whenever
// the selected window or the underlying collection changes.
package window

import (
	"fmt"
	"sort"
	"time"

	"github.com/fribble186/todos/internal/model"
)

type Window string

const (
	Day   Window = "day"
	Week  Window = "week"
	Month Window = "month"
	Year  Window = "year"
	All   Window = "all"

	// Loop is the recurring option offered on reschedule. It behaves like
	// Day for deadlines; the store's rollover handling takes over from
	// there.
	Loop Window = "loop"
)

// Parse maps a window key to a Window. An unknown key is a programming
// error on the caller's side, so it is reported rather than coerced.
func Parse(s string) (Window, error) {
	switch Window(s) {
	case Day, Week, Month, Year, All, Loop:
		return Window(s), nil
	}
	return "", fmt.Errorf("unknown window key %q", s)
}

// Deadline returns the endTime assigned to tasks created or rescheduled
// under this window, evaluated at now:
//
//	day/loop -> today 23:59:59
//	week     -> upcoming Sunday 23:59:59
//	month    -> last day of the current month 23:59:59
//	year     -> Dec 31 23:59:59
//	all      -> "Infinite"
func (w Window) Deadline(now time.Time) string {
	switch w {
	case Day, Loop:
		return endOfDay(now).Format(model.TimeLayout)
	case Week:
		days := (7 - int(now.Weekday())) % 7 // 0 when today is Sunday
		return endOfDay(now.AddDate(0, 0, days)).Format(model.TimeLayout)
	case Month:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		last := first.AddDate(0, 1, -1)
		return endOfDay(last).Format(model.TimeLayout)
	case Year:
		return endOfDay(time.Date(now.Year(), 12, 31, 0, 0, 0, 0, now.Location())).Format(model.TimeLayout)
	default:
		return model.InfiniteEnd
	}
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// bounds returns the window's half-open day bounds at now. ok is false
// for All, which has no bounds. Membership is strictly inside the bounds:
// strictly after the first day's 00:00:00 and strictly before the last
// day's 24:00:00.
func (w Window) bounds(now time.Time) (start, end time.Time, ok bool) {
	switch w {
	case Day, Loop:
		start = startOfDay(now)
		return start, start.AddDate(0, 0, 1), true
	case Week:
		monday := startOfDay(now).AddDate(0, 0, -((int(now.Weekday()) + 6) % 7))
		return monday, monday.AddDate(0, 0, 7), true
	case Month:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, 0), true
	case Year:
		start = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(1, 0, 0), true
	}
	return time.Time{}, time.Time{}, false
}

// Contains reports whether a deadline falls inside the window at now.
// All admits every deadline, including the Infinite sentinel and values
// that do not parse. Bounded windows admit only parseable deadlines
// strictly between the bounds.
func (w Window) Contains(now time.Time, endTime string) bool {
	start, end, ok := w.bounds(now)
	if !ok {
		return true
	}
	ts, err := time.ParseInLocation(model.TimeLayout, endTime, now.Location())
	if err != nil {
		return false
	}
	return ts.After(start) && ts.Before(end)
}

// Visible returns the ordered subset of tasks shown for the window at
// now. Tombstoned records are dropped before membership is evaluated.
// Incomplete tasks sort before completed ones; ties keep their collection
// order.
func Visible(now time.Time, w Window, tasks []model.Task) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.IsDelete {
			continue
		}
		if !w.Contains(now, t.EndTime) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return !out[i].Done() && out[j].Done()
	})
	return out
}
