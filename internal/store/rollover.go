package store

import (
	"time"

	"github.com/fribble186/todos/internal/model"
)

// normalizeRollover applies the daily reset to recurring tasks in place:
// a loop task completed on a previous day loses its completion and is
// marked changed, so it reappears as pending. A completion from today is
// kept ("done for today"), as is an absent one. The pass is idempotent
// within a calendar day.
//
// Day equality is by day-of-month, matching the reference behavior; the
// midnight re-normalization tick keeps the comparison honest across
// longer idle periods.
func normalizeRollover(tasks []model.Task, now time.Time) bool {
	changed := false
	for i := range tasks {
		t := &tasks[i]
		if !t.Loop || t.DoneTime == "" {
			continue
		}
		if doneAt, ok := t.DoneAt(); ok && doneAt.Day() == now.Day() {
			continue
		}
		// Done on a previous day, or an unreadable timestamp: reset.
		t.DoneTime = ""
		t.Status = model.StatusChange
		changed = true
	}
	return changed
}
