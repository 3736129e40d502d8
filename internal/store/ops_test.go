package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fribble186/todos/internal/model"
	"github.com/fribble186/todos/internal/window"
)

func TestAdd_IDAssignment(t *testing.T) {
	s := newStoreForTests(t, newMemKV())
	s.SetClock(fixedClock(2024, 6, 10, 9))

	first := s.Add("first", window.All)
	assert.Equal(t, "0", first.ID)

	s.SetTasks([]model.Task{{ID: "0", EndTime: model.InfiniteEnd}, {ID: "2", EndTime: model.InfiniteEnd}})
	added := s.Add("third", window.All)
	assert.Equal(t, "3", added.ID)
}

func TestAdd_UsesWindowDeadlineAndStatus(t *testing.T) {
	s := newStoreForTests(t, newMemKV())
	s.SetClock(fixedClock(2024, 6, 10, 9))

	added := s.Add("write report", window.Day)

	assert.Equal(t, "2024-06-10 23:59:59", added.EndTime)
	assert.Equal(t, model.StatusAdd, added.Status)
	assert.False(t, added.Loop)

	tasks := s.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, added, tasks[0])
}

func TestMarkDone_ThenUndone(t *testing.T) {
	s := newStoreForTests(t, newMemKV())
	s.SetClock(fixedClock(2024, 6, 10, 9))

	added := s.Add("write report", window.Day)

	s.MarkDone(added.ID)
	tasks := s.Tasks()
	assert.Equal(t, time.Date(2024, 6, 10, 9, 0, 0, 0, time.Local).Format(model.TimeLayout), tasks[0].DoneTime)
	assert.Equal(t, model.StatusChange, tasks[0].Status)

	s.MarkUndone(added.ID)
	tasks = s.Tasks()
	assert.Empty(t, tasks[0].DoneTime)
	assert.Equal(t, model.StatusChange, tasks[0].Status)
}

func TestAddDoneDelete_TombstoneKeepsDoneTime(t *testing.T) {
	s := newStoreForTests(t, newMemKV())
	s.SetClock(fixedClock(2024, 6, 10, 9))

	added := s.Add("write report", window.Day)
	s.MarkDone(added.ID)
	s.Delete(added.ID)

	tasks := s.Tasks()
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].IsDelete)
	assert.NotEmpty(t, tasks[0].DoneTime, "delete must not clear doneTime")
	assert.Equal(t, model.StatusDelete, tasks[0].Status)
}

func TestOperations_UnknownIDIsNoOp(t *testing.T) {
	s := newStoreForTests(t, newMemKV())
	s.SetClock(fixedClock(2024, 6, 10, 9))
	s.Add("only", window.Day)
	before := s.Tasks()
	rev := s.Revision()

	s.MarkDone("99")
	s.MarkUndone("99")
	s.Delete("99")
	s.Reschedule("99", window.Week)

	assert.Equal(t, before, s.Tasks())
	assert.Equal(t, rev, s.Revision(), "no-ops must not rewrite state")
}

func TestReschedule_WindowDeadlines(t *testing.T) {
	s := newStoreForTests(t, newMemKV())
	// 2024-06-10 is a Monday.
	s.SetClock(fixedClock(2024, 6, 10, 9))
	added := s.Add("errand", window.Day)

	s.Reschedule(added.ID, window.Week)
	tasks := s.Tasks()
	assert.Equal(t, "2024-06-16 23:59:59", tasks[0].EndTime)
	assert.False(t, tasks[0].Loop)
	assert.Equal(t, model.StatusChange, tasks[0].Status)

	s.Reschedule(added.ID, window.All)
	assert.Equal(t, model.InfiniteEnd, s.Tasks()[0].EndTime)
}

func TestReschedule_LoopOptionTurnsOnDailyRecurrence(t *testing.T) {
	s := newStoreForTests(t, newMemKV())
	s.SetClock(fixedClock(2024, 6, 10, 9))
	added := s.Add("stretch", window.Month)

	s.Reschedule(added.ID, window.Loop)
	tasks := s.Tasks()
	assert.True(t, tasks[0].Loop)
	assert.Equal(t, "2024-06-10 23:59:59", tasks[0].EndTime)

	// Rescheduling away turns recurrence off again.
	s.Reschedule(added.ID, window.Year)
	assert.False(t, s.Tasks()[0].Loop)
}
