package store

import (
	"time"

	"github.com/fribble186/todos/internal/model"
	"github.com/fribble186/todos/internal/window"
)

// The mutation surface consumed by the view. Each operation reads the
// current collection, mutates a copy, and assigns it back through
// SetTasks. Lookups by an unknown id are silent no-ops: an index miss
// must never raise.

func (s *Store) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now()
}

// Add appends a new task with a freshly computed id and the deadline of
// the currently selected window, and returns it.
func (s *Store) Add(content string, w window.Window) model.Task {
	tasks := s.Tasks()
	t := model.Task{
		ID:      model.NextID(tasks),
		Content: content,
		EndTime: w.Deadline(s.clock()),
		Loop:    w == window.Loop,
		Status:  model.StatusAdd,
	}
	s.SetTasks(append(tasks, t))
	return t
}

// MarkDone stamps the task with the current time.
func (s *Store) MarkDone(id string) {
	tasks := s.Tasks()
	i := model.IndexByID(tasks, id)
	if i < 0 {
		return
	}
	tasks[i].DoneTime = s.clock().Format(model.TimeLayout)
	tasks[i].Status = model.StatusChange
	s.SetTasks(tasks)
}

// MarkUndone clears the completion timestamp.
func (s *Store) MarkUndone(id string) {
	tasks := s.Tasks()
	i := model.IndexByID(tasks, id)
	if i < 0 {
		return
	}
	tasks[i].DoneTime = ""
	tasks[i].Status = model.StatusChange
	s.SetTasks(tasks)
}

// Delete tombstones the task. The record stays in the collection and is
// hidden from every view; nothing in this core removes it physically.
func (s *Store) Delete(id string) {
	tasks := s.Tasks()
	i := model.IndexByID(tasks, id)
	if i < 0 {
		return
	}
	tasks[i].IsDelete = true
	tasks[i].Status = model.StatusDelete
	s.SetTasks(tasks)
}

// Reschedule moves the task's deadline to the one implied by the chosen
// window. Choosing the recurring option turns the task into a daily loop
// with today's end-of-day deadline; any other choice turns looping off.
func (s *Store) Reschedule(id string, w window.Window) {
	tasks := s.Tasks()
	i := model.IndexByID(tasks, id)
	if i < 0 {
		return
	}
	tasks[i].EndTime = w.Deadline(s.clock())
	tasks[i].Loop = w == window.Loop
	tasks[i].Status = model.StatusChange
	s.SetTasks(tasks)
}
