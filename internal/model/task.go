package model

import (
	"strconv"
	"time"
)

// TimeLayout is the wire and storage format for task timestamps.
const TimeLayout = "2006-01-02 15:04:05"

// InfiniteEnd is the sentinel deadline for tasks that never expire.
const InfiniteEnd = "Infinite"

// Status marks a record's pending sync intent at the moment it was last
// mutated locally. It is informational: the replace-sync protocol ships
// the whole collection either way, but the intents are preserved for a
// future incremental sync.
type Status string

const (
	StatusAdd    Status = "ADD"
	StatusDelete Status = "DELETE"
	StatusChange Status = "CHANGE"
)

type Task struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	EndTime  string `json:"endTime"`
	DoneTime string `json:"doneTime,omitempty"`
	Loop     bool   `json:"loop,omitempty"`
	Status   Status `json:"status,omitempty"`
	IsDelete bool   `json:"isDelete,omitempty"`
}

// Envelope is the exact shape persisted under the TODO key and carried
// inside sync request bodies.
type Envelope struct {
	Data []Task `json:"data,omitempty"`
}

// Done reports whether the task has a completion timestamp.
func (t Task) Done() bool {
	return t.DoneTime != ""
}

// DoneAt parses the completion timestamp in local time.
// ok is false when the task is not done or the timestamp is malformed.
func (t Task) DoneAt() (time.Time, bool) {
	if t.DoneTime == "" {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(TimeLayout, t.DoneTime, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// NextID computes the id for a new task: max of the existing numeric ids
// plus one, or "0" for an empty collection. Non-numeric ids are skipped.
// Tombstoned records still count, so ids are never reused.
func NextID(tasks []Task) string {
	max := -1
	for _, t := range tasks {
		n, err := strconv.Atoi(t.ID)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return strconv.Itoa(max + 1)
}

// CloneTasks returns a shallow copy of the collection. Mutation
// operations work on a copy and assign the result back through the
// store's write path.
func CloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}

// IndexByID returns the position of the task with the given id, or -1.
func IndexByID(tasks []Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}
