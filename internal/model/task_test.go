package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextID_EmptyCollection(t *testing.T) {
	assert.Equal(t, "0", NextID(nil))
	assert.Equal(t, "0", NextID([]Task{}))
}

func TestNextID_GapsAreNotReused(t *testing.T) {
	tasks := []Task{{ID: "0"}, {ID: "2"}}
	assert.Equal(t, "3", NextID(tasks))
}

func TestNextID_SkipsNonNumericIDs(t *testing.T) {
	tasks := []Task{{ID: "0"}, {ID: "oops"}, {ID: "4"}}
	assert.Equal(t, "5", NextID(tasks))
}

func TestNextID_CountsTombstones(t *testing.T) {
	tasks := []Task{{ID: "7", IsDelete: true}}
	assert.Equal(t, "8", NextID(tasks))
}

func TestIndexByID(t *testing.T) {
	tasks := []Task{{ID: "0"}, {ID: "1"}, {ID: "2"}}

	assert.Equal(t, 1, IndexByID(tasks, "1"))
	assert.Equal(t, -1, IndexByID(tasks, "99"))
}

func TestDoneAt(t *testing.T) {
	_, ok := Task{}.DoneAt()
	assert.False(t, ok)

	_, ok = Task{DoneTime: "not a time"}.DoneAt()
	assert.False(t, ok)

	ts, ok := Task{DoneTime: "2024-06-10 09:30:00"}.DoneAt()
	assert.True(t, ok)
	assert.Equal(t, 10, ts.Day())
}

func TestCloneTasks_IndependentBacking(t *testing.T) {
	orig := []Task{{ID: "0", Content: "a"}}
	cp := CloneTasks(orig)
	cp[0].Content = "b"

	assert.Equal(t, "a", orig[0].Content)
}
