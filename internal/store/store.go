// Package store holds the local-first task collection. Every replacement
// of the collection funnels through SetTasks, the single choke point that
// normalizes recurring tasks, persists the result, notifies watchers, and
// schedules a remote push when an identity is present.
package store

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/fribble186/todos/internal/model"
	"github.com/fribble186/todos/internal/storage"
)

const (
	keyTodo  = "TODO"
	keyEmail = "TODO-EMAIL"
)

// Syncer receives the full collection for a coalesced remote push. The
// store never waits on it; pushes happen outside the store's lock.
type Syncer interface {
	Push(env model.Envelope, email string)
}

type Store struct {
	mu     sync.Mutex
	kv     storage.KV
	logger zerolog.Logger
	now    func() time.Time

	tasks []model.Task
	email string

	// lastReceived is the serialized form of the most recently received
	// sync payload. SetTasks compares against it so that applying a sync
	// echo does not immediately schedule another outbound sync.
	lastReceived string

	revision atomic.Uint64
	watchers []chan uint64

	syncer Syncer
}

// New builds a store over the given KV, reading persisted state once.
// Absent or malformed state is repaired: the store resets to an empty
// envelope and immediately re-persists it.
func New(kv storage.KV, logger zerolog.Logger) (*Store, error) {
	s := &Store{
		kv:     kv,
		logger: logger,
		now:    time.Now,
	}

	raw, ok, err := kv.Get(keyTodo)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.repair("absent")
	} else {
		var env model.Envelope
		if jsonErr := json.Unmarshal([]byte(raw), &env); jsonErr != nil {
			s.repair("malformed json")
		} else {
			s.tasks = env.Data
		}
	}

	email, ok, err := kv.Get(keyEmail)
	if err != nil {
		return nil, err
	}
	if ok {
		s.email = email
	}
	return s, nil
}

// repair is the named recovery path for unusable persisted state: reset
// to an empty envelope and rewrite the store. Never propagated.
func (s *Store) repair(reason string) {
	s.logger.Warn().Str("reason", reason).Msg("resetting persisted task state")
	s.tasks = nil
	if err := s.kv.Set(keyTodo, "{}"); err != nil {
		s.logger.Error().Err(err).Msg("persist repaired task state")
	}
}

// SetSyncer connects the remote push scheduler. May be left unset for a
// purely local store.
func (s *Store) SetSyncer(syncer Syncer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncer = syncer
}

// SetClock overrides the wall clock. Tests only.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// SetTasks replaces the collection. In order: rollover normalization,
// synchronous persistence, watcher notification, conditional sync
// scheduling. The write always succeeds; persistence failures are logged
// and swallowed, local state stays authoritative.
func (s *Store) SetTasks(tasks []model.Task) {
	s.setTasks(tasks, false)
}

// ApplyRemote writes back the authoritative collection echoed by a sync
// response. It records the payload as last-received before routing it
// through the normal write path, which breaks the echo-push loop.
func (s *Store) ApplyRemote(tasks []model.Task) {
	s.setTasks(tasks, true)
}

func (s *Store) setTasks(tasks []model.Task, received bool) {
	s.mu.Lock()

	if received {
		if b, err := json.Marshal(model.Envelope{Data: tasks}); err == nil {
			s.lastReceived = string(b)
		}
	}

	tasks = model.CloneTasks(tasks)
	normalizeRollover(tasks, s.now())
	s.tasks = tasks

	serialized := ""
	if b, err := json.Marshal(model.Envelope{Data: tasks}); err == nil {
		serialized = string(b)
		if err := s.kv.Set(keyTodo, serialized); err != nil {
			s.logger.Error().Err(err).Msg("persist task state")
		}
	} else {
		s.logger.Error().Err(err).Msg("encode task state")
	}

	rev := s.revision.Add(1)
	watchers := make([]chan uint64, len(s.watchers))
	copy(watchers, s.watchers)

	syncer := s.syncer
	email := s.email
	needSync := syncer != nil && email != "" && serialized != "" && serialized != s.lastReceived

	s.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- rev:
		default:
		}
	}

	if needSync {
		syncer.Push(model.Envelope{Data: tasks}, email)
	}
}

// Tasks returns a copy of the current collection.
func (s *Store) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneTasks(s.tasks)
}

// Revision is the monotonically-changing refresh token. Only change
// detection matters, not the value.
func (s *Store) Revision() uint64 {
	return s.revision.Load()
}

// Watch returns a channel that receives the new revision after each
// write. Slow consumers miss intermediate revisions, never writes.
func (s *Store) Watch() <-chan uint64 {
	ch := make(chan uint64, 1)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()
	return ch
}

// Email returns the persisted remote identity, empty when logged out.
func (s *Store) Email() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email
}

// SetEmail persists the remote identity after a successful login.
func (s *Store) SetEmail(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Set(keyEmail, email); err != nil {
		return err
	}
	s.email = email
	return nil
}

// ClearEmail removes the remote identity; subsequent writes stay local.
func (s *Store) ClearEmail() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(keyEmail); err != nil {
		return err
	}
	s.email = ""
	return nil
}
