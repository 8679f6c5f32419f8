package store

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"strengthlab/fitness-app/internal/domain"
)

// ValidityWindow is how long a stored program counts as current. Staleness
// is evaluated lazily on read; a stale record stays on disk until it is
// overwritten or cleared.
const ValidityWindow = 24 * time.Hour

// DefaultStorageKey is the fixed key the record is persisted under.
const DefaultStorageKey = "generated_workout"

// WorkoutStore holds the most recently generated program and persists it to
// a single JSON file. It is an explicit, injected container: callers share
// one instance instead of reaching for ambient state. Concurrent writers
// race and the last write wins; the mutex guards memory safety only.
type WorkoutStore struct {
	mu  sync.Mutex
	dir string
	key string
	now func() time.Time

	current *domain.StoredWorkout // nil when empty
}

// New creates a store rooted at dir using the default storage key. The
// persisted record, if any, is loaded eagerly; an unreadable or corrupt file
// is treated as an empty store, never propagated.
func New(dir string) (*WorkoutStore, error) {
	return NewWithClock(dir, time.Now)
}

// NewWithClock is New with an injected clock, for validity-window tests.
func NewWithClock(dir string, now func() time.Time) (*WorkoutStore, error) {
	if dir == "" {
		return nil, errors.New("store directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	s := &WorkoutStore{
		dir: dir,
		key: DefaultStorageKey,
		now: now,
	}
	s.load()
	return s, nil
}

func (s *WorkoutStore) path() string {
	return filepath.Join(s.dir, s.key+".json")
}

// load reads the persisted record. Malformed data is a local error class:
// log and start empty.
func (s *WorkoutStore) load() {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("WARN: could not read stored workout: %v", err)
		}
		return
	}
	var rec domain.StoredWorkout
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Printf("WARN: stored workout is malformed, treating store as empty: %v", err)
		return
	}
	s.current = &rec
}

func (s *WorkoutStore) persist() error {
	if s.current == nil {
		err := os.Remove(s.path())
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	data, err := json.Marshal(s.current)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(), data, 0o644)
}

// SetWorkout replaces the entire stored record and stamps a fresh
// generation timestamp.
func (s *WorkoutStore) SetWorkout(workout domain.WeeklyWorkout, title, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = &domain.StoredWorkout{
		Workout:     workout.Clone(),
		Title:       title,
		Summary:     summary,
		GeneratedAt: s.now(),
	}
	return s.persist()
}

// UpdateWorkoutDay replaces exactly one day inside one cycle, leaving every
// sibling entry untouched. It is a no-op when no workout is stored; the
// generation timestamp is not refreshed by an edit.
func (s *WorkoutStore) UpdateWorkoutDay(cycleKey, dayKey string, day domain.WorkoutDay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}
	s.current.Workout.SetDay(cycleKey, dayKey, day)
	return s.persist()
}

// Clear resets all fields and removes the persisted record.
func (s *WorkoutStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	return s.persist()
}

// HasValidWorkout reports whether a workout is stored and its timestamp is
// within the validity window. This is a read-time check, not an eviction.
func (s *WorkoutStore) HasValidWorkout() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return false
	}
	return s.now().Sub(s.current.GeneratedAt) < ValidityWindow
}

// Current returns a copy of the stored record, valid or stale, and whether
// one exists. Callers hold read references only; mutating the copy does not
// affect the store.
func (s *WorkoutStore) Current() (domain.StoredWorkout, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return domain.StoredWorkout{}, false
	}
	out := *s.current
	out.Workout = s.current.Workout.Clone()
	return out, true
}
