package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Reserved keys inside a generated program document.
const (
	// MetaKey is the reserved key carrying program title/summary alongside
	// the day entries. It is the only top-level key that is not a day or a cycle.
	MetaKey = "_meta"

	// DebugKey is the reserved key under which the generation endpoint may
	// attach internal diagnostics. It is split off by the generation service
	// before the program is decoded and must never reach rendering code.
	DebugKey = "debug"

	// DefaultCycleKey is the cycle label assigned to programs that arrive in
	// the flat single-cycle wire form.
	DefaultCycleKey = "cycle1"
)

// WorkoutDay holds the free-text blocks of a single training day.
// All fields are optional; an empty day is still a valid day.
type WorkoutDay struct {
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Warmup      string `bson:"warmup,omitempty" json:"warmup,omitempty"`
	Workout     string `bson:"workout,omitempty" json:"workout,omitempty"`
	Strength    string `bson:"strength,omitempty" json:"strength,omitempty"`
	Notes       string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// IsZero reports whether no block of the day is filled in.
func (d WorkoutDay) IsZero() bool {
	return d == WorkoutDay{}
}

// WorkoutCycle maps day labels (e.g. "monday", "day1") to their days.
type WorkoutCycle map[string]WorkoutDay

// WorkoutMeta is the content of the reserved "_meta" entry.
type WorkoutMeta struct {
	Title   string `bson:"title,omitempty" json:"title,omitempty"`
	Summary string `bson:"summary,omitempty" json:"summary,omitempty"`
}

// WeeklyWorkout is the structured multi-day program document returned by
// generation. On the wire it is a single JSON object: single-cycle programs
// carry day entries directly ({"monday": {...}, "_meta": {...}}), multi-cycle
// programs nest day maps under cycle labels ({"cycle1": {"monday": {...}}}).
// Both forms decode into the same value; flat input is normalized under
// DefaultCycleKey. Any top-level value matching neither shape is rejected
// rather than silently defaulted.
type WeeklyWorkout struct {
	Cycles map[string]WorkoutCycle `bson:"cycles"`
	Meta   *WorkoutMeta            `bson:"meta,omitempty"`
}

// Title returns the _meta title, or "" when absent.
func (w *WeeklyWorkout) Title() string {
	if w == nil || w.Meta == nil {
		return ""
	}
	return w.Meta.Title
}

// Summary returns the _meta summary, or "" when absent.
func (w *WeeklyWorkout) Summary() string {
	if w == nil || w.Meta == nil {
		return ""
	}
	return w.Meta.Summary
}

// IsEmpty reports whether the program contains no days at all.
func (w *WeeklyWorkout) IsEmpty() bool {
	if w == nil {
		return true
	}
	for _, cycle := range w.Cycles {
		if len(cycle) > 0 {
			return false
		}
	}
	return true
}

// Day looks up one day inside one cycle.
func (w *WeeklyWorkout) Day(cycleKey, dayKey string) (WorkoutDay, bool) {
	if w == nil {
		return WorkoutDay{}, false
	}
	cycle, ok := w.Cycles[cycleKey]
	if !ok {
		return WorkoutDay{}, false
	}
	day, ok := cycle[dayKey]
	return day, ok
}

// SetDay replaces one day inside one cycle, creating the cycle if needed.
// All sibling entries are left untouched.
func (w *WeeklyWorkout) SetDay(cycleKey, dayKey string, day WorkoutDay) {
	if w.Cycles == nil {
		w.Cycles = map[string]WorkoutCycle{}
	}
	cycle, ok := w.Cycles[cycleKey]
	if !ok {
		cycle = WorkoutCycle{}
		w.Cycles[cycleKey] = cycle
	}
	cycle[dayKey] = day
}

// Clone returns a deep copy, so holders of a returned program cannot
// mutate the original through shared maps.
func (w *WeeklyWorkout) Clone() WeeklyWorkout {
	out := WeeklyWorkout{}
	if w == nil {
		return out
	}
	if w.Cycles != nil {
		out.Cycles = make(map[string]WorkoutCycle, len(w.Cycles))
		for cycleKey, cycle := range w.Cycles {
			copied := make(WorkoutCycle, len(cycle))
			for dayKey, day := range cycle {
				copied[dayKey] = day
			}
			out.Cycles[cycleKey] = copied
		}
	}
	if w.Meta != nil {
		meta := *w.Meta
		out.Meta = &meta
	}
	return out
}

// MarshalJSON emits the wire form: flat day entries when the program is
// exactly the one default cycle, nested cycle entries otherwise. The
// reserved "_meta" entry is appended when present.
func (w WeeklyWorkout) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(w.Cycles)+1)

	if len(w.Cycles) == 1 {
		if cycle, ok := w.Cycles[DefaultCycleKey]; ok {
			for dayKey, day := range cycle {
				out[dayKey] = day
			}
			if w.Meta != nil {
				out[MetaKey] = w.Meta
			}
			return json.Marshal(out)
		}
	}

	for cycleKey, cycle := range w.Cycles {
		out[cycleKey] = cycle
	}
	if w.Meta != nil {
		out[MetaKey] = w.Meta
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts both wire forms. Each top-level value other than
// "_meta" must be either a WorkoutDay object (string-valued fields) or a
// cycle object (day objects keyed by day label); anything else is an error.
func (w *WeeklyWorkout) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("workout program is not a JSON object: %w", err)
	}

	w.Cycles = map[string]WorkoutCycle{}
	w.Meta = nil

	for key, value := range raw {
		if key == MetaKey {
			meta := &WorkoutMeta{}
			if err := json.Unmarshal(value, meta); err != nil {
				return fmt.Errorf("invalid %s entry: %w", MetaKey, err)
			}
			w.Meta = meta
			continue
		}

		kind, err := classifyEntry(value)
		if err != nil {
			return fmt.Errorf("entry %q: %w", key, err)
		}

		switch kind {
		case entryDay:
			var day WorkoutDay
			if err := json.Unmarshal(value, &day); err != nil {
				return fmt.Errorf("entry %q: %w", key, err)
			}
			w.SetDay(DefaultCycleKey, key, day)
		case entryCycle:
			var cycle WorkoutCycle
			if err := json.Unmarshal(value, &cycle); err != nil {
				return fmt.Errorf("cycle %q: %w", key, err)
			}
			w.Cycles[key] = cycle
		}
	}
	return nil
}

type entryKind int

const (
	entryDay entryKind = iota
	entryCycle
)

// classifyEntry decides whether a top-level value is a day or a cycle.
// Day objects have only string-valued fields; cycle objects have only
// object-valued fields. An empty object is read as an empty day, matching
// the primary "day label -> WorkoutDay" reading of the document.
func classifyEntry(value json.RawMessage) (entryKind, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(value, &fields); err != nil {
		return 0, fmt.Errorf("neither a workout day nor a cycle: %w", err)
	}
	if len(fields) == 0 {
		return entryDay, nil
	}

	sawString, sawObject := false, false
	for _, fv := range fields {
		var asString string
		if json.Unmarshal(fv, &asString) == nil {
			sawString = true
			continue
		}
		var asObject map[string]json.RawMessage
		if json.Unmarshal(fv, &asObject) == nil {
			sawObject = true
			continue
		}
		return 0, fmt.Errorf("neither a workout day nor a cycle")
	}
	if sawString && sawObject {
		return 0, fmt.Errorf("mixed day and cycle fields")
	}
	if sawObject {
		return entryCycle, nil
	}
	return entryDay, nil
}

// DebugInfo is the optional diagnostic payload attached to a generation
// response under DebugKey. It is surfaced to callers on a side channel and
// is not intended for end-user display.
type DebugInfo struct {
	Model            string `json:"model,omitempty"`
	PromptTokens     int    `json:"promptTokens,omitempty"`
	CompletionTokens int    `json:"completionTokens,omitempty"`
	ElapsedMS        int64  `json:"elapsedMs,omitempty"`
	Notes            string `json:"notes,omitempty"`
}

// StoredWorkout is the client-side persisted program: the generated document
// plus its display title/summary and the generation timestamp used for the
// validity window.
type StoredWorkout struct {
	Workout     WeeklyWorkout `json:"workout"`
	Title       string        `json:"title,omitempty"`
	Summary     string        `json:"summary,omitempty"`
	GeneratedAt time.Time     `json:"generatedAt"`
}
