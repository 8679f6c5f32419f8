// internal/domain/record.go
package domain

import (
	"time"
)

// ProgramSource tags which backend representation a record came from. The
// two shapes form a closed set; payloads matching neither are rejected by
// the compat adapters instead of being silently defaulted.
type ProgramSource string

const (
	SourceLegacy   ProgramSource = "legacy"
	SourceDocument ProgramSource = "document"
)

// ProgramRecord is the unified, backend-agnostic view of one saved program.
// Reading code consumes this shape only; the compat adapters produce it from
// either backend representation. CreatedAt/UpdatedAt stay zero when the
// source record carried none; defaulting to "now" happens at formatting
// time, never at persistence time.
type ProgramRecord struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	Title     string        `json:"title"`
	Summary   string        `json:"summary,omitempty"`
	Workout   WeeklyWorkout `json:"workout"`
	IsPublic  bool          `json:"isPublic"`
	Source    ProgramSource `json:"source"`
	CreatedAt time.Time     `json:"-"`
	UpdatedAt time.Time     `json:"-"`
}

// EffectiveCreatedAt returns CreatedAt, defaulting to now when the source
// record had no timestamp. Display-only; the zero value is what persists.
func (r ProgramRecord) EffectiveCreatedAt(now time.Time) time.Time {
	if r.CreatedAt.IsZero() {
		return now
	}
	return r.CreatedAt
}

// EffectiveUpdatedAt mirrors EffectiveCreatedAt for the update timestamp.
func (r ProgramRecord) EffectiveUpdatedAt(now time.Time) time.Time {
	if r.UpdatedAt.IsZero() {
		return r.EffectiveCreatedAt(now)
	}
	return r.UpdatedAt
}

// LegacyWorkoutRow is the legacy relational representation: one row of the
// generated_workouts table, snake_case columns, program JSON held as text.
type LegacyWorkoutRow struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary,omitempty"`
	WorkoutData string     `json:"workout_data"`
	IsPublic    bool       `json:"is_public"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// ProgramDocument is the current document-store representation, camelCase
// fields with the program embedded as a nested document.
type ProgramDocument struct {
	ID          string        `bson:"_id,omitempty" json:"id"`
	UserID      string        `bson:"userId" json:"userId"`
	Name        string        `bson:"name" json:"name"`
	Description string        `bson:"description,omitempty" json:"description,omitempty"`
	Program     WeeklyWorkout `bson:"program" json:"program"`
	IsPublic    bool          `bson:"isPublic" json:"isPublic"`
	CreatedAt   time.Time     `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt   time.Time     `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}
