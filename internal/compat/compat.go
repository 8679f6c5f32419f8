// internal/compat/compat.go
package compat

import (
	"encoding/json"
	"errors"
	"fmt"

	"strengthlab/fitness-app/internal/domain"
)

// Adapters between the two backend representations of a saved program and
// the unified ProgramRecord the rest of the app reads. Each adapter is a
// field-by-field projection; no validation beyond shape tagging happens
// here, and absent timestamps stay zero (display code defaults them).

var ErrUnknownShape = errors.New("record matches neither known backend shape")

// legacyIDPrefix namespaces document IDs minted from legacy rows so a
// migration run twice lands on the same document both times.
const legacyIDPrefix = "legacy-"

// FromLegacy projects one legacy relational row into the unified record.
// The row stores its program as JSON text; malformed text is a shape
// violation and is rejected rather than defaulted away.
func FromLegacy(row domain.LegacyWorkoutRow) (domain.ProgramRecord, error) {
	var workout domain.WeeklyWorkout
	if data := row.WorkoutData; data != "" {
		if err := json.Unmarshal([]byte(data), &workout); err != nil {
			return domain.ProgramRecord{}, fmt.Errorf("legacy row %s: %w: %v", row.ID, ErrUnknownShape, err)
		}
	}

	rec := domain.ProgramRecord{
		ID:       row.ID,
		UserID:   row.UserID,
		Title:    row.Title,
		Summary:  row.Summary,
		Workout:  workout,
		IsPublic: row.IsPublic,
		Source:   domain.SourceLegacy,
	}
	if row.CreatedAt != nil {
		rec.CreatedAt = *row.CreatedAt
	}
	if row.UpdatedAt != nil {
		rec.UpdatedAt = *row.UpdatedAt
	}
	return rec, nil
}

// FromDocument projects one document-store record into the unified record.
func FromDocument(doc domain.ProgramDocument) domain.ProgramRecord {
	return domain.ProgramRecord{
		ID:        doc.ID,
		UserID:    doc.UserID,
		Title:     doc.Name,
		Summary:   doc.Description,
		Workout:   doc.Program,
		IsPublic:  doc.IsPublic,
		Source:    domain.SourceDocument,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

// ToDocument projects a unified record back into the document shape. Records
// that originated in the legacy backend get a deterministic document ID
// derived from the legacy row ID, which is what keeps migration idempotent.
func ToDocument(rec domain.ProgramRecord) domain.ProgramDocument {
	id := rec.ID
	if rec.Source == domain.SourceLegacy {
		id = LegacyDocumentID(rec.ID)
	}
	return domain.ProgramDocument{
		ID:          id,
		UserID:      rec.UserID,
		Name:        rec.Title,
		Description: rec.Summary,
		Program:     rec.Workout,
		IsPublic:    rec.IsPublic,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

// LegacyDocumentID is the document ID a migrated legacy row is stored under.
func LegacyDocumentID(rowID string) string {
	return legacyIDPrefix + rowID
}

// Decode classifies a raw JSON payload against the closed set of known
// backend shapes and projects it. A payload carrying neither discriminating
// field, or ambiguously carrying both, is rejected with ErrUnknownShape.
func Decode(raw []byte) (domain.ProgramRecord, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return domain.ProgramRecord{}, fmt.Errorf("%w: %v", ErrUnknownShape, err)
	}

	_, hasLegacyData := probe["workout_data"]
	_, hasProgram := probe["program"]

	switch {
	case hasLegacyData && hasProgram:
		return domain.ProgramRecord{}, fmt.Errorf("%w: payload carries both workout_data and program", ErrUnknownShape)
	case hasLegacyData:
		var row domain.LegacyWorkoutRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return domain.ProgramRecord{}, fmt.Errorf("%w: %v", ErrUnknownShape, err)
		}
		return FromLegacy(row)
	case hasProgram:
		var doc domain.ProgramDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return domain.ProgramRecord{}, fmt.Errorf("%w: %v", ErrUnknownShape, err)
		}
		return FromDocument(doc), nil
	default:
		return domain.ProgramRecord{}, ErrUnknownShape
	}
}
