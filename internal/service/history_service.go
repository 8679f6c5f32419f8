package service

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"strengthlab/fitness-app/internal/compat"
	"strengthlab/fitness-app/internal/domain"
	"strengthlab/fitness-app/internal/repository"
)

// MigrationSummary reports what one MigrateLegacy pass did.
type MigrationSummary struct {
	Migrated int `json:"migrated"`
	Skipped  int `json:"skipped"`
}

// --- Service Interface ---
type HistoryService interface {
	// History merges programs from both storage generations into one list,
	// newest first.
	History(ctx context.Context, userID primitive.ObjectID) ([]domain.ProgramRecord, error)

	// MigrateLegacy copies the user's relational rows into the document
	// store. Document IDs derive from the row IDs, so re-running lands on
	// the same documents instead of duplicating them.
	MigrateLegacy(ctx context.Context, userID primitive.ObjectID) (MigrationSummary, error)
}

// --- Service Implementation ---

// historyService implements the HistoryService interface. legacyRepo is nil
// when the legacy backend is not configured; everything degrades to
// document-only reads.
type historyService struct {
	programRepo repository.ProgramRepository
	legacyRepo  repository.LegacyProgramRepository
	now         func() time.Time
}

// NewHistoryService creates a new instance of historyService.
func NewHistoryService(programRepo repository.ProgramRepository, legacyRepo repository.LegacyProgramRepository) HistoryService {
	return &historyService{
		programRepo: programRepo,
		legacyRepo:  legacyRepo,
		now:         time.Now,
	}
}

// History returns the user's programs across both backends.
func (s *historyService) History(ctx context.Context, userID primitive.ObjectID) ([]domain.ProgramRecord, error) {
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID is required")
	}

	docs, err := s.programRepo.GetByUserID(ctx, userID.Hex())
	if err != nil {
		return nil, err
	}

	records := make([]domain.ProgramRecord, 0, len(docs))
	migrated := make(map[string]bool, len(docs))
	for _, doc := range docs {
		records = append(records, compat.FromDocument(doc))
		migrated[doc.ID] = true
	}

	if s.legacyRepo != nil {
		rows, err := s.legacyRepo.GetByUserID(ctx, userID.Hex())
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			// A migrated row already appears as a document; showing both
			// would duplicate it in the history.
			if migrated[compat.LegacyDocumentID(row.ID)] {
				continue
			}
			rec, err := compat.FromLegacy(row)
			if err != nil {
				log.Printf("WARN: skipping unreadable legacy row %s: %v", row.ID, err)
				continue
			}
			records = append(records, rec)
		}
	}

	// now is captured once so zero timestamps sort consistently within one
	// call. SliceStable keeps backend order for full ties.
	now := s.now()
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].EffectiveCreatedAt(now).After(records[j].EffectiveCreatedAt(now))
	})
	return records, nil
}

// MigrateLegacy moves the user's legacy rows into the document store.
func (s *historyService) MigrateLegacy(ctx context.Context, userID primitive.ObjectID) (MigrationSummary, error) {
	var summary MigrationSummary
	if userID == primitive.NilObjectID {
		return summary, errors.New("user ID is required")
	}
	if s.legacyRepo == nil {
		return summary, nil // Nothing to migrate from
	}

	rows, err := s.legacyRepo.GetByUserID(ctx, userID.Hex())
	if err != nil {
		return summary, err
	}

	for _, row := range rows {
		rec, err := compat.FromLegacy(row)
		if err != nil {
			// Unreadable rows stay behind in the legacy store. They are
			// counted so the caller can surface "N rows could not move".
			log.Printf("WARN: legacy row %s not migrated: %v", row.ID, err)
			summary.Skipped++
			continue
		}
		doc := compat.ToDocument(rec)
		if err := s.programRepo.Upsert(ctx, &doc); err != nil {
			return summary, err
		}
		summary.Migrated++
	}
	return summary, nil
}
