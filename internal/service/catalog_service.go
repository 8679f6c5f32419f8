package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"strengthlab/fitness-app/internal/domain"
	"strengthlab/fitness-app/internal/repository"
)

// --- Error Definitions ---
var (
	ErrExerciseNotFound = errors.New("exercise not found")
)

// --- Service Interface ---
type CatalogService interface {
	// SeedFromFile loads the exercise catalog export (a JSON array) and
	// upserts every entry. When the collection already has entries the seed
	// is skipped, so restarts do not re-read the file.
	SeedFromFile(ctx context.Context, path string) (int, error)
	ListExercises(ctx context.Context, filter repository.ExerciseFilter) ([]domain.Exercise, error)
	GetExercise(ctx context.Context, id string) (*domain.Exercise, error)
}

// --- Service Implementation ---

// catalogService implements the CatalogService interface.
type catalogService struct {
	exerciseRepo repository.ExerciseRepository
}

// NewCatalogService creates a new instance of catalogService.
func NewCatalogService(exerciseRepo repository.ExerciseRepository) CatalogService {
	return &catalogService{exerciseRepo: exerciseRepo}
}

// SeedFromFile populates the catalog from the JSON export.
func (s *catalogService) SeedFromFile(ctx context.Context, path string) (int, error) {
	if path == "" {
		return 0, errors.New("catalog file path is required")
	}

	// 1. Skip when already populated. Upsert makes re-seeding safe, but
	// there is no point parsing the file on every start.
	count, err := s.exerciseRepo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	// 2. Load and decode the export.
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read catalog file: %w", err)
	}
	var exercises []domain.Exercise
	if err := json.Unmarshal(data, &exercises); err != nil {
		return 0, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	// 3. Upsert entry by entry. Entries without an ID or name cannot be
	// addressed later and are skipped rather than failing the whole seed.
	seeded := 0
	for _, ex := range exercises {
		if ex.ID == "" || ex.Name == "" {
			log.Printf("WARN: skipping catalog entry with missing id or name: %+v", ex)
			continue
		}
		exercise := ex
		if err := s.exerciseRepo.Upsert(ctx, &exercise); err != nil {
			return seeded, err
		}
		seeded++
	}
	return seeded, nil
}

// ListExercises returns catalog entries matching the filter.
func (s *catalogService) ListExercises(ctx context.Context, filter repository.ExerciseFilter) ([]domain.Exercise, error) {
	return s.exerciseRepo.List(ctx, filter)
}

// GetExercise returns one catalog entry.
func (s *catalogService) GetExercise(ctx context.Context, id string) (*domain.Exercise, error) {
	if id == "" {
		return nil, errors.New("exercise ID is required")
	}
	exercise, err := s.exerciseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return exercise, nil
}
