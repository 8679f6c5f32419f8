package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"strengthlab/fitness-app/internal/domain"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	UpdateTier(ctx context.Context, id primitive.ObjectID, tier domain.Tier) error
}

// ExerciseFilter narrows catalog listings. Empty fields match everything.
type ExerciseFilter struct {
	Equipment string
	Muscle    string
}

// ExerciseRepository defines the interface for the exercise catalog.
type ExerciseRepository interface {
	Upsert(ctx context.Context, exercise *domain.Exercise) error
	GetByID(ctx context.Context, id string) (*domain.Exercise, error)
	List(ctx context.Context, filter ExerciseFilter) ([]domain.Exercise, error)
	Count(ctx context.Context) (int64, error)
}

// ProgramRepository defines the interface for generated programs in the
// document backend. Upsert exists for migration, which must be safe to run
// more than once.
type ProgramRepository interface {
	Create(ctx context.Context, doc *domain.ProgramDocument) (string, error)
	Upsert(ctx context.Context, doc *domain.ProgramDocument) error
	GetByID(ctx context.Context, id string) (*domain.ProgramDocument, error)
	GetByUserID(ctx context.Context, userID string) ([]domain.ProgramDocument, error)
	Update(ctx context.Context, doc *domain.ProgramDocument) error
	Delete(ctx context.Context, id, userID string) error
	CountByUserID(ctx context.Context, userID string) (int64, error)
}

// AnalysisRepository defines the interface for form-analysis records.
type AnalysisRepository interface {
	Create(ctx context.Context, analysis *domain.FormAnalysis) (string, error)
	GetByID(ctx context.Context, id string) (*domain.FormAnalysis, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.FormAnalysis, error)
	Update(ctx context.Context, analysis *domain.FormAnalysis) error
}

// LegacyProgramRepository reads the relational backend that predates the
// document store. It is read-only: history merging and one-shot migration
// are the only consumers, and new programs are never written to it.
type LegacyProgramRepository interface {
	GetByID(ctx context.Context, id string) (*domain.LegacyWorkoutRow, error)
	GetByUserID(ctx context.Context, userID string) ([]domain.LegacyWorkoutRow, error)
}
