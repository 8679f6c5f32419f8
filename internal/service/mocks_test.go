package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"strengthlab/fitness-app/internal/domain"
	"strengthlab/fitness-app/internal/llm"
	"strengthlab/fitness-app/internal/repository"
)

// Func-field mocks: each test wires only the calls it cares about, the rest
// fall through to a harmless default.

// --- Mock User Repository ---
type mockUserRepo struct {
	CreateFunc     func(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmailFunc func(ctx context.Context, email string) (*domain.User, error)
	GetByIDFunc    func(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	UpdateTierFunc func(ctx context.Context, id primitive.ObjectID, tier domain.Tier) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return primitive.NewObjectID(), nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) UpdateTier(ctx context.Context, id primitive.ObjectID, tier domain.Tier) error {
	if m.UpdateTierFunc != nil {
		return m.UpdateTierFunc(ctx, id, tier)
	}
	return nil
}

// --- Mock Program Repository ---
type mockProgramRepo struct {
	CreateFunc        func(ctx context.Context, doc *domain.ProgramDocument) (string, error)
	UpsertFunc        func(ctx context.Context, doc *domain.ProgramDocument) error
	GetByIDFunc       func(ctx context.Context, id string) (*domain.ProgramDocument, error)
	GetByUserIDFunc   func(ctx context.Context, userID string) ([]domain.ProgramDocument, error)
	UpdateFunc        func(ctx context.Context, doc *domain.ProgramDocument) error
	DeleteFunc        func(ctx context.Context, id, userID string) error
	CountByUserIDFunc func(ctx context.Context, userID string) (int64, error)
}

func (m *mockProgramRepo) Create(ctx context.Context, doc *domain.ProgramDocument) (string, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, doc)
	}
	return primitive.NewObjectID().Hex(), nil
}

func (m *mockProgramRepo) Upsert(ctx context.Context, doc *domain.ProgramDocument) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, doc)
	}
	return nil
}

func (m *mockProgramRepo) GetByID(ctx context.Context, id string) (*domain.ProgramDocument, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockProgramRepo) GetByUserID(ctx context.Context, userID string) ([]domain.ProgramDocument, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockProgramRepo) Update(ctx context.Context, doc *domain.ProgramDocument) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, doc)
	}
	return nil
}

func (m *mockProgramRepo) Delete(ctx context.Context, id, userID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id, userID)
	}
	return nil
}

func (m *mockProgramRepo) CountByUserID(ctx context.Context, userID string) (int64, error) {
	if m.CountByUserIDFunc != nil {
		return m.CountByUserIDFunc(ctx, userID)
	}
	return 0, nil
}

// --- Mock Exercise Repository ---
type mockExerciseRepo struct {
	UpsertFunc  func(ctx context.Context, exercise *domain.Exercise) error
	GetByIDFunc func(ctx context.Context, id string) (*domain.Exercise, error)
	ListFunc    func(ctx context.Context, filter repository.ExerciseFilter) ([]domain.Exercise, error)
	CountFunc   func(ctx context.Context) (int64, error)
}

func (m *mockExerciseRepo) Upsert(ctx context.Context, exercise *domain.Exercise) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, exercise)
	}
	return nil
}

func (m *mockExerciseRepo) GetByID(ctx context.Context, id string) (*domain.Exercise, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockExerciseRepo) List(ctx context.Context, filter repository.ExerciseFilter) ([]domain.Exercise, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockExerciseRepo) Count(ctx context.Context) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

// --- Mock Analysis Repository ---
type mockAnalysisRepo struct {
	CreateFunc      func(ctx context.Context, analysis *domain.FormAnalysis) (string, error)
	GetByIDFunc     func(ctx context.Context, id string) (*domain.FormAnalysis, error)
	GetByUserIDFunc func(ctx context.Context, userID primitive.ObjectID) ([]domain.FormAnalysis, error)
	UpdateFunc      func(ctx context.Context, analysis *domain.FormAnalysis) error
}

func (m *mockAnalysisRepo) Create(ctx context.Context, analysis *domain.FormAnalysis) (string, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, analysis)
	}
	return "analysis-1", nil
}

func (m *mockAnalysisRepo) GetByID(ctx context.Context, id string) (*domain.FormAnalysis, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockAnalysisRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.FormAnalysis, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockAnalysisRepo) Update(ctx context.Context, analysis *domain.FormAnalysis) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, analysis)
	}
	return nil
}

// --- Mock Legacy Program Repository ---
type mockLegacyRepo struct {
	GetByIDFunc     func(ctx context.Context, id string) (*domain.LegacyWorkoutRow, error)
	GetByUserIDFunc func(ctx context.Context, userID string) ([]domain.LegacyWorkoutRow, error)
}

func (m *mockLegacyRepo) GetByID(ctx context.Context, id string) (*domain.LegacyWorkoutRow, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockLegacyRepo) GetByUserID(ctx context.Context, userID string) ([]domain.LegacyWorkoutRow, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

// --- Mock Chat Client ---
type mockChat struct {
	SimpleChatFunc func(ctx context.Context, systemPrompt, userMessage string) (string, llm.Usage, error)
}

func (m *mockChat) SimpleChat(ctx context.Context, systemPrompt, userMessage string) (string, llm.Usage, error) {
	if m.SimpleChatFunc != nil {
		return m.SimpleChatFunc(ctx, systemPrompt, userMessage)
	}
	return "{}", llm.Usage{}, nil
}

// --- Mock File Storage ---
type mockFileStorage struct {
	UploadURLFunc   func(ctx context.Context, objectKey, contentType string, expires time.Duration) (string, error)
	DownloadURLFunc func(ctx context.Context, objectKey string, expires time.Duration) (string, error)
	DeleteFunc      func(ctx context.Context, objectKey string) error
}

func (m *mockFileStorage) GeneratePresignedUploadURL(ctx context.Context, objectKey, contentType string, expires time.Duration) (string, error) {
	if m.UploadURLFunc != nil {
		return m.UploadURLFunc(ctx, objectKey, contentType, expires)
	}
	return "https://storage.example.com/upload/" + objectKey, nil
}

func (m *mockFileStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	if m.DownloadURLFunc != nil {
		return m.DownloadURLFunc(ctx, objectKey, expires)
	}
	return "https://storage.example.com/download/" + objectKey, nil
}

func (m *mockFileStorage) DeleteObject(ctx context.Context, objectKey string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, objectKey)
	}
	return nil
}
