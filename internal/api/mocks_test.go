package api

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"strengthlab/fitness-app/internal/domain"
	"strengthlab/fitness-app/internal/repository"
	"strengthlab/fitness-app/internal/service"
)

const testSecret = "api-test-secret"

// --- Service Mocks ---
// Func fields default to harmless behavior so each test only fills in what it
// asserts on.

type mockAuthService struct {
	RegisterFunc     func(ctx context.Context, name, email, password string) (*domain.User, error)
	LoginFunc        func(ctx context.Context, email, password string) (string, *domain.User, error)
	UpgradeToProFunc func(ctx context.Context, userID primitive.ObjectID) (string, *domain.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, name, email, password)
	}
	return &domain.User{ID: primitive.NewObjectID(), Name: name, Email: email, Tier: domain.TierFree}, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return "", nil, service.ErrAuthenticationFailed
}

func (m *mockAuthService) UpgradeToPro(ctx context.Context, userID primitive.ObjectID) (string, *domain.User, error) {
	if m.UpgradeToProFunc != nil {
		return m.UpgradeToProFunc(ctx, userID)
	}
	return "", nil, service.ErrUserNotFound
}

func (m *mockAuthService) GetJWTSecret() string { return testSecret }

type mockProgramService struct {
	GenerateFunc      func(ctx context.Context, userID primitive.ObjectID, params domain.GenerationParams) (*domain.ProgramDocument, *domain.DebugInfo, error)
	GetProgramFunc    func(ctx context.Context, userID primitive.ObjectID, programID string) (*domain.ProgramDocument, error)
	ListProgramsFunc  func(ctx context.Context, userID primitive.ObjectID) ([]domain.ProgramDocument, error)
	UpdateDayFunc     func(ctx context.Context, userID primitive.ObjectID, programID, cycleKey, dayKey string, day domain.WorkoutDay) (*domain.ProgramDocument, error)
	SetPublicFunc     func(ctx context.Context, userID primitive.ObjectID, programID string, public bool) (*domain.ProgramDocument, error)
	DeleteProgramFunc func(ctx context.Context, userID primitive.ObjectID, programID string) error
	QuotaFunc         func(ctx context.Context, userID primitive.ObjectID) (service.QuotaStatus, error)
}

func (m *mockProgramService) Generate(ctx context.Context, userID primitive.ObjectID, params domain.GenerationParams) (*domain.ProgramDocument, *domain.DebugInfo, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, userID, params)
	}
	return nil, nil, service.ErrEmptyGeneration
}

func (m *mockProgramService) GetProgram(ctx context.Context, userID primitive.ObjectID, programID string) (*domain.ProgramDocument, error) {
	if m.GetProgramFunc != nil {
		return m.GetProgramFunc(ctx, userID, programID)
	}
	return nil, service.ErrProgramNotFound
}

func (m *mockProgramService) ListPrograms(ctx context.Context, userID primitive.ObjectID) ([]domain.ProgramDocument, error) {
	if m.ListProgramsFunc != nil {
		return m.ListProgramsFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockProgramService) UpdateDay(ctx context.Context, userID primitive.ObjectID, programID, cycleKey, dayKey string, day domain.WorkoutDay) (*domain.ProgramDocument, error) {
	if m.UpdateDayFunc != nil {
		return m.UpdateDayFunc(ctx, userID, programID, cycleKey, dayKey, day)
	}
	return nil, service.ErrProgramNotFound
}

func (m *mockProgramService) SetPublic(ctx context.Context, userID primitive.ObjectID, programID string, public bool) (*domain.ProgramDocument, error) {
	if m.SetPublicFunc != nil {
		return m.SetPublicFunc(ctx, userID, programID, public)
	}
	return nil, service.ErrProgramNotFound
}

func (m *mockProgramService) DeleteProgram(ctx context.Context, userID primitive.ObjectID, programID string) error {
	if m.DeleteProgramFunc != nil {
		return m.DeleteProgramFunc(ctx, userID, programID)
	}
	return service.ErrProgramNotFound
}

func (m *mockProgramService) Quota(ctx context.Context, userID primitive.ObjectID) (service.QuotaStatus, error) {
	if m.QuotaFunc != nil {
		return m.QuotaFunc(ctx, userID)
	}
	return service.QuotaStatus{}, nil
}

type mockHistoryService struct {
	HistoryFunc       func(ctx context.Context, userID primitive.ObjectID) ([]domain.ProgramRecord, error)
	MigrateLegacyFunc func(ctx context.Context, userID primitive.ObjectID) (service.MigrationSummary, error)
}

func (m *mockHistoryService) History(ctx context.Context, userID primitive.ObjectID) ([]domain.ProgramRecord, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockHistoryService) MigrateLegacy(ctx context.Context, userID primitive.ObjectID) (service.MigrationSummary, error) {
	if m.MigrateLegacyFunc != nil {
		return m.MigrateLegacyFunc(ctx, userID)
	}
	return service.MigrationSummary{}, nil
}

type mockAnalysisService struct {
	RequestUploadURLFunc func(ctx context.Context, userID primitive.ObjectID, req service.UploadRequest) (*service.UploadURLResponse, error)
	ConfirmUploadFunc    func(ctx context.Context, userID primitive.ObjectID, analysisID string) (*domain.FormAnalysis, error)
	AnalyzeFunc          func(ctx context.Context, userID primitive.ObjectID, analysisID string) (*domain.FormAnalysis, error)
	GetAnalysisFunc      func(ctx context.Context, userID primitive.ObjectID, analysisID string) (*domain.FormAnalysis, error)
	ListAnalysesFunc     func(ctx context.Context, userID primitive.ObjectID) ([]domain.FormAnalysis, error)
	VideoDownloadURLFunc func(ctx context.Context, userID primitive.ObjectID, analysisID string) (string, error)
}

func (m *mockAnalysisService) RequestUploadURL(ctx context.Context, userID primitive.ObjectID, req service.UploadRequest) (*service.UploadURLResponse, error) {
	if m.RequestUploadURLFunc != nil {
		return m.RequestUploadURLFunc(ctx, userID, req)
	}
	return &service.UploadURLResponse{AnalysisID: "analysis-1", UploadURL: "https://storage.example.com/put", ObjectKey: "analyses/key"}, nil
}

func (m *mockAnalysisService) ConfirmUpload(ctx context.Context, userID primitive.ObjectID, analysisID string) (*domain.FormAnalysis, error) {
	if m.ConfirmUploadFunc != nil {
		return m.ConfirmUploadFunc(ctx, userID, analysisID)
	}
	return nil, service.ErrAnalysisNotFound
}

func (m *mockAnalysisService) Analyze(ctx context.Context, userID primitive.ObjectID, analysisID string) (*domain.FormAnalysis, error) {
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, userID, analysisID)
	}
	return nil, service.ErrAnalysisNotFound
}

func (m *mockAnalysisService) GetAnalysis(ctx context.Context, userID primitive.ObjectID, analysisID string) (*domain.FormAnalysis, error) {
	if m.GetAnalysisFunc != nil {
		return m.GetAnalysisFunc(ctx, userID, analysisID)
	}
	return nil, service.ErrAnalysisNotFound
}

func (m *mockAnalysisService) ListAnalyses(ctx context.Context, userID primitive.ObjectID) ([]domain.FormAnalysis, error) {
	if m.ListAnalysesFunc != nil {
		return m.ListAnalysesFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockAnalysisService) VideoDownloadURL(ctx context.Context, userID primitive.ObjectID, analysisID string) (string, error) {
	if m.VideoDownloadURLFunc != nil {
		return m.VideoDownloadURLFunc(ctx, userID, analysisID)
	}
	return "", service.ErrAnalysisNotFound
}

type mockCatalogService struct {
	SeedFromFileFunc  func(ctx context.Context, path string) (int, error)
	ListExercisesFunc func(ctx context.Context, filter repository.ExerciseFilter) ([]domain.Exercise, error)
	GetExerciseFunc   func(ctx context.Context, id string) (*domain.Exercise, error)
}

func (m *mockCatalogService) SeedFromFile(ctx context.Context, path string) (int, error) {
	if m.SeedFromFileFunc != nil {
		return m.SeedFromFileFunc(ctx, path)
	}
	return 0, nil
}

func (m *mockCatalogService) ListExercises(ctx context.Context, filter repository.ExerciseFilter) ([]domain.Exercise, error) {
	if m.ListExercisesFunc != nil {
		return m.ListExercisesFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockCatalogService) GetExercise(ctx context.Context, id string) (*domain.Exercise, error) {
	if m.GetExerciseFunc != nil {
		return m.GetExerciseFunc(ctx, id)
	}
	return nil, service.ErrExerciseNotFound
}

// --- Router Setup ---

type testServices struct {
	auth         *mockAuthService
	programs     *mockProgramService
	history      *mockHistoryService
	analyses     *mockAnalysisService
	catalog      *mockCatalogService
	includeDebug bool
}

func newTestRouter(svcs *testServices) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupRoutes(
		router,
		testSecret,
		svcs.auth,
		svcs.programs,
		svcs.history,
		svcs.analyses,
		svcs.catalog,
		svcs.includeDebug,
	)
	return router
}

func defaultServices() *testServices {
	return &testServices{
		auth:     &mockAuthService{},
		programs: &mockProgramService{},
		history:  &mockHistoryService{},
		analyses: &mockAnalysisService{},
		catalog:  &mockCatalogService{},
	}
}

// mintToken signs a token the way the auth service does, so middleware tests
// exercise real parsing.
func mintToken(t *testing.T, userID primitive.ObjectID, tier domain.Tier) string {
	t.Helper()
	claims := jwtClaims{
		UserID: userID.Hex(),
		Tier:   tier,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.Hex(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func expiredToken(t *testing.T, userID primitive.ObjectID) string {
	t.Helper()
	claims := jwtClaims{
		UserID: userID.Hex(),
		Tier:   domain.TierFree,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.Hex(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}
