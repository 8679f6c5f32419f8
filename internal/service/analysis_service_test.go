package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"strengthlab/fitness-app/internal/domain"
	"strengthlab/fitness-app/internal/llm"
)

// twoStageChat answers the report stage first, the extraction stage second.
func twoStageChat(report, extraction string, reportErr, extractionErr error) *mockChat {
	calls := 0
	return &mockChat{SimpleChatFunc: func(_ context.Context, _, _ string) (string, llm.Usage, error) {
		calls++
		if calls == 1 {
			return report, llm.Usage{}, reportErr
		}
		return extraction, llm.Usage{}, extractionErr
	}}
}

func uploadedAnalysis(userID primitive.ObjectID) *domain.FormAnalysis {
	return &domain.FormAnalysis{
		ID:           "an-1",
		UserID:       userID,
		ExerciseName: "Back Squat",
		ObjectKey:    "analyses/u/a.mp4",
		ContentType:  "video/mp4",
		Status:       domain.AnalysisUploaded,
	}
}

func TestRequestUploadURLHappyPath(t *testing.T) {
	userID := primitive.NewObjectID()
	var created *domain.FormAnalysis
	repo := &mockAnalysisRepo{CreateFunc: func(_ context.Context, a *domain.FormAnalysis) (string, error) {
		created = a
		return "an-1", nil
	}}

	svc := NewAnalysisService(repo, &mockFileStorage{}, &mockChat{})
	resp, err := svc.RequestUploadURL(context.Background(), userID, UploadRequest{
		ExerciseName: "Back Squat",
		Notes:        "working sets at RPE 8",
		FileName:     "squat.mp4",
		ContentType:  "video/mp4",
		FileSize:     1 << 20,
	})
	require.NoError(t, err)

	assert.Equal(t, "an-1", resp.AnalysisID)
	assert.NotEmpty(t, resp.UploadURL)
	assert.True(t, strings.HasPrefix(resp.ObjectKey, "analyses/"+userID.Hex()+"/"))
	assert.True(t, strings.HasSuffix(resp.ObjectKey, ".mp4"))

	require.NotNil(t, created)
	assert.Equal(t, domain.AnalysisPending, created.Status)
	assert.Equal(t, "Back Squat", created.ExerciseName)
	assert.Equal(t, resp.ObjectKey, created.ObjectKey)
}

func TestRequestUploadURLRejectsNonVideo(t *testing.T) {
	svc := NewAnalysisService(&mockAnalysisRepo{}, &mockFileStorage{}, &mockChat{})
	for _, contentType := range []string{"", "image/png", "application/pdf"} {
		_, err := svc.RequestUploadURL(context.Background(), primitive.NewObjectID(), UploadRequest{
			ExerciseName: "Deadlift",
			ContentType:  contentType,
		})
		assert.ErrorIs(t, err, ErrInvalidContentType, "content type %q", contentType)
	}
}

func TestConfirmUploadTransition(t *testing.T) {
	userID := primitive.NewObjectID()
	record := &domain.FormAnalysis{ID: "an-1", UserID: userID, Status: domain.AnalysisPending}
	updates := 0
	repo := &mockAnalysisRepo{
		GetByIDFunc: func(_ context.Context, _ string) (*domain.FormAnalysis, error) { return record, nil },
		UpdateFunc: func(_ context.Context, a *domain.FormAnalysis) error {
			updates++
			return nil
		},
	}

	svc := NewAnalysisService(repo, &mockFileStorage{}, &mockChat{})

	confirmed, err := svc.ConfirmUpload(context.Background(), userID, "an-1")
	require.NoError(t, err)
	assert.Equal(t, domain.AnalysisUploaded, confirmed.Status)
	assert.Equal(t, 1, updates)

	// Second confirm is a no-op, not an error.
	_, err = svc.ConfirmUpload(context.Background(), userID, "an-1")
	require.NoError(t, err)
	assert.Equal(t, 1, updates)
}

func TestAnalyzeHappyPath(t *testing.T) {
	userID := primitive.NewObjectID()
	record := uploadedAnalysis(userID)
	var saved *domain.FormAnalysis
	repo := &mockAnalysisRepo{
		GetByIDFunc: func(_ context.Context, _ string) (*domain.FormAnalysis, error) { return record, nil },
		UpdateFunc: func(_ context.Context, a *domain.FormAnalysis) error {
			saved = a
			return nil
		},
	}
	chat := twoStageChat(
		"## Form Report\nKnees cave on rep 3. Depth is excellent.",
		`{"scores": {"setup": 95, "tempo": -5, "control": 110, "balance": 60},
		  "faults": ["knees cave at rep 3"],
		  "recommendations": ["pause squats at 60% for two weeks"]}`,
		nil, nil,
	)

	svc := NewAnalysisService(repo, &mockFileStorage{}, chat)
	result, err := svc.Analyze(context.Background(), userID, "an-1")
	require.NoError(t, err)

	assert.Equal(t, domain.AnalysisComplete, result.Status)
	assert.Contains(t, result.Report, "Knees cave")
	assert.Equal(t, []string{"knees cave at rep 3"}, result.Faults)
	assert.Equal(t, []string{"pause squats at 60% for two weeks"}, result.Recommendations)

	// Clamped, defaulted, and unknown-aspect-dropped scores.
	require.Len(t, result.Scores, len(FormAspects))
	assert.Equal(t, 95.0, result.Scores["setup"])
	assert.Equal(t, 0.0, result.Scores["tempo"])
	assert.Equal(t, 100.0, result.Scores["control"])
	assert.Equal(t, domain.DefaultFormScore, result.Scores["rangeOfMotion"])
	assert.Equal(t, domain.DefaultFormScore, result.Scores["alignment"])
	assert.Equal(t, domain.DefaultFormScore, result.Scores["stability"])
	assert.NotContains(t, result.Scores, "balance")

	assert.Same(t, result, saved, "final state must be persisted")
}

func TestAnalyzeReportFailureMarksRecordFailed(t *testing.T) {
	userID := primitive.NewObjectID()
	record := uploadedAnalysis(userID)
	repo := &mockAnalysisRepo{
		GetByIDFunc: func(_ context.Context, _ string) (*domain.FormAnalysis, error) { return record, nil },
	}
	chat := twoStageChat("", "", errors.New("model overloaded"), nil)

	svc := NewAnalysisService(repo, &mockFileStorage{}, chat)
	result, err := svc.Analyze(context.Background(), userID, "an-1")
	require.NoError(t, err, "a model failure must not surface as a service error")

	assert.Equal(t, domain.AnalysisFailed, result.Status)
	assert.Contains(t, result.FailureReason, "report stage failed")
	assert.Contains(t, result.FailureReason, "model overloaded")
}

func TestAnalyzeExtractionFailureKeepsReport(t *testing.T) {
	userID := primitive.NewObjectID()
	record := uploadedAnalysis(userID)
	repo := &mockAnalysisRepo{
		GetByIDFunc: func(_ context.Context, _ string) (*domain.FormAnalysis, error) { return record, nil },
	}
	chat := twoStageChat("## Form Report\nSolid depth throughout.", "sorry, I cannot do that", nil, nil)

	svc := NewAnalysisService(repo, &mockFileStorage{}, chat)
	result, err := svc.Analyze(context.Background(), userID, "an-1")
	require.NoError(t, err)

	assert.Equal(t, domain.AnalysisComplete, result.Status)
	assert.Contains(t, result.Report, "Solid depth")
	assert.Nil(t, result.Scores, "no chart data when extraction fails outright")
}

func TestAnalyzeRequiresConfirmedUpload(t *testing.T) {
	userID := primitive.NewObjectID()
	repo := &mockAnalysisRepo{GetByIDFunc: func(_ context.Context, _ string) (*domain.FormAnalysis, error) {
		return &domain.FormAnalysis{ID: "an-1", UserID: userID, Status: domain.AnalysisPending}, nil
	}}

	svc := NewAnalysisService(repo, &mockFileStorage{}, &mockChat{})
	_, err := svc.Analyze(context.Background(), userID, "an-1")
	assert.ErrorIs(t, err, ErrAnalysisNotReady)
}

func TestAnalysisOwnership(t *testing.T) {
	owner := primitive.NewObjectID()
	intruder := primitive.NewObjectID()
	repo := &mockAnalysisRepo{GetByIDFunc: func(_ context.Context, _ string) (*domain.FormAnalysis, error) {
		return uploadedAnalysis(owner), nil
	}}
	svc := NewAnalysisService(repo, &mockFileStorage{}, &mockChat{})

	_, err := svc.GetAnalysis(context.Background(), intruder, "an-1")
	assert.ErrorIs(t, err, ErrAnalysisAccessDenied)

	_, err = svc.Analyze(context.Background(), intruder, "an-1")
	assert.ErrorIs(t, err, ErrAnalysisAccessDenied)

	_, err = svc.VideoDownloadURL(context.Background(), intruder, "an-1")
	assert.ErrorIs(t, err, ErrAnalysisAccessDenied)
}

func TestVideoDownloadURL(t *testing.T) {
	userID := primitive.NewObjectID()

	t.Run("uploaded video gets a URL", func(t *testing.T) {
		repo := &mockAnalysisRepo{GetByIDFunc: func(_ context.Context, _ string) (*domain.FormAnalysis, error) {
			return uploadedAnalysis(userID), nil
		}}
		svc := NewAnalysisService(repo, &mockFileStorage{}, &mockChat{})
		url, err := svc.VideoDownloadURL(context.Background(), userID, "an-1")
		require.NoError(t, err)
		assert.Contains(t, url, "analyses/u/a.mp4")
	})

	t.Run("pending record has nothing to download", func(t *testing.T) {
		repo := &mockAnalysisRepo{GetByIDFunc: func(_ context.Context, _ string) (*domain.FormAnalysis, error) {
			return &domain.FormAnalysis{ID: "an-1", UserID: userID, Status: domain.AnalysisPending}, nil
		}}
		svc := NewAnalysisService(repo, &mockFileStorage{}, &mockChat{})
		_, err := svc.VideoDownloadURL(context.Background(), userID, "an-1")
		assert.ErrorIs(t, err, ErrAnalysisNotReady)
	})
}
