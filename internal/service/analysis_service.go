package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"strengthlab/fitness-app/internal/domain"
	"strengthlab/fitness-app/internal/llm"
	"strengthlab/fitness-app/internal/repository"
	"strengthlab/fitness-app/internal/storage"
)

// --- Error Definitions ---
var (
	ErrAnalysisNotFound     = errors.New("analysis not found")
	ErrAnalysisAccessDenied = errors.New("access denied to this analysis")
	ErrInvalidContentType   = errors.New("invalid or missing video content type")
	ErrUploadURLError       = errors.New("failed to generate upload URL")
	ErrDownloadURLError     = errors.New("failed to generate download URL")
	ErrAnalysisNotReady     = errors.New("analysis has no confirmed upload")
)

// FormAspects are the fixed radar-chart axes of a form analysis. The
// extraction stage scores each axis 0-100; axes the model skipped are filled
// with domain.DefaultFormScore so the chart always has every spoke.
var FormAspects = []string{"setup", "rangeOfMotion", "alignment", "tempo", "control", "stability"}

// UploadRequest carries the client-declared metadata of the video about to
// be uploaded.
type UploadRequest struct {
	ExerciseName string `json:"exerciseName"`
	Notes        string `json:"notes"`
	FileName     string `json:"fileName"`
	ContentType  string `json:"contentType"`
	FileSize     int64  `json:"fileSize"`
}

// UploadURLResponse structure for returning URL and the record to confirm
type UploadURLResponse struct {
	AnalysisID string `json:"analysisId"`
	UploadURL  string `json:"uploadUrl"`
	ObjectKey  string `json:"objectKey"`
}

// --- Service Interface ---
type AnalysisService interface {
	RequestUploadURL(ctx context.Context, userID primitive.ObjectID, req UploadRequest) (*UploadURLResponse, error)
	ConfirmUpload(ctx context.Context, userID primitive.ObjectID, analysisID string) (*domain.FormAnalysis, error)
	// Analyze runs the two-stage pipeline. Model failures land in the
	// record (status failed + reason), not in the returned error; the error
	// is reserved for storage problems.
	Analyze(ctx context.Context, userID primitive.ObjectID, analysisID string) (*domain.FormAnalysis, error)
	GetAnalysis(ctx context.Context, userID primitive.ObjectID, analysisID string) (*domain.FormAnalysis, error)
	ListAnalyses(ctx context.Context, userID primitive.ObjectID) ([]domain.FormAnalysis, error)
	VideoDownloadURL(ctx context.Context, userID primitive.ObjectID, analysisID string) (string, error)
}

// --- Service Implementation ---

// analysisService implements the AnalysisService interface.
type analysisService struct {
	analysisRepo repository.AnalysisRepository
	fileStorage  storage.FileStorage
	chat         ChatClient
}

// NewAnalysisService creates a new instance of analysisService.
func NewAnalysisService(
	analysisRepo repository.AnalysisRepository,
	fileStorage storage.FileStorage,
	chat ChatClient,
) AnalysisService {
	return &analysisService{
		analysisRepo: analysisRepo,
		fileStorage:  fileStorage,
		chat:         chat,
	}
}

// RequestUploadURL creates the analysis record and a pre-signed URL the
// client PUTs the video to.
func (s *analysisService) RequestUploadURL(ctx context.Context, userID primitive.ObjectID, req UploadRequest) (*UploadURLResponse, error) {
	// 1. Validate Inputs
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID is required")
	}
	if req.ExerciseName == "" {
		return nil, errors.New("exercise name is required")
	}
	if req.ContentType == "" || !strings.HasPrefix(strings.ToLower(req.ContentType), "video/") {
		return nil, ErrInvalidContentType
	}

	// 2. Generate a unique object key
	fileExtension := ""
	if parts := strings.Split(req.ContentType, "/"); len(parts) == 2 {
		fileExtension = parts[1]
	}
	objectKey := path.Join("analyses", userID.Hex(), fmt.Sprintf("%s.%s", uuid.NewString(), fileExtension))

	// 3. Persist the pending record before handing out the URL, so an
	// orphaned upload can always be traced back.
	analysis := &domain.FormAnalysis{
		UserID:       userID,
		ExerciseName: req.ExerciseName,
		Notes:        req.Notes,
		ObjectKey:    objectKey,
		ContentType:  req.ContentType,
		FileName:     req.FileName,
		FileSize:     req.FileSize,
		Status:       domain.AnalysisPending,
	}
	analysisID, err := s.analysisRepo.Create(ctx, analysis)
	if err != nil {
		return nil, err
	}

	// 4. Generate the pre-signed URL
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, req.ContentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrUploadURLError
	}

	return &UploadURLResponse{
		AnalysisID: analysisID,
		UploadURL:  uploadURL,
		ObjectKey:  objectKey,
	}, nil
}

// ConfirmUpload marks the record's video as present in object storage.
// Called after the client finished the PUT.
func (s *analysisService) ConfirmUpload(ctx context.Context, userID primitive.ObjectID, analysisID string) (*domain.FormAnalysis, error) {
	analysis, err := s.ownedAnalysis(ctx, userID, analysisID)
	if err != nil {
		return nil, err
	}
	if analysis.Status != domain.AnalysisPending {
		return analysis, nil // Confirming twice is harmless
	}

	analysis.Status = domain.AnalysisUploaded
	if err := s.analysisRepo.Update(ctx, analysis); err != nil {
		return nil, err
	}
	return analysis, nil
}

// Analyze runs stage 1 (free-text coaching report) and stage 2 (structured
// extraction) over the uploaded video.
func (s *analysisService) Analyze(ctx context.Context, userID primitive.ObjectID, analysisID string) (*domain.FormAnalysis, error) {
	// 1. Fetch and gate
	analysis, err := s.ownedAnalysis(ctx, userID, analysisID)
	if err != nil {
		return nil, err
	}
	if analysis.Status == domain.AnalysisPending {
		return nil, ErrAnalysisNotReady
	}

	// 2. The model fetches the video through a pre-signed URL.
	videoURL, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, analysis.ObjectKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrDownloadURLError
	}

	// 3. Stage 1: coaching report.
	report, _, err := s.chat.SimpleChat(ctx, analysisSystemPrompt, buildReportPrompt(analysis, videoURL))
	if err != nil || strings.TrimSpace(report) == "" {
		return s.markFailed(ctx, analysis, fmt.Sprintf("report stage failed: %v", err))
	}
	analysis.Report = report

	// 4. Stage 2: structured extraction. A failure here is not fatal; the
	// report alone is still worth showing.
	reply, _, err := s.chat.SimpleChat(ctx, extractionSystemPrompt, buildExtractionPrompt(report))
	if err != nil {
		log.Printf("WARN: extraction stage failed for analysis %s: %v", analysis.ID, err)
		return s.complete(ctx, analysis)
	}
	var extracted formExtraction
	if err := llm.ExtractJSON(reply, &extracted); err != nil {
		log.Printf("WARN: extraction reply unusable for analysis %s: %v", analysis.ID, err)
		return s.complete(ctx, analysis)
	}

	analysis.Scores = normalizeScores(extracted.Scores)
	analysis.Faults = extracted.Faults
	analysis.Recommendations = extracted.Recommendations
	return s.complete(ctx, analysis)
}

// GetAnalysis returns one record, owner only.
func (s *analysisService) GetAnalysis(ctx context.Context, userID primitive.ObjectID, analysisID string) (*domain.FormAnalysis, error) {
	return s.ownedAnalysis(ctx, userID, analysisID)
}

// ListAnalyses returns the user's records, newest first.
func (s *analysisService) ListAnalyses(ctx context.Context, userID primitive.ObjectID) ([]domain.FormAnalysis, error) {
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID is required")
	}
	return s.analysisRepo.GetByUserID(ctx, userID)
}

// VideoDownloadURL generates a temporary URL for the owner to view their
// uploaded video.
func (s *analysisService) VideoDownloadURL(ctx context.Context, userID primitive.ObjectID, analysisID string) (string, error) {
	analysis, err := s.ownedAnalysis(ctx, userID, analysisID)
	if err != nil {
		return "", err
	}
	if analysis.Status == domain.AnalysisPending {
		return "", ErrAnalysisNotReady
	}

	downloadURL, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, analysis.ObjectKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", ErrDownloadURLError
	}
	return downloadURL, nil
}

// --- Helpers ---

func (s *analysisService) ownedAnalysis(ctx context.Context, userID primitive.ObjectID, analysisID string) (*domain.FormAnalysis, error) {
	if analysisID == "" {
		return nil, errors.New("analysis ID is required")
	}
	analysis, err := s.analysisRepo.GetByID(ctx, analysisID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAnalysisNotFound
		}
		return nil, err
	}
	if analysis.UserID != userID {
		return nil, ErrAnalysisAccessDenied
	}
	return analysis, nil
}

func (s *analysisService) complete(ctx context.Context, analysis *domain.FormAnalysis) (*domain.FormAnalysis, error) {
	analysis.Status = domain.AnalysisComplete
	analysis.FailureReason = ""
	if err := s.analysisRepo.Update(ctx, analysis); err != nil {
		return nil, err
	}
	return analysis, nil
}

func (s *analysisService) markFailed(ctx context.Context, analysis *domain.FormAnalysis, reason string) (*domain.FormAnalysis, error) {
	analysis.Status = domain.AnalysisFailed
	analysis.FailureReason = reason
	if err := s.analysisRepo.Update(ctx, analysis); err != nil {
		return nil, err
	}
	return analysis, nil
}

// formExtraction is the stage-2 JSON contract.
type formExtraction struct {
	Scores          map[string]float64 `json:"scores"`
	Faults          []string           `json:"faults"`
	Recommendations []string           `json:"recommendations"`
}

// normalizeScores projects raw model scores onto the fixed aspect set:
// missing aspects get the default, values are clamped to 0-100, and aspects
// outside the set are dropped.
func normalizeScores(raw map[string]float64) map[string]float64 {
	scores := make(map[string]float64, len(FormAspects))
	for _, aspect := range FormAspects {
		v, ok := raw[aspect]
		if !ok {
			scores[aspect] = domain.DefaultFormScore
			continue
		}
		if v < 0 {
			v = 0
		}
		if v > 100 {
			v = 100
		}
		scores[aspect] = v
	}
	return scores
}

// --- Prompts ---

const analysisSystemPrompt = "You are an expert strength and conditioning coach specializing in " +
	"video-based exercise form analysis. Acknowledge the limitations of video review compared to " +
	"in-person coaching."

const extractionSystemPrompt = "You extract structured data from coaching reports. " +
	"Reply with a single JSON object and nothing else. The output MUST start with { and end with }."

func buildReportPrompt(analysis *domain.FormAnalysis, videoURL string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Analyze the exercise form shown in this video: %s\n\n", videoURL))
	sb.WriteString(fmt.Sprintf("Exercise: %s\n", analysis.ExerciseName))
	if analysis.Notes != "" {
		sb.WriteString(fmt.Sprintf("Athlete's notes: %s\n", analysis.Notes))
	}
	sb.WriteString(`
Write a Markdown report covering:
1. Setup and starting position.
2. Movement execution through the full range of motion.
3. Tempo and control.
4. Faults observed, each with the rep or timestamp where it appears.
5. Strengths: 1-3 positive aspects worth keeping.
6. Recommendations: 1-3 drills or cues addressing the faults, in priority order.

Be specific and use language a lifter without a coaching background can act on.`)
	return sb.String()
}

func buildExtractionPrompt(report string) string {
	var sb strings.Builder
	sb.WriteString("Analyze the following exercise form report and extract data points as a JSON object.\n\n")
	sb.WriteString("The JSON object must have this structure:\n")
	sb.WriteString(`{
  "scores": {` + "\n")
	for i, aspect := range FormAspects {
		sb.WriteString(fmt.Sprintf("    %q: number", aspect))
		if i < len(FormAspects)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(`  },
  "faults": ["string", "..."],
  "recommendations": ["string", "..."]
}

Rules:
- Scores are 0-100. Map qualitative judgements: good ~75, average ~50, poor ~25.
- Use 50 for any aspect the report does not mention.
- faults: the distinct problems called out in the report, max 5, one concise sentence each.
- recommendations: the drills/cues recommended, max 5, one concise sentence each.

REPORT:
`)
	sb.WriteString(report)
	return sb.String()
}
