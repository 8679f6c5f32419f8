package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"strengthlab/fitness-app/internal/domain"
	"strengthlab/fitness-app/internal/service"
)

// AnalysisHandler serves the video form-analysis flow. All routes sit behind
// the pro-tier gate; free users never reach these handlers.
type AnalysisHandler struct {
	analysisService service.AnalysisService
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(analysisService service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService}
}

// --- Request/Response Structs ---

type RequestUploadURLRequest struct {
	ExerciseName string `json:"exerciseName" binding:"required"`
	Notes        string `json:"notes"`
	FileName     string `json:"fileName"`
	ContentType  string `json:"contentType" binding:"required"`
	FileSize     int64  `json:"fileSize"`
}

type AnalysisResponse struct {
	ID              string                `json:"id"`
	ExerciseName    string                `json:"exerciseName"`
	Notes           string                `json:"notes,omitempty"`
	FileName        string                `json:"fileName,omitempty"`
	Status          domain.AnalysisStatus `json:"status"`
	Report          string                `json:"report,omitempty"`
	Scores          map[string]float64    `json:"scores,omitempty"`
	Faults          []string              `json:"faults,omitempty"`
	Recommendations []string              `json:"recommendations,omitempty"`
	FailureReason   string                `json:"failureReason,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

type VideoURLResponse struct {
	DownloadURL string `json:"downloadUrl"`
}

// --- Handler Methods ---

// RequestUploadURL godoc
// @Summary Request a pre-signed URL to upload an exercise video
// @Description Creates the analysis record and returns a temporary URL the
// @Description client PUTs the video to directly. Only video/* uploads are accepted.
// @Tags Analysis
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uploadRequest body RequestUploadURLRequest true "Video metadata"
// @Success 200 {object} service.UploadURLResponse "Pre-signed URL, object key and analysis ID"
// @Failure 400 {object} gin.H "Invalid input or non-video content type"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error (e.g., S3 error)"
// @Router /analyses/upload-url [post]
func (h *AnalysisHandler) RequestUploadURL(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	var req RequestUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	resp, err := h.analysisService.RequestUploadURL(c.Request.Context(), userID, service.UploadRequest{
		ExerciseName: req.ExerciseName,
		Notes:        req.Notes,
		FileName:     req.FileName,
		ContentType:  req.ContentType,
		FileSize:     req.FileSize,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidContentType):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrUploadURLError):
			abortWithError(c, http.StatusInternalServerError, err.Error())
		default:
			abortWithError(c, http.StatusBadRequest, err.Error())
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmUpload godoc
// @Summary Confirm that the video upload finished
// @Tags Analysis
// @Produce json
// @Security BearerAuth
// @Param id path string true "Analysis ID"
// @Success 200 {object} AnalysisResponse
// @Failure 403 {object} gin.H "Not the owner"
// @Failure 404 {object} gin.H "Analysis not found"
// @Router /analyses/{id}/confirm [post]
func (h *AnalysisHandler) ConfirmUpload(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	analysis, err := h.analysisService.ConfirmUpload(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondAnalysisError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAnalysisToResponse(analysis))
}

// Analyze godoc
// @Summary Run the form analysis over the uploaded video
// @Description Model failures do not surface as HTTP errors; the returned
// @Description record carries status "failed" and a failure reason instead.
// @Tags Analysis
// @Produce json
// @Security BearerAuth
// @Param id path string true "Analysis ID"
// @Success 200 {object} AnalysisResponse
// @Failure 403 {object} gin.H "Not the owner"
// @Failure 404 {object} gin.H "Analysis not found"
// @Failure 409 {object} gin.H "Upload not confirmed yet"
// @Router /analyses/{id}/analyze [post]
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	analysis, err := h.analysisService.Analyze(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondAnalysisError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAnalysisToResponse(analysis))
}

// Get godoc
// @Summary Fetch one analysis record
// @Tags Analysis
// @Produce json
// @Security BearerAuth
// @Param id path string true "Analysis ID"
// @Success 200 {object} AnalysisResponse
// @Router /analyses/{id} [get]
func (h *AnalysisHandler) Get(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	analysis, err := h.analysisService.GetAnalysis(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondAnalysisError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAnalysisToResponse(analysis))
}

// List godoc
// @Summary List the user's analyses, newest first
// @Tags Analysis
// @Produce json
// @Security BearerAuth
// @Success 200 {array} AnalysisResponse
// @Router /analyses [get]
func (h *AnalysisHandler) List(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	analyses, err := h.analysisService.ListAnalyses(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "failed to list analyses")
		return
	}

	out := make([]AnalysisResponse, 0, len(analyses))
	for i := range analyses {
		out = append(out, mapAnalysisToResponse(&analyses[i]))
	}
	c.JSON(http.StatusOK, out)
}

// VideoURL godoc
// @Summary Get a temporary download URL for the uploaded video
// @Tags Analysis
// @Produce json
// @Security BearerAuth
// @Param id path string true "Analysis ID"
// @Success 200 {object} VideoURLResponse
// @Failure 409 {object} gin.H "Upload not confirmed yet"
// @Router /analyses/{id}/video [get]
func (h *AnalysisHandler) VideoURL(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	url, err := h.analysisService.VideoDownloadURL(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondAnalysisError(c, err)
		return
	}
	c.JSON(http.StatusOK, VideoURLResponse{DownloadURL: url})
}

// --- Helpers ---

func respondAnalysisError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAnalysisNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAnalysisAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrAnalysisNotReady):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrDownloadURLError):
		abortWithError(c, http.StatusInternalServerError, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, err.Error())
	}
}

func mapAnalysisToResponse(a *domain.FormAnalysis) AnalysisResponse {
	return AnalysisResponse{
		ID:              a.ID,
		ExerciseName:    a.ExerciseName,
		Notes:           a.Notes,
		FileName:        a.FileName,
		Status:          a.Status,
		Report:          a.Report,
		Scores:          a.Scores,
		Faults:          a.Faults,
		Recommendations: a.Recommendations,
		FailureReason:   a.FailureReason,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}
