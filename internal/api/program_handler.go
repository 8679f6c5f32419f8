package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"strengthlab/fitness-app/internal/domain"
	"strengthlab/fitness-app/internal/generation"
	"strengthlab/fitness-app/internal/service"
)

// ProgramHandler serves workout generation and program management.
type ProgramHandler struct {
	programService service.ProgramService
	includeDebug   bool
}

// NewProgramHandler creates a new ProgramHandler. includeDebug controls
// whether generation responses carry the diagnostics side channel.
func NewProgramHandler(programService service.ProgramService, includeDebug bool) *ProgramHandler {
	return &ProgramHandler{
		programService: programService,
		includeDebug:   includeDebug,
	}
}

// --- Request/Response Structs ---

type UpdateDayRequest struct {
	Day domain.WorkoutDay `json:"day" binding:"required"`
}

type PublishRequest struct {
	IsPublic *bool `json:"isPublic" binding:"required"`
}

// ProgramResponse is the management view of a stored program (list/get).
// The generation endpoint itself responds with the bare program JSON; see
// Generate.
type ProgramResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Program     domain.WeeklyWorkout `json:"program"`
	IsPublic    bool                 `json:"isPublic"`
	CreatedAt   string               `json:"createdAt,omitempty"`
}

// --- Handler Methods ---

// Generate godoc
// @Summary Generate a workout program
// @Description Runs the generation pipeline and responds with the program JSON.
// @Description The body is exactly the program document (days/cycles plus _meta,
// @Description plus a debug entry when enabled); consumers decode it directly.
// @Tags Workouts
// @Accept json
// @Produce json
// @Param params body domain.GenerationParams true "Generation parameters"
// @Success 200 {object} domain.WeeklyWorkout "Generated program"
// @Failure 400 {object} gin.H "Parameters out of range"
// @Failure 403 {object} gin.H "WORKOUT_LIMIT_EXCEEDED"
// @Failure 500 {object} gin.H "Generation failed"
// @Router /workouts/generate [post]
func (h *ProgramHandler) Generate(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	var params domain.GenerationParams
	if err := c.ShouldBindJSON(&params); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	doc, debug, err := h.programService.Generate(c.Request.Context(), userID, params)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWorkoutLimitExceeded):
			// Machine-readable reason; the client keys its paywall off this.
			abortWithError(c, http.StatusForbidden, generation.LimitExceededReason)
		case errors.Is(err, service.ErrInvalidGenerationParams):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrEmptyGeneration):
			// A literal null body is the "endpoint worked, nothing came out"
			// signal consumers already understand.
			c.Data(http.StatusOK, "application/json", []byte("null"))
		default:
			abortWithError(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	payload, err := json.Marshal(doc.Program)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "failed to encode program")
		return
	}
	if h.includeDebug && debug != nil {
		if withDebug, err := attachDebug(payload, debug); err == nil {
			payload = withDebug
		}
	}
	c.Data(http.StatusOK, "application/json", payload)
}

// attachDebug inserts the diagnostics entry into the encoded program. The
// debug key is top-level, next to the day/cycle entries, which is where the
// consuming side strips it off.
func attachDebug(program []byte, debug *domain.DebugInfo) ([]byte, error) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(program, &entries); err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(debug)
	if err != nil {
		return nil, err
	}
	entries[domain.DebugKey] = encoded
	return json.Marshal(entries)
}

// List godoc
// @Summary List the authenticated user's programs
// @Tags Workouts
// @Produce json
// @Success 200 {array} ProgramResponse
// @Router /workouts [get]
func (h *ProgramHandler) List(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	docs, err := h.programService.ListPrograms(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "failed to list programs")
		return
	}

	out := make([]ProgramResponse, 0, len(docs))
	for i := range docs {
		out = append(out, mapProgramToResponse(&docs[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Get godoc
// @Summary Fetch one program
// @Tags Workouts
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} ProgramResponse
// @Failure 403 {object} gin.H "Not the owner and not public"
// @Failure 404 {object} gin.H "Not found"
// @Router /workouts/{id} [get]
func (h *ProgramHandler) Get(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	doc, err := h.programService.GetProgram(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondProgramError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapProgramToResponse(doc))
}

// UpdateDay godoc
// @Summary Replace a single day of a program
// @Tags Workouts
// @Accept json
// @Produce json
// @Param id path string true "Program ID"
// @Param cycleKey path string true "Cycle key (e.g. cycle1)"
// @Param dayKey path string true "Day key (e.g. day2)"
// @Param body body UpdateDayRequest true "New day content"
// @Success 200 {object} ProgramResponse
// @Router /workouts/{id}/cycles/{cycleKey}/days/{dayKey} [put]
func (h *ProgramHandler) UpdateDay(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	var req UpdateDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	doc, err := h.programService.UpdateDay(c.Request.Context(), userID, c.Param("id"), c.Param("cycleKey"), c.Param("dayKey"), req.Day)
	if err != nil {
		respondProgramError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapProgramToResponse(doc))
}

// Publish godoc
// @Summary Toggle a program's public visibility
// @Tags Workouts
// @Accept json
// @Produce json
// @Param id path string true "Program ID"
// @Param body body PublishRequest true "Visibility flag"
// @Success 200 {object} ProgramResponse
// @Router /workouts/{id}/publish [post]
func (h *ProgramHandler) Publish(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	var req PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsPublic == nil {
		abortWithError(c, http.StatusBadRequest, "isPublic flag is required")
		return
	}

	doc, err := h.programService.SetPublic(c.Request.Context(), userID, c.Param("id"), *req.IsPublic)
	if err != nil {
		respondProgramError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapProgramToResponse(doc))
}

// Delete godoc
// @Summary Delete a program
// @Tags Workouts
// @Param id path string true "Program ID"
// @Success 204 "Deleted"
// @Router /workouts/{id} [delete]
func (h *ProgramHandler) Delete(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	if err := h.programService.DeleteProgram(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondProgramError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Quota godoc
// @Summary Report generation usage against the free-tier cap
// @Tags Workouts
// @Produce json
// @Success 200 {object} service.QuotaStatus
// @Router /workouts/quota [get]
func (h *ProgramHandler) Quota(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	quota, err := h.programService.Quota(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "failed to read quota")
		return
	}
	c.JSON(http.StatusOK, quota)
}

// --- Helpers ---

func respondProgramError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProgramNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrProgramAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, err.Error())
	}
}

func mapProgramToResponse(doc *domain.ProgramDocument) ProgramResponse {
	resp := ProgramResponse{
		ID:          doc.ID,
		Name:        doc.Name,
		Description: doc.Description,
		Program:     doc.Program,
		IsPublic:    doc.IsPublic,
	}
	if !doc.CreatedAt.IsZero() {
		resp.CreatedAt = doc.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}
