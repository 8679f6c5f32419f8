package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"strengthlab/fitness-app/internal/domain"
	"strengthlab/fitness-app/internal/service"
)

// HistoryHandler serves the merged program history across backends.
type HistoryHandler struct {
	historyService service.HistoryService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(historyService service.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

// HistoryEntryResponse is one row of the merged history. Timestamps are the
// effective values: records whose source carried none read as "now", so a
// freshly generated program without a stored timestamp still sorts first.
type HistoryEntryResponse struct {
	ID        string               `json:"id"`
	Title     string               `json:"title"`
	Summary   string               `json:"summary,omitempty"`
	Workout   domain.WeeklyWorkout `json:"workout"`
	IsPublic  bool                 `json:"isPublic"`
	Source    domain.ProgramSource `json:"source"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

// History godoc
// @Summary List all of the user's programs, both backends merged
// @Description Returns current and legacy programs as one list, newest first.
// @Tags History
// @Produce json
// @Success 200 {array} HistoryEntryResponse
// @Router /history [get]
func (h *HistoryHandler) History(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	records, err := h.historyService.History(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "failed to load history")
		return
	}

	now := time.Now()
	out := make([]HistoryEntryResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, HistoryEntryResponse{
			ID:        rec.ID,
			Title:     rec.Title,
			Summary:   rec.Summary,
			Workout:   rec.Workout,
			IsPublic:  rec.IsPublic,
			Source:    rec.Source,
			CreatedAt: rec.EffectiveCreatedAt(now),
			UpdatedAt: rec.EffectiveUpdatedAt(now),
		})
	}
	c.JSON(http.StatusOK, out)
}

// Migrate godoc
// @Summary Copy legacy programs into the document store
// @Description Re-running migration is safe: already migrated rows are skipped
// @Description by their deterministic document ID.
// @Tags History
// @Produce json
// @Success 200 {object} service.MigrationSummary
// @Router /history/migrate [post]
func (h *HistoryHandler) Migrate(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	summary, err := h.historyService.MigrateLegacy(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "migration failed")
		return
	}
	c.JSON(http.StatusOK, summary)
}
