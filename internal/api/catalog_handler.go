package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"strengthlab/fitness-app/internal/repository"
	"strengthlab/fitness-app/internal/service"
)

// CatalogHandler serves the read-only exercise catalog.
type CatalogHandler struct {
	catalogService service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// List godoc
// @Summary List catalog exercises
// @Tags Exercises
// @Produce json
// @Param equipment query string false "Filter by equipment name"
// @Param muscle query string false "Filter by primary muscle"
// @Success 200 {array} domain.Exercise
// @Router /exercises [get]
func (h *CatalogHandler) List(c *gin.Context) {
	filter := repository.ExerciseFilter{
		Equipment: c.Query("equipment"),
		Muscle:    c.Query("muscle"),
	}

	exercises, err := h.catalogService.ListExercises(c.Request.Context(), filter)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "failed to list exercises")
		return
	}
	c.JSON(http.StatusOK, exercises)
}

// Get godoc
// @Summary Fetch one catalog exercise
// @Tags Exercises
// @Produce json
// @Param id path string true "Exercise ID (catalog slug)"
// @Success 200 {object} domain.Exercise
// @Failure 404 {object} gin.H "Exercise not found"
// @Router /exercises/{id} [get]
func (h *CatalogHandler) Get(c *gin.Context) {
	exercise, err := h.catalogService.GetExercise(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrExerciseNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "failed to load exercise")
		return
	}
	c.JSON(http.StatusOK, exercise)
}
