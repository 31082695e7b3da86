package api

import (
	"errors"
	"net/http"

	"alcyxob/adaptive-fitness/internal/domain"
	"alcyxob/adaptive-fitness/internal/export"
	"alcyxob/adaptive-fitness/internal/service"

	"github.com/gin-gonic/gin"
)

type CycleHandler struct {
	cycleService service.CycleService
	exporter     export.Exporter
}

func NewCycleHandler(cycleService service.CycleService, exporter export.Exporter) *CycleHandler {
	return &CycleHandler{
		cycleService: cycleService,
		exporter:     exporter,
	}
}

// --- DTOs ---

type StartProgramRequest struct {
	Template string `json:"template"`
}

// ProgramResponse is the wire shape of a program, workouts included.
type ProgramResponse struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	DurationWeeks int               `json:"durationWeeks"`
	AnchorDate    string            `json:"anchorDate"`
	IsActive      bool              `json:"isActive"`
	Workouts      []WorkoutResponse `json:"workouts"`
}

type WorkoutResponse struct {
	ID               string             `json:"id"`
	DayOfWeek        int                `json:"dayOfWeek"`
	Name             string             `json:"name"`
	MovementPatterns []string           `json:"movementPatterns,omitempty"`
	Exercises        []ExerciseResponse `json:"exercises"`
}

type ExerciseResponse struct {
	ID                string   `json:"id"`
	ExerciseName      string   `json:"exerciseName"`
	Equipment         string   `json:"equipment"`
	TargetSets        int      `json:"targetSets"`
	RepsMin           int      `json:"repsMin,omitempty"`
	RepsMax           int      `json:"repsMax,omitempty"`
	DurationSeconds   int      `json:"durationSeconds,omitempty"`
	RecommendedWeight *float64 `json:"recommendedWeight,omitempty"`
	TargetRIR         *int     `json:"targetRir,omitempty"`
	SupersetGroup     *int     `json:"supersetGroup,omitempty"`
	SupersetOrder     int      `json:"supersetOrder,omitempty"`
	WorkSeconds       int      `json:"workSeconds,omitempty"`
	RestSeconds       int      `json:"restSeconds,omitempty"`
}

func mapProgramToResponse(p *domain.Program) ProgramResponse {
	resp := ProgramResponse{
		ID:            p.ID.Hex(),
		Name:          p.Name,
		DurationWeeks: p.DurationWeeks,
		AnchorDate:    p.AnchorDate,
		IsActive:      p.IsActive,
		Workouts:      make([]WorkoutResponse, 0, len(p.Workouts)),
	}
	for _, w := range p.Workouts {
		wr := WorkoutResponse{
			ID:               w.ID.Hex(),
			DayOfWeek:        w.DayOfWeek,
			Name:             w.Name,
			MovementPatterns: w.MovementPatterns,
			Exercises:        make([]ExerciseResponse, 0, len(w.Exercises)),
		}
		for _, e := range w.Exercises {
			wr.Exercises = append(wr.Exercises, ExerciseResponse{
				ID:                e.ID.Hex(),
				ExerciseName:      e.ExerciseName,
				Equipment:         string(e.Equipment),
				TargetSets:        e.TargetSets,
				RepsMin:           e.RepsMin,
				RepsMax:           e.RepsMax,
				DurationSeconds:   e.DurationSeconds,
				RecommendedWeight: e.RecommendedWeight,
				TargetRIR:         &e.TargetRIR,
				SupersetGroup:     e.SupersetGroup,
				SupersetOrder:     e.SupersetOrder,
				WorkSeconds:       e.WorkSeconds,
				RestSeconds:       e.RestSeconds,
			})
		}
		resp.Workouts = append(resp.Workouts, wr)
	}
	return resp
}

// --- Handler Methods ---

// GetStatus evaluates the current cycle. The prompt marker persists inside
// the service, so ShouldPrompt is true at most once per closed cycle.
func (h *CycleHandler) GetStatus(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	status, err := h.cycleService.Evaluate(c.Request.Context(), userID)
	if err != nil {
		respondCycleError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Repeat re-materializes the same program for another week.
func (h *CycleHandler) Repeat(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	sessions, err := h.cycleService.RepeatCycle(c.Request.Context(), userID)
	if err != nil {
		respondCycleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapSessionsToResponse(sessions))
}

// StartProgram generates a new program and materializes its first cycle.
func (h *CycleHandler) StartProgram(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	var req StartProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	program, err := h.cycleService.StartNewProgram(c.Request.Context(), userID, req.Template)
	if err != nil {
		respondCycleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapProgramToResponse(program))
}

// Export snapshots the current cycle summary to object storage and returns
// a download URL.
func (h *CycleHandler) Export(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	url, err := h.exporter.ExportCycleSummary(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to export cycle summary.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}

func respondCycleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoActiveProgram), errors.Is(err, service.ErrProfileNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrCycleNotClosed):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrGenerationFailed):
		abortWithError(c, http.StatusBadGateway, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Failed to process cycle request.")
	}
}
