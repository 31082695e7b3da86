package api

import (
	"errors"
	"net/http"
	"time"

	"alcyxob/adaptive-fitness/internal/domain"
	"alcyxob/adaptive-fitness/internal/schedule"
	"alcyxob/adaptive-fitness/internal/service"

	"github.com/gin-gonic/gin"
)

type ScheduleHandler struct {
	scheduleService service.ScheduleService
}

func NewScheduleHandler(scheduleService service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

// --- DTOs ---

// SessionResponse is the wire shape of a scheduled or completed session.
type SessionResponse struct {
	ID               string     `json:"id"`
	ProgramID        string     `json:"programId"`
	ProgramWorkoutID string     `json:"programWorkoutId,omitempty"`
	SessionType      string     `json:"sessionType"`
	ScheduledDate    string     `json:"scheduledDate"`
	SessionDate      *time.Time `json:"sessionDate,omitempty"`
	Status           string     `json:"status"`
	Completed        bool       `json:"completed"`
	DurationMinutes  int        `json:"durationMinutes,omitempty"`
	Calories         int        `json:"calories,omitempty"`
	Notes            string     `json:"notes,omitempty"`
}

func mapSessionToResponse(s *domain.WorkoutSession) SessionResponse {
	resp := SessionResponse{
		ID:              s.ID.Hex(),
		ProgramID:       s.ProgramID.Hex(),
		SessionType:     string(s.SessionType),
		ScheduledDate:   s.ScheduledDate,
		SessionDate:     s.SessionDate,
		Status:          string(s.Status),
		Completed:       s.Completed,
		DurationMinutes: s.DurationMinutes,
		Calories:        s.Calories,
		Notes:           s.Notes,
	}
	if s.ProgramWorkoutID != nil {
		resp.ProgramWorkoutID = s.ProgramWorkoutID.Hex()
	}
	return resp
}

func mapSessionsToResponse(sessions []domain.WorkoutSession) []SessionResponse {
	out := make([]SessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, mapSessionToResponse(&sessions[i]))
	}
	return out
}

// --- Handler Methods ---

// GetSchedule returns the active program's sessions in date order.
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	sessions, err := h.scheduleService.Schedule(c.Request.Context(), userID)
	if err != nil {
		respondScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSessionsToResponse(sessions))
}

// MaterializeCycle creates the dated sessions of the current cycle.
func (h *ScheduleHandler) MaterializeCycle(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	sessions, err := h.scheduleService.MaterializeCycle(c.Request.Context(), userID)
	if err != nil {
		respondScheduleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapSessionsToResponse(sessions))
}

// GetMissed lists sessions whose scheduled date has passed unresolved.
func (h *ScheduleHandler) GetMissed(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	missed, err := h.scheduleService.MissedWorkouts(c.Request.Context(), userID)
	if err != nil {
		respondScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSessionsToResponse(missed))
}

// Reconcile runs the load-time sweep: due rest days, archival and the
// auto-reschedule policy. Clients call it on every app load.
func (h *ScheduleHandler) Reconcile(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	report, err := h.scheduleService.ReconcileOnLoad(c.Request.Context(), userID)
	if err != nil {
		respondScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// SkipMissed marks missed sessions skipped without moving future dates.
func (h *ScheduleHandler) SkipMissed(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	skipped, err := h.scheduleService.SkipMissed(c.Request.Context(), userID)
	if err != nil {
		respondScheduleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"skipped": skipped})
}

func respondScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoActiveProgram):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrProfileNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrScheduleNotEmpty):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, schedule.ErrInvalidScheduleConfig):
		abortWithError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Failed to process schedule request.")
	}
}
