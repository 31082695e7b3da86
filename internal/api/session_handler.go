package api

import (
	"errors"
	"net/http"

	"alcyxob/adaptive-fitness/internal/calories"
	"alcyxob/adaptive-fitness/internal/domain"
	"alcyxob/adaptive-fitness/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SessionHandler struct {
	sessionService service.SessionService
	profileService service.ProfileService
}

func NewSessionHandler(sessionService service.SessionService, profileService service.ProfileService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		profileService: profileService,
	}
}

// --- DTOs ---

type StartSessionRequest struct {
	ProgramID        string  `json:"programId" binding:"required"`
	ProgramWorkoutID *string `json:"programWorkoutId"`
}

type LogCardioRequest struct {
	DurationMinutes int    `json:"durationMinutes" binding:"required,gt=0"`
	Intensity       string `json:"intensity" binding:"required,oneof=low moderate high"`
	Notes           string `json:"notes"`
}

// TargetResponse carries the current recommended targets of one exercise
// slot, with the weight converted to the user's preferred unit.
type TargetResponse struct {
	SlotID       string   `json:"slotId"`
	ExerciseName string   `json:"exerciseName"`
	Equipment    string   `json:"equipment"`
	TargetSets   int      `json:"targetSets"`
	RepsMin      int      `json:"repsMin"`
	RepsMax      int      `json:"repsMax"`
	Weight       *float64 `json:"weight,omitempty"`
	WeightUnit   string   `json:"weightUnit,omitempty"`
}

// --- Handler Methods ---

// StartSession opens today's session for the given program workout.
func (h *SessionHandler) StartSession(c *gin.Context) {
	if _, err := getUserIDFromContext(c); err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	programID, err := primitive.ObjectIDFromHex(req.ProgramID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid program ID format.")
		return
	}
	var workoutID *primitive.ObjectID
	if req.ProgramWorkoutID != nil {
		id, err := primitive.ObjectIDFromHex(*req.ProgramWorkoutID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid workout ID format.")
			return
		}
		workoutID = &id
	}

	session, err := h.sessionService.StartSession(c.Request.Context(), programID, workoutID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to start session.")
		return
	}
	c.JSON(http.StatusCreated, mapSessionToResponse(session))
}

// LogCardio records an ad-hoc cardio session for today.
func (h *SessionHandler) LogCardio(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	var req LogCardioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	session, err := h.sessionService.LogCardio(c.Request.Context(), userID, req.DurationMinutes, calories.Intensity(req.Intensity), req.Notes)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to log cardio session.")
		return
	}
	c.JSON(http.StatusCreated, mapSessionToResponse(session))
}

// GetCurrentTarget returns one slot's current recommended targets with all
// progression events folded in.
func (h *SessionHandler) GetCurrentTarget(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	programID, err := primitive.ObjectIDFromHex(c.Param("programId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid program ID format.")
		return
	}
	slotID, err := primitive.ObjectIDFromHex(c.Param("slotId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid slot ID format.")
		return
	}

	slot, err := h.sessionService.CurrentTarget(c.Request.Context(), programID, slotID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoActiveProgram):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrSlotNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to load exercise target.")
		}
		return
	}

	resp := TargetResponse{
		SlotID:       slot.ID.Hex(),
		ExerciseName: slot.ExerciseName,
		Equipment:    string(slot.Equipment),
		TargetSets:   slot.TargetSets,
		RepsMin:      slot.RepsMin,
		RepsMax:      slot.RepsMax,
	}
	if slot.RecommendedWeight != nil {
		// Stored canonically in pounds; display in the user's unit.
		weight := *slot.RecommendedWeight
		unit := domain.UnitPounds
		if profile, perr := h.profileService.Get(c.Request.Context(), userID); perr == nil && profile.Unit == domain.UnitKilograms {
			weight = domain.LbsToKg(weight)
			unit = domain.UnitKilograms
		}
		resp.Weight = &weight
		resp.WeightUnit = string(unit)
	}
	c.JSON(http.StatusOK, resp)
}
