package api

import (
	"errors"
	"net/http"

	"alcyxob/adaptive-fitness/internal/domain"
	"alcyxob/adaptive-fitness/internal/service"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileService service.ProfileService
}

func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// --- DTOs ---

type SaveProfileRequest struct {
	// Weight is in the unit named by Unit; stored canonically in kilograms.
	Weight       float64  `json:"weight" binding:"required,gt=0"`
	Unit         string   `json:"unit" binding:"required,oneof=lbs kg"`
	Equipment    []string `json:"equipment"`
	DaysPerWeek  int      `json:"daysPerWeek" binding:"required,min=1,max=7"`
	SelectedDays []int    `json:"selectedDays" binding:"required"`
}

type ProfileResponse struct {
	Weight                 float64  `json:"weight"`
	Unit                   string   `json:"unit"`
	Equipment              []string `json:"equipment,omitempty"`
	DaysPerWeek            int      `json:"daysPerWeek"`
	SelectedDays           []int    `json:"selectedDays"`
	CycleNumber            int      `json:"cycleNumber"`
	TotalWorkoutsCompleted int      `json:"totalWorkoutsCompleted"`
}

func mapProfileToResponse(p *domain.UserProfile) ProfileResponse {
	weight := p.WeightKg
	if p.Unit == domain.UnitPounds {
		weight = domain.KgToLbs(p.WeightKg)
	}
	return ProfileResponse{
		Weight:                 weight,
		Unit:                   string(p.Unit),
		Equipment:              p.Equipment,
		DaysPerWeek:            p.DaysPerWeek,
		SelectedDays:           p.SelectedDays,
		CycleNumber:            p.CycleNumber,
		TotalWorkoutsCompleted: p.TotalWorkoutsCompleted,
	}
}

// --- Handler Methods ---

// GetProfile returns the user's training profile in their preferred unit.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	profile, err := h.profileService.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to load profile.")
		return
	}
	c.JSON(http.StatusOK, mapProfileToResponse(profile))
}

// SaveProfile upserts the user's training profile. Bodyweight arrives in
// the user's unit and is stored in kilograms.
func (h *ProfileHandler) SaveProfile(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	var req SaveProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	weightKg := req.Weight
	if domain.WeightUnit(req.Unit) == domain.UnitPounds {
		weightKg = domain.LbsToKg(req.Weight)
	}
	profile := &domain.UserProfile{
		UserID:       userID,
		WeightKg:     weightKg,
		Unit:         domain.WeightUnit(req.Unit),
		Equipment:    req.Equipment,
		DaysPerWeek:  req.DaysPerWeek,
		SelectedDays: req.SelectedDays,
	}

	if err := h.profileService.Save(c.Request.Context(), profile); err != nil {
		if errors.Is(err, service.ErrInvalidProfile) {
			abortWithError(c, http.StatusUnprocessableEntity, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to save profile.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}
