// internal/api/trainer_handler.go
package api

import (
	"alcyxob/gym-membership/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type TrainerHandler struct {
	accountService service.AccountService
}

func NewTrainerHandler(accountService service.AccountService) *TrainerHandler {
	return &TrainerHandler{accountService: accountService}
}

// --- DTOs for the trainer profile ---
type UpdateTrainerProfileRequest struct {
	Experience *string `json:"experience"`
	ContactNo  *string `json:"contactNo"`
}

// GetProfile godoc
// @Summary Get the trainer's own profile
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.TrainerProfile
// @Failure 404 {object} gin.H "Profile not found"
// @Router /trainer/profile [get]
func (h *TrainerHandler) GetProfile(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	profile, err := h.accountService.GetTrainerProfile(c.Request.Context(), trainerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile godoc
// @Summary Update the trainer's own profile
// @Tags Trainer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body UpdateTrainerProfileRequest true "Fields to change"
// @Success 200 {object} domain.TrainerProfile
// @Router /trainer/profile [put]
func (h *TrainerHandler) UpdateProfile(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req UpdateTrainerProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := h.accountService.UpdateTrainerProfile(c.Request.Context(), trainerID, req.Experience, req.ContactNo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
