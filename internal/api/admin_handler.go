package api

import (
	"alcyxob/gym-membership/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves account administration.
type AdminHandler struct {
	accountService service.AccountService
}

func NewAdminHandler(accountService service.AccountService) *AdminHandler {
	return &AdminHandler{accountService: accountService}
}

type UpdateTierRequest struct {
	Tier string `json:"tier" binding:"required"`
}

// UpdateMembershipRequest sets the membership window. Sending both as null
// deactivates the membership.
type UpdateMembershipRequest struct {
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
}

// PromoteTrainer godoc
// @Summary Promote a member to trainer
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} IdentityResponse
// @Router /admin/users/{id}/trainer [post]
func (h *AdminHandler) PromoteTrainer(c *gin.Context) {
	userID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	identity, err := h.accountService.PromoteToTrainer(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapIdentityToResponse(identity))
}

// DemoteTrainer godoc
// @Summary Demote a trainer back to member
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} IdentityResponse
// @Router /admin/users/{id}/trainer [delete]
func (h *AdminHandler) DemoteTrainer(c *gin.Context) {
	userID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	identity, err := h.accountService.DemoteTrainer(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapIdentityToResponse(identity))
}

func (h *AdminHandler) UpdateTier(c *gin.Context) {
	userID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateTierRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.accountService.UpdateTier(c.Request.Context(), userID, req.Tier)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

func (h *AdminHandler) UpdateMembership(c *gin.Context) {
	userID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateMembershipRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.accountService.UpdateMembershipDates(c.Request.Context(), userID, req.StartDate, req.EndDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}
