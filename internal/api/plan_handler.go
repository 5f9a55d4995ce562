package api

import (
	"alcyxob/gym-membership/internal/domain"
	"alcyxob/gym-membership/internal/service"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanHandler serves meal and workout plans. Both kinds share the handlers;
// the :kind path segment selects one.
type PlanHandler struct {
	planService service.PlanService
}

func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// --- DTOs ---

type RequestPlanRequest struct {
	TrainerID   string `json:"trainerId" binding:"required"`
	Name        string `json:"name"`
	FitnessGoal string `json:"fitnessGoal"`
	Allergies   string `json:"allergies"`
}

// ItemRequest is one plan item. ID refers to an existing item of the plan.
type ItemRequest struct {
	ID          *string  `json:"id"`
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Calories    int      `json:"calories" binding:"gte=0"`
	Protein     int      `json:"protein" binding:"gte=0"`
	Carbs       int      `json:"carbs" binding:"gte=0"`
	Allergens   []string `json:"allergens"`
	Sets        int      `json:"sets" binding:"gte=0"`
	Reps        int      `json:"reps" binding:"gte=0"`
	RestSeconds int      `json:"restSeconds" binding:"gte=0"`
}

// PlanFieldsRequest carries the editable plan fields. Absent fields stay unchanged.
type PlanFieldsRequest struct {
	Name           *string `json:"name"`
	FitnessGoal    *string `json:"fitnessGoal"`
	Instructions   *string `json:"instructions"`
	CalorieIntake  *int    `json:"calorieIntake"`
	Protein        *int    `json:"protein"`
	Carbs          *int    `json:"carbs"`
	Allergies      *string `json:"allergies"`
	IntensityLevel *string `json:"intensityLevel"`
	DurationDays   *int    `json:"durationDays"`
}

// UpdatePlanRequest is a partial update. Omitting items keeps the stored
// items; "items": [] removes them all.
type UpdatePlanRequest struct {
	Status *domain.PlanStatus `json:"status"`
	PlanFieldsRequest
	Items *[]ItemRequest `json:"items" binding:"omitempty,dive"`
}

type CreateGeneralPlanRequest struct {
	PlanFieldsRequest
	Items []ItemRequest `json:"items" binding:"dive"`
}

type FeedbackRequest struct {
	Comment string `json:"comment" binding:"required"`
}

// RequestPlan godoc
// @Summary Request a personal plan from a trainer
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param kind path string true "meal or workout"
// @Param request body RequestPlanRequest true "Plan request"
// @Success 201 {object} domain.Plan
// @Failure 409 {object} gin.H "An open request of this kind already exists"
// @Router /plans/{kind}/request [post]
func (h *PlanHandler) RequestPlan(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req RequestPlanRequest
	if !bindJSON(c, &req) {
		return
	}
	trainerID, err := primitive.ObjectIDFromHex(req.TrainerID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid trainerId format.")
		return
	}

	plan, err := h.planService.RequestPlan(c.Request.Context(), userID, kind, service.PlanRequest{
		TrainerID:   trainerID,
		Name:        req.Name,
		FitnessGoal: req.FitnessGoal,
		Allergies:   req.Allergies,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// CreateGeneralPlan godoc
// @Summary Create a general plan template
// @Tags Plans
// @Security BearerAuth
// @Param kind path string true "meal or workout"
// @Success 201 {object} service.PlanDetail
// @Router /plans/{kind}/general [post]
func (h *PlanHandler) CreateGeneralPlan(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CreateGeneralPlanRequest
	if !bindJSON(c, &req) {
		return
	}
	items, ok := toItemInputs(c, req.Items)
	if !ok {
		return
	}

	detail, err := h.planService.CreateGeneralPlan(c.Request.Context(), userID, kind, req.PlanFieldsRequest.toFields(), items)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

// UpdatePlan godoc
// @Summary Update a plan
// @Description Applies a status change and/or field edits. Meal plan items are
// @Description checked against the declared allergies; any conflict rejects the whole update.
// @Tags Plans
// @Security BearerAuth
// @Param kind path string true "meal or workout"
// @Param id path string true "Plan ID"
// @Success 200 {object} service.PlanDetail
// @Failure 400 {object} gin.H "Invalid transition or allergen conflicts"
// @Failure 403 {object} gin.H "Not allowed for this role"
// @Router /plans/{kind}/{id} [put]
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	planID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req UpdatePlanRequest
	if !bindJSON(c, &req) {
		return
	}

	patch := service.PlanPatch{
		Status:     req.Status,
		PlanFields: req.PlanFieldsRequest.toFields(),
	}
	if req.Items != nil {
		items, ok := toItemInputs(c, *req.Items)
		if !ok {
			return
		}
		patch.Items = &items
	}

	detail, err := h.planService.UpdatePlan(c.Request.Context(), userID, kind, planID, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *PlanHandler) GetPlan(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	planID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	detail, err := h.planService.GetPlan(c.Request.Context(), userID, kind, planID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ListMyPlans returns the member's own plans, or a trainer's assigned plans.
func (h *PlanHandler) ListMyPlans(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	plans, err := h.planService.ListMyPlans(c.Request.Context(), userID, kind)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNilPlans(plans))
}

// ListTrainerRequests godoc
// @Summary Open plan requests assigned to the trainer
// @Tags Trainer
// @Security BearerAuth
// @Param kind query string false "meal or workout; both when omitted"
// @Router /trainer/requests [get]
func (h *PlanHandler) ListTrainerRequests(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	kind := domain.PlanKind(strings.ToLower(c.Query("kind")))
	if kind != "" && !kind.Valid() {
		abortWithError(c, http.StatusBadRequest, "kind must be 'meal' or 'workout'")
		return
	}
	plans, err := h.planService.ListTrainerRequests(c.Request.Context(), userID, kind)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNilPlans(plans))
}

func (h *PlanHandler) AddFeedback(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	planID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req FeedbackRequest
	if !bindJSON(c, &req) {
		return
	}
	fb, err := h.planService.AddFeedback(c.Request.Context(), userID, kind, planID, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fb)
}

// DeletePlan is admin only.
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	planID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.planService.DeletePlan(c.Request.Context(), planID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r PlanFieldsRequest) toFields() service.PlanFields {
	return service.PlanFields{
		Name:           r.Name,
		FitnessGoal:    r.FitnessGoal,
		Instructions:   r.Instructions,
		CalorieIntake:  r.CalorieIntake,
		Protein:        r.Protein,
		Carbs:          r.Carbs,
		Allergies:      r.Allergies,
		IntensityLevel: r.IntensityLevel,
		DurationDays:   r.DurationDays,
	}
}

// toItemInputs converts request items, aborting with 400 on a malformed id.
func toItemInputs(c *gin.Context, reqs []ItemRequest) ([]service.ItemInput, bool) {
	items := make([]service.ItemInput, 0, len(reqs))
	for _, r := range reqs {
		in := service.ItemInput{
			Name:        r.Name,
			Description: r.Description,
			Category:    r.Category,
			Calories:    r.Calories,
			Protein:     r.Protein,
			Carbs:       r.Carbs,
			Allergens:   r.Allergens,
			Sets:        r.Sets,
			Reps:        r.Reps,
			RestSeconds: r.RestSeconds,
		}
		if r.ID != nil && *r.ID != "" {
			id, err := primitive.ObjectIDFromHex(*r.ID)
			if err != nil {
				abortWithError(c, http.StatusBadRequest, "Invalid item id format.")
				return nil, false
			}
			in.ID = &id
		}
		items = append(items, in)
	}
	return items, true
}

func nonNilPlans(plans []domain.Plan) []domain.Plan {
	if plans == nil {
		return []domain.Plan{}
	}
	return plans
}
