package api

import (
	"alcyxob/gym-membership/internal/domain"
	"alcyxob/gym-membership/internal/repository"
	"alcyxob/gym-membership/internal/scan"
	"alcyxob/gym-membership/internal/service"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FacilityHandler serves scanning and the facility catalog.
type FacilityHandler struct {
	accessService service.AccessService
}

func NewFacilityHandler(accessService service.AccessService) *FacilityHandler {
	return &FacilityHandler{accessService: accessService}
}

// --- DTOs ---

type ScanRequest struct {
	Payload    string            `json:"payload" binding:"required"`
	ScanMethod domain.ScanMethod `json:"scanMethod"`
	Location   string            `json:"location"`
}

type ScanResponse struct {
	Status       domain.AccessStatus `json:"status"`
	Reason       string              `json:"reason,omitempty"`
	UserTier     string              `json:"userTier"`
	FacilityTier domain.Tier         `json:"facilityTier"`
	FacilityName string              `json:"facilityName"`
	Timestamp    time.Time           `json:"timestamp"`
}

type CreateFacilityRequest struct {
	Name         string `json:"name" binding:"required"`
	Code         string `json:"code" binding:"required"`
	RequiredTier string `json:"requiredTier" binding:"required"`
}

// Scan godoc
// @Summary Scan into a facility
// @Description Decodes the scanned payload, decides access and records the attempt.
// @Tags Facility
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param scan body ScanRequest true "Scanned payload"
// @Success 200 {object} ScanResponse "Access granted"
// @Failure 400 {object} gin.H "Malformed payload"
// @Failure 403 {object} ScanResponse "Access denied"
// @Failure 404 {object} gin.H "Facility not found"
// @Router /facility/scan [post]
func (h *FacilityHandler) Scan(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req ScanRequest
	if !bindJSON(c, &req) {
		return
	}
	payload, err := scan.Decode(req.Payload)
	if err != nil {
		respondError(c, err)
		return
	}

	decision, err := h.accessService.Scan(c.Request.Context(), userID, service.ScanRequest{
		FacilityID:   payload.FacilityID,
		FacilityCode: payload.FacilityCode,
		Method:       req.ScanMethod,
		Location:     req.Location,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := ScanResponse{
		Status:       domain.AccessSuccess,
		Reason:       decision.Reason,
		UserTier:     decision.UserTier,
		FacilityTier: decision.FacilityTier,
		FacilityName: decision.FacilityName,
		Timestamp:    decision.Timestamp,
	}
	if !decision.Granted {
		resp.Status = domain.AccessFailed
		c.JSON(http.StatusForbidden, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateFacility godoc
// @Summary Create a facility
// @Tags Admin
// @Security BearerAuth
// @Router /admin/facilities [post]
func (h *FacilityHandler) CreateFacility(c *gin.Context) {
	var req CreateFacilityRequest
	if !bindJSON(c, &req) {
		return
	}
	facility, err := h.accessService.CreateFacility(c.Request.Context(), req.Name, req.Code, req.RequiredTier)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, facility)
}

func (h *FacilityHandler) ListFacilities(c *gin.Context) {
	facilities, err := h.accessService.ListFacilities(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if facilities == nil {
		facilities = []domain.Facility{}
	}
	c.JSON(http.StatusOK, facilities)
}

// ListAccessLogs godoc
// @Summary Query the access log
// @Tags Admin
// @Security BearerAuth
// @Param userId query string false "User ID"
// @Param facilityId query string false "Facility ID"
// @Param status query string false "success or failed"
// @Param from query string false "RFC3339 or YYYY-MM-DD"
// @Param to query string false "RFC3339 or YYYY-MM-DD"
// @Param limit query int false "Maximum entries"
// @Router /admin/access-logs [get]
func (h *FacilityHandler) ListAccessLogs(c *gin.Context) {
	filter, err := accessLogFilter(c.Query("userId"), c.Query("facilityId"), c.Query("status"), c.Query("from"), c.Query("to"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit < 0 {
			abortWithError(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	entries, err := h.accessService.ListAccessLogs(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if entries == nil {
		entries = []domain.AccessLogEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// accessLogFilter builds a filter from optional string inputs shared by the
// query endpoint and the report export.
func accessLogFilter(userID, facilityID, status, from, to string) (repository.AccessLogFilter, error) {
	var filter repository.AccessLogFilter
	if userID != "" {
		id, err := primitive.ObjectIDFromHex(userID)
		if err != nil {
			return filter, fmt.Errorf("invalid userId")
		}
		filter.UserID = &id
	}
	if facilityID != "" {
		id, err := primitive.ObjectIDFromHex(facilityID)
		if err != nil {
			return filter, fmt.Errorf("invalid facilityId")
		}
		filter.FacilityID = &id
	}
	switch s := domain.AccessStatus(status); s {
	case "":
	case domain.AccessSuccess, domain.AccessFailed:
		filter.Status = s
	default:
		return filter, fmt.Errorf("status must be 'success' or 'failed'")
	}
	var err error
	if filter.From, err = parseTimeParam("from", from, false); err != nil {
		return filter, err
	}
	if filter.To, err = parseTimeParam("to", to, true); err != nil {
		return filter, err
	}
	return filter, nil
}

// parseTimeParam accepts RFC3339 or a bare date. A bare date used as an
// upper bound covers the whole day.
func parseTimeParam(name, raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be RFC3339 or YYYY-MM-DD", name)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
