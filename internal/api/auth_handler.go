package api

import (
	"alcyxob/gym-membership/internal/domain"
	"alcyxob/gym-membership/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService    service.AuthService
	accountService service.AccountService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService, accountService service.AccountService) *AuthHandler {
	return &AuthHandler{authService: authService, accountService: accountService}
}

// --- Request/Response Structs ---

// RegisterRequest has no role: every self-registered account is a member.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// UserResponse excludes sensitive info like password hash
type UserResponse struct {
	ID                  string      `json:"id"`
	Name                string      `json:"name"`
	Email               string      `json:"email"`
	Role                domain.Role `json:"role"`
	MembershipTier      domain.Tier `json:"membershipTier"`
	MembershipStartDate *time.Time  `json:"membershipStartDate,omitempty"`
	MembershipEndDate   *time.Time  `json:"membershipEndDate,omitempty"`
	MembershipActive    bool        `json:"membershipActive"`
	CreatedAt           time.Time   `json:"createdAt"`
}

// IdentityResponse is a user plus the role-specific parts of their identity.
type IdentityResponse struct {
	UserResponse
	TrainerProfile *domain.TrainerProfile `json:"trainerProfile,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// --- Handler Methods ---

// Register godoc
// @Summary Register a new member
// @Tags Auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "Registration details"
// @Success 201 {object} UserResponse "User created successfully"
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 409 {object} gin.H "Conflict (email already exists)"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MapUserToResponse(user))
}

// Login godoc
// @Summary Log in a user
// @Description Authenticates a user and returns a JWT token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse "Login successful"
// @Failure 401 {object} gin.H "Unauthorized (invalid credentials)"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token: token,
		User:  MapUserToResponse(user),
	})
}

// Me godoc
// @Summary Current identity
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} IdentityResponse
// @Router /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	identity, err := h.accountService.GetIdentity(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapIdentityToResponse(identity))
}

// MapUserToResponse converts a domain User to a UserResponse DTO.
func MapUserToResponse(user *domain.User) UserResponse {
	if user == nil {
		return UserResponse{}
	}
	return UserResponse{
		ID:                  user.ID.Hex(),
		Name:                user.Name,
		Email:               user.Email,
		Role:                user.Role,
		MembershipTier:      user.MembershipTier,
		MembershipStartDate: user.MembershipStartDate,
		MembershipEndDate:   user.MembershipEndDate,
		MembershipActive:    user.IsMembershipActive(time.Now()),
		CreatedAt:           user.CreatedAt,
	}
}

// MapIdentityToResponse renders whichever identity variant the user has.
func MapIdentityToResponse(identity domain.Identity) IdentityResponse {
	resp := IdentityResponse{UserResponse: MapUserToResponse(identity.Account())}
	if t, ok := identity.(domain.TrainerIdentity); ok {
		resp.TrainerProfile = t.Profile
	}
	return resp
}
