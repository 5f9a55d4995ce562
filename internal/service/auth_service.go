package service

import (
	"alcyxob/gym-membership/internal/domain"
	"alcyxob/gym-membership/internal/repository" // Import repository package
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4" // Import JWT library
	"golang.org/x/crypto/bcrypt"   // Import bcrypt
)

// --- Error Definitions ---
var (
	ErrUserAlreadyExists    = newError(ErrDuplicate, "user with this email already exists")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid email or password")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
	ErrMissingCredentials   = newError(ErrValidation, "name, email, and password cannot be empty")
)

// AuthService issues accounts and tokens.
type AuthService interface {
	// Register creates a member account. Trainers are promoted and admins
	// bootstrapped, never self-registered.
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	GetJWTSecret() string
}

// authService implements the AuthService interface.
type authService struct {
	userRepo      repository.UserRepository
	notifications NotificationService
	jwtSecret     string
	jwtExpiration time.Duration
	dispatch      Dispatcher
}

// NewAuthService creates a new instance of authService.
func NewAuthService(userRepo repository.UserRepository, notifications NotificationService, jwtSecret string, jwtExpiration time.Duration) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour
	}
	return &authService{
		userRepo:      userRepo,
		notifications: notifications,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		dispatch:      GoDispatcher,
	}
}

// Register handles new member registration and drops a welcome notification
// into the new inbox.
func (s *authService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name, email = strings.TrimSpace(name), strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	user, err := createAccount(ctx, s.userRepo, name, email, password, domain.RoleMember)
	if err != nil {
		return nil, err
	}

	userID := user.ID
	dispatchNotify(s.dispatch, DefaultDispatchTimeout, "welcome", func(ctx context.Context) error {
		return s.notifications.Notify(ctx, userID, Message{
			Title:    "Welcome to the gym",
			Body:     fmt.Sprintf("Hi %s, your account is ready. Visit the front desk to activate your membership.", name),
			Category: domain.CategorySystem,
		})
	})

	return user, nil
}

// createAccount hashes password and stores a new user with role.
func createAccount(ctx context.Context, users repository.UserRepository, name, email, password string, role domain.Role) (*domain.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user := &domain.User{
		Name:           name,
		Email:          email,
		PasswordHash:   string(hashedPassword),
		Role:           role,
		MembershipTier: domain.Tier1,
	}

	userID, err := users.Create(ctx, user)
	if err != nil {
		// Lost the race against a concurrent registration
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	user.ID = userID
	user.PasswordHash = ""
	log.Printf("INFO: Created %s account %s", role, userID.Hex())
	return user, nil
}

// Login handles user authentication and JWT generation.
func (s *authService) Login(ctx context.Context, email, password string) (token string, user *domain.User, err error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		err = newError(ErrValidation, "email and password cannot be empty")
		return
	}

	user, err = s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = ErrAuthenticationFailed
		}
		return
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	token, err = s.generateJWT(user)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}

	user.PasswordHash = ""
	return token, user, nil
}

// --- JWT Helper ---

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// generateJWT creates a new JWT token for the given user.
func (s *authService) generateJWT(user *domain.User) (string, error) {
	now := time.Now()
	claims := &jwtClaims{
		UserID: user.ID.Hex(),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "gym-membership",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// GetJWTSecret returns the JWT secret for middleware authentication
func (s *authService) GetJWTSecret() string {
	return s.jwtSecret
}
