package service

import (
	"alcyxob/gym-membership/internal/domain"
	"alcyxob/gym-membership/internal/repository"
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccountService manages roles, membership data and trainer profiles.
type AccountService interface {
	GetIdentity(ctx context.Context, userID primitive.ObjectID) (domain.Identity, error)
	// EnsureTrainerProfile returns the trainer's profile, creating an empty
	// one if it is missing. Calling it twice is harmless.
	EnsureTrainerProfile(ctx context.Context, user *domain.User) (*domain.TrainerProfile, error)
	PromoteToTrainer(ctx context.Context, userID primitive.ObjectID) (domain.Identity, error)
	DemoteTrainer(ctx context.Context, userID primitive.ObjectID) (domain.Identity, error)
	UpdateTier(ctx context.Context, userID primitive.ObjectID, tier string) (*domain.User, error)
	UpdateMembershipDates(ctx context.Context, userID primitive.ObjectID, start, end *time.Time) (*domain.User, error)
	GetTrainerProfile(ctx context.Context, userID primitive.ObjectID) (*domain.TrainerProfile, error)
	UpdateTrainerProfile(ctx context.Context, userID primitive.ObjectID, experience, contactNo *string) (*domain.TrainerProfile, error)
	// BootstrapAdmin creates an admin account unless the email is taken.
	BootstrapAdmin(ctx context.Context, name, email, password string) error
}

type accountService struct {
	tx       repository.Transactor
	users    repository.UserRepository
	profiles repository.TrainerProfileRepository
}

// NewAccountService creates a new AccountService.
func NewAccountService(tx repository.Transactor, users repository.UserRepository, profiles repository.TrainerProfileRepository) AccountService {
	return &accountService{tx: tx, users: users, profiles: profiles}
}

func (s *accountService) GetIdentity(ctx context.Context, userID primitive.ObjectID) (domain.Identity, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var profile *domain.TrainerProfile
	if user.IsTrainer() {
		profile, err = s.profiles.GetByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if profile == nil {
			log.Printf("WARN: Trainer %s has no profile", user.ID.Hex())
		}
	}
	return domain.NewIdentity(user, profile), nil
}

func (s *accountService) EnsureTrainerProfile(ctx context.Context, user *domain.User) (*domain.TrainerProfile, error) {
	if !user.IsTrainer() {
		return nil, ErrNotTrainer
	}
	return s.profiles.Ensure(ctx, user.ID)
}

// PromoteToTrainer switches a member to the trainer role and creates their
// profile in the same transaction.
func (s *accountService) PromoteToTrainer(ctx context.Context, userID primitive.ObjectID) (domain.Identity, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() {
		return nil, ErrRoleChangeForbidden
	}

	var profile *domain.TrainerProfile
	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if !user.IsTrainer() {
			if err := s.users.UpdateRole(txCtx, user.ID, domain.RoleTrainer); err != nil {
				return err
			}
		}
		user.Role = domain.RoleTrainer
		var err error
		profile, err = s.EnsureTrainerProfile(txCtx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Printf("INFO: User %s promoted to trainer", user.ID.Hex())
	return domain.NewIdentity(user, profile), nil
}

// DemoteTrainer turns a trainer back into a member and removes the profile.
func (s *accountService) DemoteTrainer(ctx context.Context, userID primitive.ObjectID) (domain.Identity, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsTrainer() {
		return nil, ErrNotTrainer
	}

	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.users.UpdateRole(txCtx, user.ID, domain.RoleMember); err != nil {
			return err
		}
		return s.profiles.DeleteByUserID(txCtx, user.ID)
	})
	if err != nil {
		return nil, err
	}
	user.Role = domain.RoleMember
	log.Printf("INFO: Trainer %s demoted to member", user.ID.Hex())
	return domain.NewIdentity(user, nil), nil
}

func (s *accountService) UpdateTier(ctx context.Context, userID primitive.ObjectID, raw string) (*domain.User, error) {
	tier, err := domain.ParseTier(strings.TrimSpace(raw))
	if err != nil {
		return nil, validationError(err)
	}
	if err := s.users.UpdateTier(ctx, userID, tier); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.getUser(ctx, userID)
}

// UpdateMembershipDates sets or clears the membership window. Both nil
// deactivates the membership.
func (s *accountService) UpdateMembershipDates(ctx context.Context, userID primitive.ObjectID, start, end *time.Time) (*domain.User, error) {
	if start != nil && end != nil && end.Before(*start) {
		return nil, ErrInvalidDates
	}
	if err := s.users.UpdateMembershipDates(ctx, userID, start, end); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.getUser(ctx, userID)
}

func (s *accountService) GetTrainerProfile(ctx context.Context, userID primitive.ObjectID) (*domain.TrainerProfile, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsTrainer() {
		return nil, ErrNotTrainer
	}
	profile, err := s.profiles.GetByUserID(ctx, user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	return profile, err
}

func (s *accountService) UpdateTrainerProfile(ctx context.Context, userID primitive.ObjectID, experience, contactNo *string) (*domain.TrainerProfile, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.EnsureTrainerProfile(ctx, user)
	if err != nil {
		return nil, err
	}
	if experience != nil {
		profile.Experience = strings.TrimSpace(*experience)
	}
	if contactNo != nil {
		profile.ContactNo = strings.TrimSpace(*contactNo)
	}
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *accountService) BootstrapAdmin(ctx context.Context, name, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return ErrMissingCredentials
	}
	if name == "" {
		name = "Administrator"
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		if !existing.IsAdmin() {
			log.Printf("WARN: Bootstrap admin email %s belongs to a %s account, leaving it unchanged", email, existing.Role)
		}
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	_, err = createAccount(ctx, s.users, name, email, password, domain.RoleAdmin)
	if errors.Is(err, ErrUserAlreadyExists) {
		return nil
	}
	return err
}

func (s *accountService) getUser(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}
