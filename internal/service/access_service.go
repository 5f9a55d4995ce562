package service

import (
	"alcyxob/gym-membership/internal/domain"
	"alcyxob/gym-membership/internal/repository"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScanRequest is one decoded facility access attempt.
type ScanRequest struct {
	FacilityID   *primitive.ObjectID
	FacilityCode string
	Method       domain.ScanMethod
	Location     string
}

// AccessDecision is the outcome of a scan, mirroring the log entry written for it.
type AccessDecision struct {
	Granted      bool
	Reason       string
	UserTier     string
	FacilityTier domain.Tier
	FacilityName string
	Timestamp    time.Time
	Entry        *domain.AccessLogEntry
}

// AccessService decides facility access and owns the facility catalog.
type AccessService interface {
	Scan(ctx context.Context, userID primitive.ObjectID, req ScanRequest) (*AccessDecision, error)
	CreateFacility(ctx context.Context, name, code, requiredTier string) (*domain.Facility, error)
	ListFacilities(ctx context.Context) ([]domain.Facility, error)
	ListAccessLogs(ctx context.Context, filter repository.AccessLogFilter) ([]domain.AccessLogEntry, error)
}

type accessService struct {
	tx            repository.Transactor
	users         repository.UserRepository
	facilities    repository.FacilityRepository
	accessLogs    repository.AccessLogRepository
	notifications NotificationService

	dispatch        Dispatcher
	dispatchTimeout time.Duration
	now             func() time.Time
}

// AccessOption customises an AccessService.
type AccessOption func(*accessService)

// WithAccessDispatcher replaces the goroutine used for admin alerts.
func WithAccessDispatcher(d Dispatcher) AccessOption {
	return func(s *accessService) { s.dispatch = d }
}

// WithAccessClock replaces time.Now.
func WithAccessClock(now func() time.Time) AccessOption {
	return func(s *accessService) { s.now = now }
}

// WithAlertTimeout bounds the admin alert fan-out.
func WithAlertTimeout(d time.Duration) AccessOption {
	return func(s *accessService) { s.dispatchTimeout = d }
}

// NewAccessService creates a new AccessService.
func NewAccessService(
	tx repository.Transactor,
	users repository.UserRepository,
	facilities repository.FacilityRepository,
	accessLogs repository.AccessLogRepository,
	notifications NotificationService,
	opts ...AccessOption,
) AccessService {
	s := &accessService{
		tx:              tx,
		users:           users,
		facilities:      facilities,
		accessLogs:      accessLogs,
		notifications:   notifications,
		dispatch:        GoDispatcher,
		dispatchTimeout: DefaultDispatchTimeout,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan resolves the facility, decides access and appends exactly one log
// entry in the same transaction. An unknown facility writes nothing.
func (s *accessService) Scan(ctx context.Context, userID primitive.ObjectID, req ScanRequest) (*AccessDecision, error) {
	if req.FacilityID == nil && strings.TrimSpace(req.FacilityCode) == "" {
		return nil, ErrFacilityRefRequired
	}
	if req.Method == "" {
		req.Method = domain.ScanQR
	}
	if !req.Method.Valid() {
		return nil, ErrInvalidScanMethod
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var decision *AccessDecision
	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		facility, err := s.lookupFacility(txCtx, req)
		if err != nil {
			return err
		}

		decision = decide(user, facility, s.now().UTC())
		entry := &domain.AccessLogEntry{
			UserID:         user.ID,
			FacilityID:     facility.ID,
			Timestamp:      decision.Timestamp,
			Status:         domain.AccessSuccess,
			Reason:         decision.Reason,
			UserTierAtTime: decision.UserTier,
			ScanMethod:     req.Method,
			Location:       req.Location,
		}
		if !decision.Granted {
			entry.Status = domain.AccessFailed
		}
		if _, err := s.accessLogs.Append(txCtx, entry); err != nil {
			return err
		}
		decision.Entry = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !decision.Granted {
		s.alertAdmins(user, decision)
	}
	return decision, nil
}

func (s *accessService) lookupFacility(ctx context.Context, req ScanRequest) (*domain.Facility, error) {
	var (
		facility *domain.Facility
		err      error
	)
	if req.FacilityID != nil {
		facility, err = s.facilities.GetByID(ctx, *req.FacilityID)
	} else {
		facility, err = s.facilities.GetByCode(ctx, strings.TrimSpace(req.FacilityCode))
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrFacilityNotFound
	}
	return facility, err
}

// decide applies the access rules in order: trainers always pass, then the
// membership must be active, then the tier must satisfy the facility.
func decide(user *domain.User, facility *domain.Facility, now time.Time) *AccessDecision {
	d := &AccessDecision{
		UserTier:     string(user.MembershipTier),
		FacilityTier: facility.RequiredTier,
		FacilityName: facility.Name,
		Timestamp:    now,
	}

	if user.IsTrainer() {
		d.Granted = true
		d.UserTier = domain.TrainerTierMarker
		return d
	}
	if !user.IsMembershipActive(now) {
		d.Reason = domain.ReasonInactiveMembership
		return d
	}

	ok, err := domain.EvaluateTier(user.MembershipTier, facility.RequiredTier)
	if err != nil {
		// Corrupt tier data still produces an audited denial
		d.Reason = err.Error()
		return d
	}
	if !ok {
		d.Reason = fmt.Sprintf("Required tier is %s, but your tier is %s", facility.RequiredTier, user.MembershipTier)
		return d
	}
	d.Granted = true
	return d
}

// alertAdmins notifies every account that is an admin right now.
func (s *accessService) alertAdmins(user *domain.User, d *AccessDecision) {
	msg := Message{
		Title:    "Access denied",
		Body:     fmt.Sprintf("%s (%s) was denied access to %s: %s", user.Name, user.Email, d.FacilityName, d.Reason),
		Category: domain.CategoryWarning,
	}
	dispatchNotify(s.dispatch, s.dispatchTimeout, "access alert", func(ctx context.Context) error {
		admins, err := s.users.ListByRole(ctx, domain.RoleAdmin)
		if err != nil {
			return err
		}
		return s.notifications.NotifyUsers(ctx, admins, msg, true)
	})
}

func (s *accessService) CreateFacility(ctx context.Context, name, code, requiredTier string) (*domain.Facility, error) {
	name, code = strings.TrimSpace(name), strings.TrimSpace(code)
	tier, err := domain.ParseTier(requiredTier)
	if err != nil || name == "" || code == "" {
		return nil, ErrInvalidFacility
	}
	facility := &domain.Facility{Name: name, Code: code, RequiredTier: tier}
	if _, err := s.facilities.Create(ctx, facility); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrFacilityExists
		}
		return nil, err
	}
	log.Printf("INFO: Facility %s (%s) created with required tier %s", facility.Name, facility.Code, facility.RequiredTier)
	return facility, nil
}

func (s *accessService) ListFacilities(ctx context.Context) ([]domain.Facility, error) {
	return s.facilities.List(ctx)
}

func (s *accessService) ListAccessLogs(ctx context.Context, filter repository.AccessLogFilter) ([]domain.AccessLogEntry, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, newError(ErrValidation, "'to' must not be before 'from'")
	}
	return s.accessLogs.Find(ctx, filter)
}
