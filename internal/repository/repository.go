package repository

import (
	"alcyxob/gym-membership/internal/domain" // Import our defined domain models
	"context"                                // Standard for request-scoped deadlines, cancellation signals, etc.
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive" // For using ObjectIDs
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrStale        = RepositoryError("document changed since it was read")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// Transactor runs fn inside a single datastore transaction. Repository calls
// made with the ctx passed to fn take part in that transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	UpdateRole(ctx context.Context, id primitive.ObjectID, role domain.Role) error
	UpdateTier(ctx context.Context, id primitive.ObjectID, tier domain.Tier) error
	UpdateMembershipDates(ctx context.Context, id primitive.ObjectID, start, end *time.Time) error
	// ListMembershipEndingBetween returns users whose membership end date is in [from, to).
	ListMembershipEndingBetween(ctx context.Context, from, to time.Time) ([]domain.User, error)
}

// TrainerProfileRepository stores the 1:1 trainer profile records.
type TrainerProfileRepository interface {
	// Ensure returns the profile for userID, creating an empty one if absent.
	Ensure(ctx context.Context, userID primitive.ObjectID) (*domain.TrainerProfile, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.TrainerProfile, error)
	Update(ctx context.Context, profile *domain.TrainerProfile) error
	DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error
}

// FacilityRepository is the read side of the facility catalog plus admin creation.
type FacilityRepository interface {
	Create(ctx context.Context, facility *domain.Facility) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Facility, error)
	GetByCode(ctx context.Context, code string) (*domain.Facility, error)
	List(ctx context.Context) ([]domain.Facility, error)
}

// AccessLogFilter narrows access log queries. Zero values are ignored.
type AccessLogFilter struct {
	UserID     *primitive.ObjectID
	FacilityID *primitive.ObjectID
	Status     domain.AccessStatus
	From       *time.Time
	To         *time.Time
	Limit      int64
}

// AccessLogRepository is append-only: there is no update or delete.
type AccessLogRepository interface {
	Append(ctx context.Context, entry *domain.AccessLogEntry) (primitive.ObjectID, error)
	Find(ctx context.Context, filter AccessLogFilter) ([]domain.AccessLogEntry, error)
}

// PlanRepository defines the interface for interacting with plan data.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error)
	// Update writes plan only if its stored status is still expected.
	// Returns ErrStale when the plan exists with another status.
	Update(ctx context.Context, plan *domain.Plan, expected domain.PlanStatus) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountOpenForRequestee(ctx context.Context, requesteeID primitive.ObjectID, kind domain.PlanKind) (int64, error)
	ListByRequestee(ctx context.Context, requesteeID primitive.ObjectID, kind domain.PlanKind) ([]domain.Plan, error)
	// ListByTrainer returns personal plans assigned to trainerID in any of
	// statuses, newest first. An empty kind matches both kinds.
	ListByTrainer(ctx context.Context, trainerID primitive.ObjectID, kind domain.PlanKind, statuses []domain.PlanStatus) ([]domain.Plan, error)
}

// PlanItemRepository stores plan line items.
type PlanItemRepository interface {
	GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanItem, error)
	// ReplaceForPlan deletes every item of planID and inserts items in order.
	ReplaceForPlan(ctx context.Context, planID primitive.ObjectID, items []domain.PlanItem) error
	DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error
}

// PlanFeedbackRepository stores comments on plans.
type PlanFeedbackRepository interface {
	Create(ctx context.Context, feedback *domain.PlanFeedback) (primitive.ObjectID, error)
	GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanFeedback, error)
	DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error
}

// NotificationFilter narrows inbox queries.
type NotificationFilter struct {
	UnreadOnly bool
	Category   domain.NotificationCategory
}

// NotificationRepository stores inbox entries.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) (primitive.ObjectID, error)
	CreateMany(ctx context.Context, ns []domain.Notification) error
	// CreateIfAbsent inserts n unless an entry with the same user, title and
	// message exists. It reports whether a new entry was written.
	CreateIfAbsent(ctx context.Context, n *domain.Notification) (bool, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, filter NotificationFilter) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MarkRead(ctx context.Context, userID, id primitive.ObjectID) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// ReportRepository defines the interface for interacting with export metadata.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.Report) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Report, error)
	List(ctx context.Context) ([]domain.Report, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}
