package service

import (
	"alcyxob/gym-membership/internal/domain"
	"alcyxob/gym-membership/internal/email"
	"alcyxob/gym-membership/internal/repository"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultDispatchTimeout bounds background notification work.
const DefaultDispatchTimeout = 10 * time.Second

// Dispatcher runs fire-and-forget work. The default starts a goroutine;
// tests pass one that runs f inline.
type Dispatcher func(f func())

// GoDispatcher runs f on a new goroutine.
func GoDispatcher(f func()) { go f() }

// Message is the content of an inbox entry.
type Message struct {
	Title    string
	Body     string
	Category domain.NotificationCategory
}

// NotificationService manages user inboxes and mirrors selected messages to email.
type NotificationService interface {
	Notify(ctx context.Context, userID primitive.ObjectID, msg Message) error
	// NotifyUsers writes one entry per user. When mirror is set the message is
	// also emailed to every user in the batch.
	NotifyUsers(ctx context.Context, users []domain.User, msg Message, mirror bool) error
	List(ctx context.Context, userID primitive.ObjectID, filter repository.NotificationFilter) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MarkRead(ctx context.Context, userID, id primitive.ObjectID) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error)
	// SendExpiryReminders notifies members whose membership ends within the
	// next days days. Re-running on the same day writes nothing new.
	SendExpiryReminders(ctx context.Context, now time.Time, days int) (int, error)
}

type notificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	mailer        email.Sender
}

// NewNotificationService creates a NotificationService. A nil mailer disables
// the email mirror.
func NewNotificationService(notifications repository.NotificationRepository, users repository.UserRepository, mailer email.Sender) NotificationService {
	if mailer == nil {
		mailer = email.NopSender{}
	}
	return &notificationService{
		notifications: notifications,
		users:         users,
		mailer:        mailer,
	}
}

func (s *notificationService) Notify(ctx context.Context, userID primitive.ObjectID, msg Message) error {
	n := &domain.Notification{
		UserID:   userID,
		Title:    msg.Title,
		Message:  msg.Body,
		Category: msg.Category,
	}
	_, err := s.notifications.Create(ctx, n)
	return err
}

func (s *notificationService) NotifyUsers(ctx context.Context, users []domain.User, msg Message, mirror bool) error {
	if len(users) == 0 {
		return nil
	}
	batch := make([]domain.Notification, 0, len(users))
	addresses := make([]string, 0, len(users))
	for _, u := range users {
		batch = append(batch, domain.Notification{
			UserID:   u.ID,
			Title:    msg.Title,
			Message:  msg.Body,
			Category: msg.Category,
		})
		if u.Email != "" {
			addresses = append(addresses, u.Email)
		}
	}
	if err := s.notifications.CreateMany(ctx, batch); err != nil {
		return err
	}
	if mirror {
		if err := s.mailer.Send(ctx, addresses, msg.Title, msg.Body); err != nil {
			// Inbox entries are already written; email is best effort
			log.Printf("WARN: Email mirror failed for %q: %v", msg.Title, err)
		}
	}
	return nil
}

func (s *notificationService) List(ctx context.Context, userID primitive.ObjectID, filter repository.NotificationFilter) ([]domain.Notification, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, newError(ErrValidation, fmt.Sprintf("unknown notification category %q", filter.Category))
	}
	return s.notifications.ListByUser(ctx, userID, filter)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.notifications.CountUnread(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id primitive.ObjectID) (*domain.Notification, error) {
	n, err := s.notifications.MarkRead(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotificationNotFound
	}
	return n, err
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.notifications.MarkAllRead(ctx, userID)
}

func (s *notificationService) SendExpiryReminders(ctx context.Context, now time.Time, days int) (int, error) {
	if days <= 0 {
		return 0, newError(ErrValidation, "reminder window must be at least one day")
	}
	now = now.UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, days+1)

	members, err := s.users.ListMembershipEndingBetween(ctx, from, to)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, m := range members {
		if !m.IsMember() || m.MembershipEndDate == nil {
			continue
		}
		end := m.MembershipEndDate.UTC().Format("2006-01-02")
		n := &domain.Notification{
			UserID:   m.ID,
			Title:    "Membership expiring soon",
			Message:  fmt.Sprintf("Your membership ends on %s. Renew to keep your facility access.", end),
			Category: domain.CategoryWarning,
		}
		created, err := s.notifications.CreateIfAbsent(ctx, n)
		if err != nil {
			log.Printf("ERROR: Expiry reminder for user %s failed: %v", m.ID.Hex(), err)
			continue
		}
		if !created {
			continue
		}
		sent++
		if m.Email != "" {
			if err := s.mailer.Send(ctx, []string{m.Email}, n.Title, n.Message); err != nil {
				log.Printf("WARN: Expiry reminder email to user %s failed: %v", m.ID.Hex(), err)
			}
		}
	}
	return sent, nil
}

// dispatchNotify runs fn in the background with its own deadline, detached
// from the request context. Failures are logged and never reach the caller.
func dispatchNotify(dispatch Dispatcher, timeout time.Duration, what string, fn func(ctx context.Context) error) {
	if timeout <= 0 {
		timeout = DefaultDispatchTimeout
	}
	dispatch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Printf("ERROR: Notification dispatch (%s) failed: %v", what, err)
		}
	})
}
