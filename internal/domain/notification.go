package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationCategory groups inbox entries.
type NotificationCategory string

const (
	CategoryInfo    NotificationCategory = "info"
	CategoryWarning NotificationCategory = "warning"
	CategorySystem  NotificationCategory = "system"
)

func (c NotificationCategory) Valid() bool {
	switch c {
	case CategoryInfo, CategoryWarning, CategorySystem:
		return true
	}
	return false
}

// Notification is an inbox entry for one user.
type Notification struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID   `bson:"userId" json:"userId"`
	Title     string               `bson:"title" json:"title"`
	Message   string               `bson:"message" json:"message"`
	Category  NotificationCategory `bson:"category" json:"category"`
	IsRead    bool                 `bson:"isRead" json:"isRead"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
}
