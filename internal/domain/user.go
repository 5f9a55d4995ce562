package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleMember  Role = "member"
	RoleTrainer Role = "trainer"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleTrainer, RoleAdmin:
		return true
	}
	return false
}

// User represents an account in the system (member, trainer or admin).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Membership ---
	MembershipTier      Tier       `bson:"membershipTier" json:"membershipTier"`
	MembershipStartDate *time.Time `bson:"membershipStartDate,omitempty" json:"membershipStartDate,omitempty"`
	MembershipEndDate   *time.Time `bson:"membershipEndDate,omitempty" json:"membershipEndDate,omitempty"`
}

// Helper methods
func (u *User) IsTrainer() bool {
	return u.Role == RoleTrainer
}

func (u *User) IsMember() bool {
	return u.Role == RoleMember
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsMembershipActive reports whether both membership dates are set and the
// calendar day of now falls inside [start, end], inclusive on both ends.
func (u *User) IsMembershipActive(now time.Time) bool {
	if u.MembershipStartDate == nil || u.MembershipEndDate == nil {
		return false
	}
	today := truncateDay(now)
	start := truncateDay(*u.MembershipStartDate)
	end := truncateDay(*u.MembershipEndDate)
	return !today.Before(start) && !today.After(end)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// TrainerProfile holds trainer-only details. A profile exists exactly when the
// owning user has the trainer role.
type TrainerProfile struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	Experience string             `bson:"experience" json:"experience"`
	ContactNo  string             `bson:"contactNo" json:"contactNo"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}
