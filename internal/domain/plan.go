// internal/domain/plan.go
package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanKind distinguishes meal plans from workout plans. Both share one
// collection and one lifecycle.
type PlanKind string

const (
	KindMeal    PlanKind = "meal"
	KindWorkout PlanKind = "workout"
)

func (k PlanKind) Valid() bool {
	return k == KindMeal || k == KindWorkout
}

// PlanType separates member-scoped plans from reusable templates.
type PlanType string

const (
	PlanPersonal PlanType = "personal"
	PlanGeneral  PlanType = "general"
)

// PlanStatus type for the personal plan lifecycle
type PlanStatus string

const (
	StatusNotCreated PlanStatus = "not_created" // Requested by the member, nothing filled in yet
	StatusInProgress PlanStatus = "in_progress" // Member submitted it for the trainer
	StatusCompleted  PlanStatus = "completed"   // Trainer finished it; terminal
)

func (s PlanStatus) Valid() bool {
	switch s {
	case StatusNotCreated, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Plan is a meal or workout plan. Personal plans move through the status
// lifecycle; general plans are templates and are created completed.
type Plan struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Kind              PlanKind            `bson:"kind" json:"kind"`
	PlanType          PlanType            `bson:"planType" json:"planType"`
	Status            PlanStatus          `bson:"status" json:"status"`
	RequesteeID       *primitive.ObjectID `bson:"requesteeId,omitempty" json:"requesteeId,omitempty"` // Nil for general plans
	AssignedTrainerID primitive.ObjectID  `bson:"assignedTrainerId" json:"assignedTrainerId"`
	// Open is true while a personal plan is outstanding. The partial unique
	// index on (requesteeId, kind) only covers open plans.
	Open bool `bson:"open" json:"-"`

	Name           string `bson:"name" json:"name"`
	FitnessGoal    string `bson:"fitnessGoal" json:"fitnessGoal"`
	Instructions   string `bson:"instructions,omitempty" json:"instructions,omitempty"`
	CalorieIntake  int    `bson:"calorieIntake,omitempty" json:"calorieIntake,omitempty"` // Meal plans
	Protein        int    `bson:"protein,omitempty" json:"protein,omitempty"`
	Carbs          int    `bson:"carbs,omitempty" json:"carbs,omitempty"`
	Allergies      string `bson:"allergies,omitempty" json:"allergies,omitempty"`           // Meal plans, comma separated
	IntensityLevel string `bson:"intensityLevel,omitempty" json:"intensityLevel,omitempty"` // Workout plans
	DurationDays   int    `bson:"durationDays,omitempty" json:"durationDays,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsOutstanding reports whether the plan still counts against the member's
// one-open-request limit.
func (p *Plan) IsOutstanding() bool {
	return p.PlanType == PlanPersonal && p.Status != StatusCompleted
}

// IsRequestee reports whether userID owns this plan.
func (p *Plan) IsRequestee(userID primitive.ObjectID) bool {
	return p.RequesteeID != nil && *p.RequesteeID == userID
}

// DeclaredAllergies splits the free-text allergy field into trimmed entries.
func (p *Plan) DeclaredAllergies() []string {
	return SplitAllergies(p.Allergies)
}

// SplitAllergies turns "peanuts, Shellfish" into ["peanuts", "Shellfish"].
func SplitAllergies(text string) []string {
	var out []string
	for _, part := range strings.Split(text, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// PlanFeedback is a comment left on a plan by its requestee or a trainer.
type PlanFeedback struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlanID    primitive.ObjectID `bson:"planId" json:"planId"`
	AuthorID  primitive.ObjectID `bson:"authorId" json:"authorId"`
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
