package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanItem is a single line of a plan: a meal in a meal plan or an exercise in
// a workout plan. Items are replaced as a whole set on update.
type PlanItem struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlanID      primitive.ObjectID `bson:"planId" json:"planId"` // Link back to the plan
	Sequence    int                `bson:"sequence" json:"sequence"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Category    string             `bson:"category,omitempty" json:"category,omitempty"` // Meal type or muscle group

	// Meal fields
	Calories  int      `bson:"calories,omitempty" json:"calories,omitempty"`
	Protein   int      `bson:"protein,omitempty" json:"protein,omitempty"`
	Carbs     int      `bson:"carbs,omitempty" json:"carbs,omitempty"`
	Allergens []string `bson:"allergens,omitempty" json:"allergens,omitempty"`

	// Exercise fields
	Sets        int `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps        int `bson:"reps,omitempty" json:"reps,omitempty"`
	RestSeconds int `bson:"restSeconds,omitempty" json:"restSeconds,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
