package service

import (
	"alcyxob/gym-membership/internal/domain"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCheckTransition(t *testing.T) {
	requestee := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleMember}
	otherMember := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleMember}
	trainer := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleTrainer}
	admin := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleAdmin}

	plan := func(status domain.PlanStatus) *domain.Plan {
		id := requestee.ID
		return &domain.Plan{Status: status, RequesteeID: &id, AssignedTrainerID: trainer.ID, PlanType: domain.PlanPersonal}
	}

	tests := []struct {
		name    string
		from    domain.PlanStatus
		to      domain.PlanStatus
		actor   *domain.User
		wantErr error
	}{
		{"requestee submits", domain.StatusNotCreated, domain.StatusInProgress, requestee, nil},
		{"other member submits", domain.StatusNotCreated, domain.StatusInProgress, otherMember, ErrPermission},
		{"trainer submits for member", domain.StatusNotCreated, domain.StatusInProgress, trainer, ErrPermission},
		{"trainer completes", domain.StatusInProgress, domain.StatusCompleted, trainer, nil},
		{"member completes", domain.StatusInProgress, domain.StatusCompleted, requestee, ErrPermission},
		{"admin completes", domain.StatusInProgress, domain.StatusCompleted, admin, ErrPermission},
		{"skip to completed", domain.StatusNotCreated, domain.StatusCompleted, trainer, ErrInvalidTransition},
		{"move backwards", domain.StatusInProgress, domain.StatusNotCreated, trainer, ErrInvalidTransition},
		{"reopen by trainer", domain.StatusCompleted, domain.StatusInProgress, trainer, ErrInvalidTransition},
		{"reopen by requestee", domain.StatusCompleted, domain.StatusInProgress, requestee, ErrInvalidTransition},
		{"reopen by admin", domain.StatusCompleted, domain.StatusNotCreated, admin, ErrInvalidTransition},
		{"completed no-op", domain.StatusCompleted, domain.StatusCompleted, trainer, ErrInvalidTransition},
		{"no-op", domain.StatusInProgress, domain.StatusInProgress, requestee, nil},
		{"unknown status", domain.StatusInProgress, domain.PlanStatus("archived"), trainer, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTransition(plan(tt.from), tt.actor, tt.to)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want category %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckFieldEdit(t *testing.T) {
	member := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleMember}
	trainer := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleTrainer}

	statusOnly := &PlanPatch{Status: statusPtr(domain.StatusInProgress)}
	withGoal := &PlanPatch{Status: statusPtr(domain.StatusInProgress), PlanFields: PlanFields{FitnessGoal: strPtr("bulk")}}
	emptyItems := []ItemInput{}
	withItems := &PlanPatch{Items: &emptyItems}

	if err := CheckFieldEdit(member, statusOnly); err != nil {
		t.Errorf("status-only patch rejected: %v", err)
	}
	if err := CheckFieldEdit(member, withGoal); !errors.Is(err, ErrFieldEditForbidden) {
		t.Errorf("expected ErrFieldEditForbidden, got %v", err)
	}
	if err := CheckFieldEdit(member, withItems); !errors.Is(err, ErrFieldEditForbidden) {
		t.Errorf("items key counts as a field edit, got %v", err)
	}
	if err := CheckFieldEdit(trainer, withGoal); err != nil {
		t.Errorf("trainer field edit rejected: %v", err)
	}
}
