package service

import "alcyxob/gym-membership/internal/domain"

// CheckTransition validates a status change on a personal plan.
//
//	not_created -> in_progress   requestee only
//	in_progress -> completed     trainers only
//	completed   -> anything      rejected
//	X           -> X             allowed; edit rights are checked separately
func CheckTransition(plan *domain.Plan, actor *domain.User, to domain.PlanStatus) error {
	if !to.Valid() {
		return ErrInvalidStatus
	}
	from := plan.Status
	if from == domain.StatusCompleted {
		return ErrPlanCompleted
	}
	if from == to {
		return nil
	}

	switch {
	case from == domain.StatusNotCreated && to == domain.StatusInProgress:
		if !plan.IsRequestee(actor.ID) {
			return ErrNotRequestee
		}
		return nil
	case from == domain.StatusInProgress && to == domain.StatusCompleted:
		if !actor.IsTrainer() {
			return ErrTrainerOnly
		}
		return nil
	}
	return transitionError(from, to)
}

// CheckFieldEdit rejects a patch from a non-trainer that touches anything
// besides status. The whole patch is refused, nothing is applied partially.
func CheckFieldEdit(actor *domain.User, patch *PlanPatch) error {
	if actor.IsTrainer() {
		return nil
	}
	if patch.HasFieldEdits() {
		return ErrFieldEditForbidden
	}
	return nil
}
