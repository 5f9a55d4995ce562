package service

import (
	"errors"
	"fmt"

	"alcyxob/gym-membership/internal/domain"
)

// Error categories. Every error a service returns on purpose wraps exactly
// one of these, and the API layer maps them to status codes.
var (
	ErrValidation        = errors.New("validation failed")
	ErrPermission        = errors.New("permission denied")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrDuplicate         = errors.New("duplicate")
	ErrConflict          = errors.New("allergen conflict")
)

// Error is a specific failure belonging to a category. Compare against the
// specific value or its Kind with errors.Is.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// --- Lookups ---
var (
	ErrUserNotFound         = newError(ErrNotFound, "user not found")
	ErrFacilityNotFound     = newError(ErrNotFound, "facility not found")
	ErrPlanNotFound         = newError(ErrNotFound, "plan not found")
	ErrReportNotFound       = newError(ErrNotFound, "report not found")
	ErrNotificationNotFound = newError(ErrNotFound, "notification not found")
	ErrProfileNotFound      = newError(ErrNotFound, "trainer profile not found")
)

// --- Plans ---
var (
	ErrInvalidKind          = newError(ErrValidation, "plan kind must be 'meal' or 'workout'")
	ErrInvalidStatus        = newError(ErrValidation, "unknown plan status")
	ErrInvalidTrainer       = newError(ErrValidation, "assigned trainer must be an existing trainer")
	ErrPlanNameRequired     = newError(ErrValidation, "plan name is required")
	ErrUnknownItem          = newError(ErrValidation, "item does not belong to this plan")
	ErrDuplicateItem        = newError(ErrValidation, "item id appears more than once")
	ErrEmptyComment         = newError(ErrValidation, "comment cannot be empty")
	ErrTrainerCannotRequest = newError(ErrPermission, "trainers cannot request plans")
	ErrNotRequestee         = newError(ErrPermission, "only the member who requested this plan may do that")
	ErrTrainerOnly          = newError(ErrPermission, "only a trainer may complete a plan")
	ErrNotAssignedTrainer   = newError(ErrPermission, "plan is assigned to another trainer")
	ErrFieldEditForbidden   = newError(ErrPermission, "only trainers may edit plan fields")
	ErrGeneralPlanForbidden = newError(ErrPermission, "your role may not create or edit general plans")
	ErrPlanAccessDenied     = newError(ErrPermission, "you do not have access to this plan")
	ErrDuplicateRequest     = newError(ErrDuplicate, "an open plan of this kind already exists")
	ErrPlanCompleted        = newError(ErrInvalidTransition, "plan is completed and can no longer be changed")
	ErrGeneralPlanStatus    = newError(ErrInvalidTransition, "general plans have no status lifecycle")
	ErrPlanChanged          = newError(ErrInvalidTransition, "plan status changed since it was read; reload and retry")
)

// --- Accounts and access ---
var (
	ErrInvalidScanMethod   = newError(ErrValidation, "scan method must be one of qr, nfc, manual, admin")
	ErrFacilityRefRequired = newError(ErrValidation, "facility id or code is required")
	ErrInvalidFacility     = newError(ErrValidation, "facility requires name, code, and a valid tier")
	ErrInvalidDates        = newError(ErrValidation, "membership end date must not be before start date")
	ErrNotTrainer          = newError(ErrValidation, "user is not a trainer")
	ErrRoleChangeForbidden = newError(ErrValidation, "admin accounts cannot change role")
	ErrTrainerViewOnly     = newError(ErrPermission, "only trainers may view plan requests")
	ErrFacilityExists      = newError(ErrDuplicate, "a facility with this code already exists")
)

// transitionError reports a status pair that is not in the lifecycle table.
func transitionError(from, to domain.PlanStatus) error {
	return newError(ErrInvalidTransition, fmt.Sprintf("cannot move plan from %s to %s", from, to))
}

// validationError wraps a lower level failure as a validation error.
func validationError(err error) error {
	return newError(ErrValidation, err.Error())
}

// ConflictError carries the per-item allergen conflicts that rejected an update.
type ConflictError struct {
	Report ConflictReport
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%d plan item(s) contain declared allergens", len(e.Report))
}

func (e *ConflictError) Unwrap() error { return ErrConflict }
