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

// PlanRequest is what a member submits when asking a trainer for a plan.
type PlanRequest struct {
	TrainerID   primitive.ObjectID
	Name        string
	FitnessGoal string
	Allergies   string // Meal plans only
}

// ItemInput is one plan item in a create or update request. ID refers to an
// existing item of the same plan when set.
type ItemInput struct {
	ID          *primitive.ObjectID
	Name        string
	Description string
	Category    string
	Calories    int
	Protein     int
	Carbs       int
	Allergens   []string
	Sets        int
	Reps        int
	RestSeconds int
}

// PlanFields are the content fields shared by create and update.
type PlanFields struct {
	Name           *string
	FitnessGoal    *string
	Instructions   *string
	CalorieIntake  *int
	Protein        *int
	Carbs          *int
	Allergies      *string
	IntensityLevel *string
	DurationDays   *int
}

func (f PlanFields) any() bool {
	return f.Name != nil || f.FitnessGoal != nil || f.Instructions != nil ||
		f.CalorieIntake != nil || f.Protein != nil || f.Carbs != nil ||
		f.Allergies != nil || f.IntensityLevel != nil || f.DurationDays != nil
}

func (f PlanFields) applyTo(p *domain.Plan) {
	if f.Name != nil {
		p.Name = strings.TrimSpace(*f.Name)
	}
	if f.FitnessGoal != nil {
		p.FitnessGoal = *f.FitnessGoal
	}
	if f.Instructions != nil {
		p.Instructions = *f.Instructions
	}
	if f.CalorieIntake != nil {
		p.CalorieIntake = *f.CalorieIntake
	}
	if f.Protein != nil {
		p.Protein = *f.Protein
	}
	if f.Carbs != nil {
		p.Carbs = *f.Carbs
	}
	if f.Allergies != nil {
		p.Allergies = *f.Allergies
	}
	if f.IntensityLevel != nil {
		p.IntensityLevel = *f.IntensityLevel
	}
	if f.DurationDays != nil {
		p.DurationDays = *f.DurationDays
	}
}

// PlanPatch is a partial update. Nil fields are left untouched. A nil Items
// keeps the stored items; a non-nil empty slice deletes them all.
type PlanPatch struct {
	Status *domain.PlanStatus
	PlanFields
	Items *[]ItemInput
}

// HasFieldEdits reports whether the patch touches anything besides status.
func (p *PlanPatch) HasFieldEdits() bool {
	return p.PlanFields.any() || p.Items != nil
}

// PlanDetail is a plan together with its items and feedback.
type PlanDetail struct {
	Plan     *domain.Plan          `json:"plan"`
	Items    []domain.PlanItem     `json:"items"`
	Feedback []domain.PlanFeedback `json:"feedback,omitempty"`
}

// PlanService drives the request, fulfilment and update workflow of plans.
type PlanService interface {
	RequestPlan(ctx context.Context, actorID primitive.ObjectID, kind domain.PlanKind, req PlanRequest) (*domain.Plan, error)
	CreateGeneralPlan(ctx context.Context, actorID primitive.ObjectID, kind domain.PlanKind, fields PlanFields, items []ItemInput) (*PlanDetail, error)
	UpdatePlan(ctx context.Context, actorID primitive.ObjectID, kind domain.PlanKind, planID primitive.ObjectID, patch PlanPatch) (*PlanDetail, error)
	GetPlan(ctx context.Context, actorID primitive.ObjectID, kind domain.PlanKind, planID primitive.ObjectID) (*PlanDetail, error)
	ListMyPlans(ctx context.Context, actorID primitive.ObjectID, kind domain.PlanKind) ([]domain.Plan, error)
	ListTrainerRequests(ctx context.Context, trainerID primitive.ObjectID, kind domain.PlanKind) ([]domain.Plan, error)
	AddFeedback(ctx context.Context, actorID primitive.ObjectID, kind domain.PlanKind, planID primitive.ObjectID, comment string) (*domain.PlanFeedback, error)
	DeletePlan(ctx context.Context, planID primitive.ObjectID) error
}

type planService struct {
	tx            repository.Transactor
	users         repository.UserRepository
	plans         repository.PlanRepository
	items         repository.PlanItemRepository
	feedback      repository.PlanFeedbackRepository
	notifications NotificationService

	generalPlanRoles map[domain.Role]bool
	dispatch         Dispatcher
	dispatchTimeout  time.Duration
}

// PlanOption customises a PlanService.
type PlanOption func(*planService)

// WithGeneralPlanRoles sets the roles allowed to create and edit general plans.
func WithGeneralPlanRoles(roles ...domain.Role) PlanOption {
	return func(s *planService) {
		s.generalPlanRoles = map[domain.Role]bool{}
		for _, r := range roles {
			s.generalPlanRoles[r] = true
		}
	}
}

// WithPlanDispatcher replaces the goroutine used for plan notifications.
func WithPlanDispatcher(d Dispatcher) PlanOption {
	return func(s *planService) { s.dispatch = d }
}

// WithPlanNotifyTimeout bounds background plan notifications.
func WithPlanNotifyTimeout(d time.Duration) PlanOption {
	return func(s *planService) { s.dispatchTimeout = d }
}

// NewPlanService creates a new PlanService. General plans default to
// trainer-only creation.
func NewPlanService(
	tx repository.Transactor,
	users repository.UserRepository,
	plans repository.PlanRepository,
	items repository.PlanItemRepository,
	feedback repository.PlanFeedbackRepository,
	notifications NotificationService,
	opts ...PlanOption,
) PlanService {
	s := &planService{
		tx:               tx,
		users:            users,
		plans:            plans,
		items:            items,
		feedback:         feedback,
		notifications:    notifications,
		generalPlanRoles: map[domain.Role]bool{domain.RoleTrainer: true},
		dispatch:         GoDispatcher,
		dispatchTimeout:  DefaultDispatchTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestPlan opens a personal plan request from a member to a trainer.
func (s *planService) RequestPlan(ctx context.Context, actorID primitive.ObjectID, kind domain.PlanKind, req PlanRequest) (*domain.Plan, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	actor, err := s.getUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.IsTrainer() {
		return nil, ErrTrainerCannotRequest
	}

	trainer, err := s.users.GetByID(ctx, req.TrainerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidTrainer
		}
		return nil, err
	}
	if !trainer.IsTrainer() {
		return nil, ErrInvalidTrainer
	}

	// Fast path; the partial unique index closes the race between two requests
	open, err := s.plans.CountOpenForRequestee(ctx, actor.ID, kind)
	if err != nil {
		return nil, err
	}
	if open > 0 {
		return nil, ErrDuplicateRequest
	}

	requestee := actor.ID
	plan := &domain.Plan{
		Kind:              kind,
		PlanType:          domain.PlanPersonal,
		Status:            domain.StatusNotCreated,
		RequesteeID:       &requestee,
		AssignedTrainerID: trainer.ID,
		Name:              strings.TrimSpace(req.Name),
		FitnessGoal:       req.FitnessGoal,
	}
	if kind == domain.KindMeal {
		plan.Allergies = req.Allergies
	}
	if plan.Name == "" {
		plan.Name = fmt.Sprintf("%s plan for %s", kind, actor.Name)
	}

	planID, err := s.plans.Create(ctx, plan)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateRequest
		}
		return nil, err
	}
	plan.ID = planID
	log.Printf("INFO: %s plan %s requested by %s from trainer %s", kind, planID.Hex(), actor.ID.Hex(), trainer.ID.Hex())

	s.notifyAsync(trainer.ID, Message{
		Title:    fmt.Sprintf("New %s plan request", kind),
		Body:     fmt.Sprintf("%s requested a %s plan.", actor.Name, kind),
		Category: domain.CategoryInfo,
	})
	return plan, nil
}

// CreateGeneralPlan stores a template plan. General plans are completed on
// creation and never move through the lifecycle.
func (s *planService) CreateGeneralPlan(ctx context.Context, actorID primitive.ObjectID, kind domain.PlanKind, fields PlanFields, items []ItemInput) (*PlanDetail, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	actor, err := s.getUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !s.generalPlanRoles[actor.Role] {
		return nil, ErrGeneralPlanForbidden
	}
	if fields.Name == nil || strings.TrimSpace(*fields.Name) == "" {
		return nil, ErrPlanNameRequired
	}

	plan := &domain.Plan{
		Kind:              kind,
		PlanType:          domain.PlanGeneral,
		Status:            domain.StatusCompleted,
		AssignedTrainerID: actor.ID,
	}
	fields.applyTo(plan)
	if kind != domain.KindMeal {
		plan.Allergies = ""
	}

	newItems := buildItems(items, nil)
	if kind == domain.KindMeal {
		if report := CheckAllergens(plan.DeclaredAllergies(), allergenView(newItems)); len(report) > 0 {
			return nil, &ConflictError{Report: report}
		}
	}

	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		planID, err := s.plans.Create(txCtx, plan)
		if err != nil {
			return err
		}
		plan.ID = planID
		return s.items.ReplaceForPlan(txCtx, planID, newItems)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("INFO: General %s plan %s created by %s", kind, plan.ID.Hex(), actor.ID.Hex())
	return &PlanDetail{Plan: plan, Items: newItems}, nil
}

// UpdatePlan applies patch after, in order, the transition check, the
// field-edit scope check and the allergen check. Plan and items are written
// in one transaction.
func (s *planService) UpdatePlan(ctx context.Context, actorID primitive.ObjectID, kind domain.PlanKind, planID primitive.ObjectID, patch PlanPatch) (*PlanDetail, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	actor, err := s.getUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	plan, err := s.getPlan(ctx, kind, planID)
	if err != nil {
		return nil, err
	}
	previous := plan.Status

	if plan.PlanType == domain.PlanGeneral {
		if err := s.checkGeneralUpdate(actor, plan, &patch); err != nil {
			return nil, err
		}
	} else {
		if err := checkPersonalUpdate(actor, plan, &patch); err != nil {
			return nil, err
		}
	}

	var persisted []domain.PlanItem
	if patch.Items != nil || (kind == domain.KindMeal && patch.Allergies != nil) {
		if persisted, err = s.items.GetByPlanID(ctx, plan.ID); err != nil {
			return nil, err
		}
	}

	var newItems []domain.PlanItem
	if patch.Items != nil {
		if newItems, err = mergeItems(*patch.Items, persisted); err != nil {
			return nil, err
		}
	}

	// Allergen check only when the patch can change the outcome
	if kind == domain.KindMeal && (patch.Items != nil || patch.Allergies != nil) {
		declared := plan.DeclaredAllergies()
		if patch.Allergies != nil {
			declared = domain.SplitAllergies(*patch.Allergies)
		}
		checked := persisted
		if patch.Items != nil {
			checked = newItems
		}
		if report := CheckAllergens(declared, allergenView(checked)); len(report) > 0 {
			return nil, &ConflictError{Report: report}
		}
	}

	patch.PlanFields.applyTo(plan)
	if kind != domain.KindMeal {
		plan.Allergies = ""
	}
	if patch.Status != nil {
		plan.Status = *patch.Status
	}

	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.plans.Update(txCtx, plan, previous); err != nil {
			return err
		}
		if patch.Items != nil {
			return s.items.ReplaceForPlan(txCtx, plan.ID, newItems)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		if errors.Is(err, repository.ErrStale) {
			return nil, ErrPlanChanged
		}
		return nil, err
	}

	if patch.Items == nil {
		if newItems, err = s.items.GetByPlanID(ctx, plan.ID); err != nil {
			return nil, err
		}
	}

	if plan.Status != previous {
		s.notifyStatusChange(actor, plan)
	}
	return &PlanDetail{Plan: plan, Items: newItems}, nil
}

func (s *planService) checkGeneralUpdate(actor *domain.User, plan *domain.Plan, patch *PlanPatch) error {
	if !s.generalPlanRoles[actor.Role] {
		return ErrGeneralPlanForbidden
	}
	if patch.Status != nil && *patch.Status != plan.Status {
		return ErrGeneralPlanStatus
	}
	return nil
}

func checkPersonalUpdate(actor *domain.User, plan *domain.Plan, patch *PlanPatch) error {
	switch {
	case actor.IsTrainer():
		if plan.AssignedTrainerID != actor.ID {
			return ErrNotAssignedTrainer
		}
	case !actor.IsAdmin():
		if !plan.IsRequestee(actor.ID) {
			return ErrNotRequestee
		}
	}

	if plan.Status == domain.StatusCompleted {
		return ErrPlanCompleted
	}
	if patch.Status != nil {
		if err := CheckTransition(plan, actor, *patch.Status); err != nil {
			return err
		}
	}
	return CheckFieldEdit(actor, patch)
}

func (s *planService) notifyStatusChange(actor *domain.User, plan *domain.Plan) {
	switch plan.Status {
	case domain.StatusInProgress:
		s.notifyAsync(plan.AssignedTrainerID, Message{
			Title:    fmt.Sprintf("%s plan submitted", titleCase(string(plan.Kind))),
			Body:     fmt.Sprintf("%s submitted the %s plan %q for you to complete.", actor.Name, plan.Kind, plan.Name),
			Category: domain.CategoryInfo,
		})
	case domain.StatusCompleted:
		if plan.RequesteeID != nil {
			s.notifyAsync(*plan.RequesteeID, Message{
				Title:    fmt.Sprintf("%s plan ready", titleCase(string(plan.Kind))),
				Body:     fmt.Sprintf("Your %s plan %q has been completed by your trainer.", plan.Kind, plan.Name),
				Category: domain.CategoryInfo,
			})
		}
	}
}

// GetPlan returns a plan with its items and feedback. General plans are
// visible to everyone; personal plans to their requestee, assigned trainer
// and admins.
func (s *planService) GetPlan(ctx context.Context, actorID primitive.ObjectID, kind domain.PlanKind, planID primitive.ObjectID) (*PlanDetail, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	actor, err := s.getUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	plan, err := s.getPlan(ctx, kind, planID)
	if err != nil {
		return nil, err
	}
	if !canView(actor, plan) {
		return nil, ErrPlanAccessDenied
	}

	items, err := s.items.GetByPlanID(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	feedback, err := s.feedback.GetByPlanID(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	return &PlanDetail{Plan: plan, Items: items, Feedback: feedback}, nil
}

func canView(actor *domain.User, plan *domain.Plan) bool {
	if plan.PlanType == domain.PlanGeneral || actor.IsAdmin() {
		return true
	}
	return plan.IsRequestee(actor.ID) || plan.AssignedTrainerID == actor.ID
}

// ListMyPlans lists the plans a member requested, or for trainers every
// personal plan assigned to them.
func (s *planService) ListMyPlans(ctx context.Context, actorID primitive.ObjectID, kind domain.PlanKind) ([]domain.Plan, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	actor, err := s.getUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.IsTrainer() {
		return s.plans.ListByTrainer(ctx, actor.ID, kind, nil)
	}
	return s.plans.ListByRequestee(ctx, actor.ID, kind)
}

// ListTrainerRequests returns the trainer's outstanding personal plans,
// newest first. An empty kind lists both kinds.
func (s *planService) ListTrainerRequests(ctx context.Context, trainerID primitive.ObjectID, kind domain.PlanKind) ([]domain.Plan, error) {
	if kind != "" && !kind.Valid() {
		return nil, ErrInvalidKind
	}
	trainer, err := s.getUser(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if !trainer.IsTrainer() {
		return nil, ErrTrainerViewOnly
	}
	return s.plans.ListByTrainer(ctx, trainer.ID, kind,
		[]domain.PlanStatus{domain.StatusNotCreated, domain.StatusInProgress})
}

// AddFeedback stores a comment from someone who can see the plan and tells
// the other side of a personal plan about it.
func (s *planService) AddFeedback(ctx context.Context, actorID primitive.ObjectID, kind domain.PlanKind, planID primitive.ObjectID, comment string) (*domain.PlanFeedback, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, ErrEmptyComment
	}
	actor, err := s.getUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	plan, err := s.getPlan(ctx, kind, planID)
	if err != nil {
		return nil, err
	}
	if !canView(actor, plan) {
		return nil, ErrPlanAccessDenied
	}

	fb := &domain.PlanFeedback{PlanID: plan.ID, AuthorID: actor.ID, Comment: comment}
	if _, err := s.feedback.Create(ctx, fb); err != nil {
		return nil, err
	}

	if plan.PlanType == domain.PlanPersonal {
		recipient := plan.AssignedTrainerID
		if actor.ID == plan.AssignedTrainerID && plan.RequesteeID != nil {
			recipient = *plan.RequesteeID
		}
		if recipient != actor.ID {
			s.notifyAsync(recipient, Message{
				Title:    "New plan feedback",
				Body:     fmt.Sprintf("%s commented on %q: %s", actor.Name, plan.Name, comment),
				Category: domain.CategoryInfo,
			})
		}
	}
	return fb, nil
}

// DeletePlan removes a plan with its items and feedback.
func (s *planService) DeletePlan(ctx context.Context, planID primitive.ObjectID) error {
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.items.DeleteByPlanID(txCtx, planID); err != nil {
			return err
		}
		if err := s.feedback.DeleteByPlanID(txCtx, planID); err != nil {
			return err
		}
		return s.plans.Delete(txCtx, planID)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPlanNotFound
	}
	return err
}

func (s *planService) getUser(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// getPlan loads a plan and hides plans of the other kind.
func (s *planService) getPlan(ctx context.Context, kind domain.PlanKind, id primitive.ObjectID) (*domain.Plan, error) {
	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if plan.Kind != kind {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

func (s *planService) notifyAsync(userID primitive.ObjectID, msg Message) {
	dispatchNotify(s.dispatch, s.dispatchTimeout, msg.Title, func(ctx context.Context) error {
		return s.notifications.Notify(ctx, userID, msg)
	})
}

// mergeItems turns the requested items into documents. Items naming an
// existing item keep its ID and carry its stored allergen tags forward.
func mergeItems(inputs []ItemInput, persisted []domain.PlanItem) ([]domain.PlanItem, error) {
	byID := make(map[primitive.ObjectID]domain.PlanItem, len(persisted))
	for _, it := range persisted {
		byID[it.ID] = it
	}
	seen := make(map[primitive.ObjectID]bool, len(inputs))
	for _, in := range inputs {
		if in.ID == nil {
			continue
		}
		if _, ok := byID[*in.ID]; !ok {
			return nil, ErrUnknownItem
		}
		if seen[*in.ID] {
			return nil, ErrDuplicateItem
		}
		seen[*in.ID] = true
	}
	return buildItems(inputs, byID), nil
}

func buildItems(inputs []ItemInput, existing map[primitive.ObjectID]domain.PlanItem) []domain.PlanItem {
	out := make([]domain.PlanItem, 0, len(inputs))
	for _, in := range inputs {
		item := domain.PlanItem{
			Name:        strings.TrimSpace(in.Name),
			Description: in.Description,
			Category:    in.Category,
			Calories:    in.Calories,
			Protein:     in.Protein,
			Carbs:       in.Carbs,
			Allergens:   unionAllergens(in.Allergens, nil),
			Sets:        in.Sets,
			Reps:        in.Reps,
			RestSeconds: in.RestSeconds,
		}
		if in.ID != nil {
			if prev, ok := existing[*in.ID]; ok {
				item.ID = prev.ID
				item.CreatedAt = prev.CreatedAt
				item.Allergens = unionAllergens(prev.Allergens, in.Allergens)
			}
		}
		out = append(out, item)
	}
	return out
}

func allergenView(items []domain.PlanItem) []ItemAllergens {
	out := make([]ItemAllergens, len(items))
	for i, it := range items {
		out[i] = ItemAllergens{Name: it.Name, Allergens: it.Allergens}
	}
	return out
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
