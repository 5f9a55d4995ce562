package service

import (
	"alcyxob/gym-membership/internal/domain"
	"alcyxob/gym-membership/internal/repository"
	"bytes"
	"context"
	"io"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// syncDispatch runs background work inline so tests can observe it.
func syncDispatch(f func()) { f() }

// fakeClock hands out strictly increasing timestamps.
type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) next() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

type fakeTx struct{ calls int }

func (f *fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

// --- users ---

type fakeUsers struct {
	byID map[primitive.ObjectID]*domain.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[primitive.ObjectID]*domain.User{}}
}

func (r *fakeUsers) add(u domain.User) *domain.User {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	stored := u
	r.byID[u.ID] = &stored
	return &stored
}

func (r *fakeUsers) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, u := range r.byID {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	stored := *user
	r.byID[user.ID] = &stored
	return user.ID, nil
}

func (r *fakeUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUsers) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r *fakeUsers) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.byID {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUsers) UpdateRole(ctx context.Context, id primitive.ObjectID, role domain.Role) error {
	u, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Role = role
	return nil
}

func (r *fakeUsers) UpdateTier(ctx context.Context, id primitive.ObjectID, tier domain.Tier) error {
	u, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.MembershipTier = tier
	return nil
}

func (r *fakeUsers) UpdateMembershipDates(ctx context.Context, id primitive.ObjectID, start, end *time.Time) error {
	u, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.MembershipStartDate, u.MembershipEndDate = start, end
	return nil
}

func (r *fakeUsers) ListMembershipEndingBetween(ctx context.Context, from, to time.Time) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.byID {
		if u.MembershipEndDate == nil {
			continue
		}
		if !u.MembershipEndDate.Before(from) && u.MembershipEndDate.Before(to) {
			out = append(out, *u)
		}
	}
	return out, nil
}

// --- trainer profiles ---

type fakeProfiles struct {
	byUser map[primitive.ObjectID]*domain.TrainerProfile
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{byUser: map[primitive.ObjectID]*domain.TrainerProfile{}}
}

func (r *fakeProfiles) Ensure(ctx context.Context, userID primitive.ObjectID) (*domain.TrainerProfile, error) {
	if p, ok := r.byUser[userID]; ok {
		c := *p
		return &c, nil
	}
	p := &domain.TrainerProfile{ID: primitive.NewObjectID(), UserID: userID}
	r.byUser[userID] = p
	c := *p
	return &c, nil
}

func (r *fakeProfiles) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.TrainerProfile, error) {
	p, ok := r.byUser[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (r *fakeProfiles) Update(ctx context.Context, profile *domain.TrainerProfile) error {
	if _, ok := r.byUser[profile.UserID]; !ok {
		return repository.ErrNotFound
	}
	c := *profile
	r.byUser[profile.UserID] = &c
	return nil
}

func (r *fakeProfiles) DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error {
	delete(r.byUser, userID)
	return nil
}

// --- facilities and access logs ---

type fakeFacilities struct {
	byID map[primitive.ObjectID]*domain.Facility
}

func newFakeFacilities() *fakeFacilities {
	return &fakeFacilities{byID: map[primitive.ObjectID]*domain.Facility{}}
}

func (r *fakeFacilities) add(name, code string, tier domain.Tier) *domain.Facility {
	f := &domain.Facility{ID: primitive.NewObjectID(), Name: name, Code: code, RequiredTier: tier}
	r.byID[f.ID] = f
	return f
}

func (r *fakeFacilities) Create(ctx context.Context, facility *domain.Facility) (primitive.ObjectID, error) {
	for _, f := range r.byID {
		if f.Code == facility.Code {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	facility.ID = primitive.NewObjectID()
	c := *facility
	r.byID[facility.ID] = &c
	return facility.ID, nil
}

func (r *fakeFacilities) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Facility, error) {
	f, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *f
	return &c, nil
}

func (r *fakeFacilities) GetByCode(ctx context.Context, code string) (*domain.Facility, error) {
	for _, f := range r.byID {
		if f.Code == code {
			c := *f
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeFacilities) List(ctx context.Context) ([]domain.Facility, error) {
	var out []domain.Facility
	for _, f := range r.byID {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakeAccessLogs struct {
	entries []domain.AccessLogEntry
}

func (r *fakeAccessLogs) Append(ctx context.Context, entry *domain.AccessLogEntry) (primitive.ObjectID, error) {
	entry.ID = primitive.NewObjectID()
	r.entries = append(r.entries, *entry)
	return entry.ID, nil
}

func (r *fakeAccessLogs) Find(ctx context.Context, filter repository.AccessLogFilter) ([]domain.AccessLogEntry, error) {
	var out []domain.AccessLogEntry
	for _, e := range r.entries {
		if filter.UserID != nil && e.UserID != *filter.UserID {
			continue
		}
		if filter.FacilityID != nil && e.FacilityID != *filter.FacilityID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// --- plans, items, feedback ---

type fakePlans struct {
	clock *fakeClock
	byID  map[primitive.ObjectID]*domain.Plan
	// skipCount makes CountOpenForRequestee report zero, leaving only the
	// unique index to catch duplicates.
	skipCount bool
}

func newFakePlans(clock *fakeClock) *fakePlans {
	return &fakePlans{clock: clock, byID: map[primitive.ObjectID]*domain.Plan{}}
}

func (r *fakePlans) Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	plan.Open = plan.IsOutstanding()
	if plan.Open {
		for _, p := range r.byID {
			if p.Open && p.Kind == plan.Kind && p.RequesteeID != nil && *p.RequesteeID == *plan.RequesteeID {
				return primitive.NilObjectID, repository.ErrDuplicate
			}
		}
	}
	plan.ID = primitive.NewObjectID()
	plan.CreatedAt = r.clock.next()
	plan.UpdatedAt = plan.CreatedAt
	c := *plan
	r.byID[plan.ID] = &c
	return plan.ID, nil
}

func (r *fakePlans) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (r *fakePlans) Update(ctx context.Context, plan *domain.Plan, expected domain.PlanStatus) error {
	stored, ok := r.byID[plan.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Status != expected {
		return repository.ErrStale
	}
	plan.Open = plan.IsOutstanding()
	c := *plan
	r.byID[plan.ID] = &c
	return nil
}

func (r *fakePlans) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := r.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *fakePlans) CountOpenForRequestee(ctx context.Context, requesteeID primitive.ObjectID, kind domain.PlanKind) (int64, error) {
	if r.skipCount {
		return 0, nil
	}
	var n int64
	for _, p := range r.byID {
		if p.Open && p.Kind == kind && p.IsRequestee(requesteeID) {
			n++
		}
	}
	return n, nil
}

func (r *fakePlans) ListByRequestee(ctx context.Context, requesteeID primitive.ObjectID, kind domain.PlanKind) ([]domain.Plan, error) {
	return r.list(func(p *domain.Plan) bool { return p.Kind == kind && p.IsRequestee(requesteeID) }), nil
}

func (r *fakePlans) ListByTrainer(ctx context.Context, trainerID primitive.ObjectID, kind domain.PlanKind, statuses []domain.PlanStatus) ([]domain.Plan, error) {
	return r.list(func(p *domain.Plan) bool {
		if p.AssignedTrainerID != trainerID || p.PlanType != domain.PlanPersonal {
			return false
		}
		if kind != "" && p.Kind != kind {
			return false
		}
		if len(statuses) == 0 {
			return true
		}
		for _, s := range statuses {
			if p.Status == s {
				return true
			}
		}
		return false
	}), nil
}

func (r *fakePlans) list(keep func(*domain.Plan) bool) []domain.Plan {
	out := []domain.Plan{}
	for _, p := range r.byID {
		if keep(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

type fakeItems struct {
	byPlan map[primitive.ObjectID][]domain.PlanItem
}

func newFakeItems() *fakeItems {
	return &fakeItems{byPlan: map[primitive.ObjectID][]domain.PlanItem{}}
}

func (r *fakeItems) GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanItem, error) {
	out := append([]domain.PlanItem{}, r.byPlan[planID]...)
	return out, nil
}

func (r *fakeItems) ReplaceForPlan(ctx context.Context, planID primitive.ObjectID, items []domain.PlanItem) error {
	stored := make([]domain.PlanItem, 0, len(items))
	for i := range items {
		if items[i].ID.IsZero() {
			items[i].ID = primitive.NewObjectID()
		}
		items[i].PlanID = planID
		items[i].Sequence = i + 1
		stored = append(stored, items[i])
	}
	if len(stored) == 0 {
		delete(r.byPlan, planID)
		return nil
	}
	r.byPlan[planID] = stored
	return nil
}

func (r *fakeItems) DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error {
	delete(r.byPlan, planID)
	return nil
}

type fakeFeedback struct {
	byPlan map[primitive.ObjectID][]domain.PlanFeedback
}

func newFakeFeedback() *fakeFeedback {
	return &fakeFeedback{byPlan: map[primitive.ObjectID][]domain.PlanFeedback{}}
}

func (r *fakeFeedback) Create(ctx context.Context, fb *domain.PlanFeedback) (primitive.ObjectID, error) {
	fb.ID = primitive.NewObjectID()
	r.byPlan[fb.PlanID] = append(r.byPlan[fb.PlanID], *fb)
	return fb.ID, nil
}

func (r *fakeFeedback) GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanFeedback, error) {
	return append([]domain.PlanFeedback{}, r.byPlan[planID]...), nil
}

func (r *fakeFeedback) DeleteByPlanID(ctx context.Context, planID primitive.ObjectID) error {
	delete(r.byPlan, planID)
	return nil
}

// --- notifications ---

type fakeNotifications struct {
	items []domain.Notification
}

func (r *fakeNotifications) Create(ctx context.Context, n *domain.Notification) (primitive.ObjectID, error) {
	n.ID = primitive.NewObjectID()
	r.items = append(r.items, *n)
	return n.ID, nil
}

func (r *fakeNotifications) CreateMany(ctx context.Context, ns []domain.Notification) error {
	for i := range ns {
		ns[i].ID = primitive.NewObjectID()
		r.items = append(r.items, ns[i])
	}
	return nil
}

func (r *fakeNotifications) CreateIfAbsent(ctx context.Context, n *domain.Notification) (bool, error) {
	for _, existing := range r.items {
		if existing.UserID == n.UserID && existing.Title == n.Title && existing.Message == n.Message {
			return false, nil
		}
	}
	_, err := r.Create(ctx, n)
	return err == nil, err
}

func (r *fakeNotifications) ListByUser(ctx context.Context, userID primitive.ObjectID, filter repository.NotificationFilter) ([]domain.Notification, error) {
	out := []domain.Notification{}
	for _, n := range r.items {
		if n.UserID != userID {
			continue
		}
		if filter.UnreadOnly && n.IsRead {
			continue
		}
		if filter.Category != "" && n.Category != filter.Category {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *fakeNotifications) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	var n int64
	for _, item := range r.items {
		if item.UserID == userID && !item.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *fakeNotifications) MarkRead(ctx context.Context, userID, id primitive.ObjectID) (*domain.Notification, error) {
	for i := range r.items {
		if r.items[i].ID == id && r.items[i].UserID == userID {
			r.items[i].IsRead = true
			c := r.items[i]
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeNotifications) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	var n int64
	for i := range r.items {
		if r.items[i].UserID == userID && !r.items[i].IsRead {
			r.items[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *fakeNotifications) forUser(userID primitive.ObjectID) []domain.Notification {
	var out []domain.Notification
	for _, n := range r.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type recordingMailer struct {
	sent [][]string
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, to []string, subject, body string) error {
	m.sent = append(m.sent, to)
	return m.err
}

// --- reports and storage ---

type fakeReports struct {
	byID      map[primitive.ObjectID]*domain.Report
	createErr error
}

func newFakeReports() *fakeReports {
	return &fakeReports{byID: map[primitive.ObjectID]*domain.Report{}}
}

func (r *fakeReports) Create(ctx context.Context, report *domain.Report) (primitive.ObjectID, error) {
	if r.createErr != nil {
		return primitive.NilObjectID, r.createErr
	}
	report.ID = primitive.NewObjectID()
	c := *report
	r.byID[report.ID] = &c
	return report.ID, nil
}

func (r *fakeReports) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Report, error) {
	rep, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *rep
	return &c, nil
}

func (r *fakeReports) List(ctx context.Context) ([]domain.Report, error) {
	out := []domain.Report{}
	for _, rep := range r.byID {
		out = append(out, *rep)
	}
	return out, nil
}

func (r *fakeReports) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := r.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

type fakeStorage struct {
	objects map[string][]byte
	deleted []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (s *fakeStorage) PutObject(ctx context.Context, objectKey, contentType string, body io.Reader, size int64) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}
	s.objects[objectKey] = buf.Bytes()
	return nil
}

func (s *fakeStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	return "https://storage.test/" + objectKey, nil
}

func (s *fakeStorage) DeleteObject(ctx context.Context, objectKey string) error {
	delete(s.objects, objectKey)
	s.deleted = append(s.deleted, objectKey)
	return nil
}

// --- helpers ---

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func strPtr(s string) *string { return &s }

func statusPtr(s domain.PlanStatus) *domain.PlanStatus { return &s }
