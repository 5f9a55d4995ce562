package service

import (
	"alcyxob/gym-membership/internal/domain"
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type accessFixture struct {
	svc           AccessService
	tx            *fakeTx
	users         *fakeUsers
	facilities    *fakeFacilities
	logs          *fakeAccessLogs
	notifications *fakeNotifications
	mailer        *recordingMailer
}

var scanNow = time.Date(2026, 5, 10, 14, 30, 0, 0, time.UTC)

func newAccessFixture() *accessFixture {
	f := &accessFixture{
		tx:            &fakeTx{},
		users:         newFakeUsers(),
		facilities:    newFakeFacilities(),
		logs:          &fakeAccessLogs{},
		notifications: &fakeNotifications{},
		mailer:        &recordingMailer{},
	}
	notifier := NewNotificationService(f.notifications, f.users, f.mailer)
	f.svc = NewAccessService(f.tx, f.users, f.facilities, f.logs, notifier,
		WithAccessDispatcher(syncDispatch),
		WithAccessClock(func() time.Time { return scanNow }),
	)
	return f
}

func (f *accessFixture) member(tier domain.Tier) *domain.User {
	return f.users.add(domain.User{
		Name:                "Member " + string(tier),
		Email:               string(tier) + "@example.com",
		Role:                domain.RoleMember,
		MembershipTier:      tier,
		MembershipStartDate: datePtr(2026, 1, 1),
		MembershipEndDate:   datePtr(2026, 12, 31),
	})
}

func (f *accessFixture) scan(t *testing.T, user *domain.User, facility *domain.Facility) *AccessDecision {
	t.Helper()
	id := facility.ID
	d, err := f.svc.Scan(context.Background(), user.ID, ScanRequest{FacilityID: &id, Method: domain.ScanQR})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	return d
}

func TestScanTierHierarchy(t *testing.T) {
	tests := []struct {
		user     domain.Tier
		required domain.Tier
		granted  bool
	}{
		{domain.Tier1, domain.Tier1, true},
		{domain.Tier1, domain.Tier2, false},
		{domain.Tier1, domain.Tier3, false},
		{domain.Tier2, domain.Tier1, true},
		{domain.Tier2, domain.Tier2, true},
		{domain.Tier2, domain.Tier3, false},
		{domain.Tier3, domain.Tier1, true},
		{domain.Tier3, domain.Tier2, true},
		{domain.Tier3, domain.Tier3, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.user)+"_at_"+string(tt.required), func(t *testing.T) {
			f := newAccessFixture()
			user := f.member(tt.user)
			facility := f.facilities.add("Area", "AREA", tt.required)

			d := f.scan(t, user, facility)
			if d.Granted != tt.granted {
				t.Fatalf("granted = %v, want %v (reason %q)", d.Granted, tt.granted, d.Reason)
			}
			if d.UserTier != string(tt.user) || d.FacilityTier != tt.required {
				t.Errorf("tiers in decision = %s/%s", d.UserTier, d.FacilityTier)
			}
			if !tt.granted {
				want := "Required tier is " + string(tt.required) + ", but your tier is " + string(tt.user)
				if d.Reason != want {
					t.Errorf("reason = %q, want %q", d.Reason, want)
				}
			}
		})
	}
}

func TestScanTrainerAlwaysGranted(t *testing.T) {
	f := newAccessFixture()
	// No membership dates and the lowest tier
	trainer := f.users.add(domain.User{Name: "Coach", Email: "coach@example.com", Role: domain.RoleTrainer, MembershipTier: domain.Tier1})
	facility := f.facilities.add("Spa", "SPA", domain.Tier3)

	d := f.scan(t, trainer, facility)
	if !d.Granted {
		t.Fatalf("trainer denied: %q", d.Reason)
	}
	if len(f.logs.entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(f.logs.entries))
	}
	entry := f.logs.entries[0]
	if entry.UserTierAtTime != domain.TrainerTierMarker || entry.Status != domain.AccessSuccess || entry.Reason != "" {
		t.Errorf("unexpected trainer entry %+v", entry)
	}
}

func TestScanInactiveMembershipDenied(t *testing.T) {
	f := newAccessFixture()
	user := f.users.add(domain.User{Name: "New", Email: "new@example.com", Role: domain.RoleMember, MembershipTier: domain.Tier3})
	facility := f.facilities.add("Gym floor", "FLOOR", domain.Tier1)

	d := f.scan(t, user, facility)
	if d.Granted || d.Reason != domain.ReasonInactiveMembership {
		t.Fatalf("decision = %+v", d)
	}
	entry := f.logs.entries[0]
	if entry.Status != domain.AccessFailed || entry.UserTierAtTime != string(domain.Tier3) {
		t.Errorf("unexpected entry %+v", entry)
	}
}

func TestScanExpiredMembershipDenied(t *testing.T) {
	f := newAccessFixture()
	user := f.users.add(domain.User{
		Name: "Lapsed", Email: "lapsed@example.com", Role: domain.RoleMember, MembershipTier: domain.Tier3,
		MembershipStartDate: datePtr(2025, 1, 1), MembershipEndDate: datePtr(2026, 5, 9),
	})
	facility := f.facilities.add("Gym floor", "FLOOR", domain.Tier1)

	if d := f.scan(t, user, facility); d.Granted {
		t.Fatal("expired membership was granted")
	}
}

func TestScanWritesOneEntryPerAttempt(t *testing.T) {
	f := newAccessFixture()
	user := f.member(domain.Tier2)
	open := f.facilities.add("Pool", "POOL", domain.Tier1)
	closed := f.facilities.add("Spa", "SPA", domain.Tier3)

	f.scan(t, user, open)
	f.scan(t, user, closed)
	f.scan(t, user, open)
	if len(f.logs.entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(f.logs.entries))
	}

	missing := primitive.NewObjectID()
	_, err := f.svc.Scan(context.Background(), user.ID, ScanRequest{FacilityID: &missing})
	if !errors.Is(err, ErrFacilityNotFound) || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrFacilityNotFound, got %v", err)
	}
	if len(f.logs.entries) != 3 {
		t.Fatalf("facility-not-found wrote an entry: %d", len(f.logs.entries))
	}
}

func TestScanCopiesMethodAndLocation(t *testing.T) {
	f := newAccessFixture()
	user := f.member(domain.Tier1)
	f.facilities.add("Studio", "STUDIO-1", domain.Tier1)

	d, err := f.svc.Scan(context.Background(), user.ID, ScanRequest{
		FacilityCode: "STUDIO-1",
		Method:       domain.ScanNFC,
		Location:     "north entrance",
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !d.Granted || d.FacilityName != "Studio" || !d.Timestamp.Equal(scanNow) {
		t.Errorf("unexpected decision %+v", d)
	}
	entry := f.logs.entries[0]
	if entry.ScanMethod != domain.ScanNFC || entry.Location != "north entrance" || !entry.Timestamp.Equal(scanNow) {
		t.Errorf("unexpected entry %+v", entry)
	}
	if f.tx.calls != 1 {
		t.Errorf("expected one transaction, got %d", f.tx.calls)
	}
}

func TestScanRejectsBadInput(t *testing.T) {
	f := newAccessFixture()
	user := f.member(domain.Tier1)
	f.facilities.add("Studio", "STUDIO", domain.Tier1)

	_, err := f.svc.Scan(context.Background(), user.ID, ScanRequest{FacilityCode: "STUDIO", Method: "telepathy"})
	if !errors.Is(err, ErrInvalidScanMethod) {
		t.Errorf("expected ErrInvalidScanMethod, got %v", err)
	}
	_, err = f.svc.Scan(context.Background(), user.ID, ScanRequest{})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	_, err = f.svc.Scan(context.Background(), primitive.NewObjectID(), ScanRequest{FacilityCode: "STUDIO"})
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
	if len(f.logs.entries) != 0 {
		t.Errorf("rejected scans wrote %d entries", len(f.logs.entries))
	}
}

func TestFailedScanAlertsEveryCurrentAdmin(t *testing.T) {
	f := newAccessFixture()
	user := f.member(domain.Tier1)
	spa := f.facilities.add("Spa", "SPA", domain.Tier3)
	pool := f.facilities.add("Pool", "POOL", domain.Tier1)

	admin1 := f.users.add(domain.User{Name: "A1", Email: "a1@example.com", Role: domain.RoleAdmin})
	f.scan(t, user, spa)
	if got := len(f.notifications.items); got != 1 {
		t.Fatalf("expected 1 alert, got %d", got)
	}

	// Admins added later are picked up by the next failed scan
	admin2 := f.users.add(domain.User{Name: "A2", Email: "a2@example.com", Role: domain.RoleAdmin})
	f.scan(t, user, spa)
	if len(f.notifications.forUser(admin1.ID)) != 2 || len(f.notifications.forUser(admin2.ID)) != 1 {
		t.Fatalf("unexpected alert distribution: %+v", f.notifications.items)
	}
	if f.notifications.items[0].Category != domain.CategoryWarning {
		t.Errorf("alert category = %s", f.notifications.items[0].Category)
	}
	if len(f.mailer.sent) != 2 {
		t.Errorf("expected 2 mirrored emails, got %d", len(f.mailer.sent))
	}

	before := len(f.notifications.items)
	f.scan(t, user, pool)
	if len(f.notifications.items) != before {
		t.Error("successful scan produced an alert")
	}
}

func TestFailedScanAlertErrorDoesNotFailScan(t *testing.T) {
	f := newAccessFixture()
	f.mailer.err = errors.New("smtp down")
	user := f.member(domain.Tier1)
	spa := f.facilities.add("Spa", "SPA", domain.Tier3)
	f.users.add(domain.User{Name: "A1", Email: "a1@example.com", Role: domain.RoleAdmin})

	if d := f.scan(t, user, spa); d.Granted {
		t.Fatal("expected denial")
	}
}

func TestCreateFacility(t *testing.T) {
	f := newAccessFixture()
	ctx := context.Background()

	facility, err := f.svc.CreateFacility(ctx, " Sauna ", "SAUNA", "tier2")
	if err != nil {
		t.Fatalf("CreateFacility: %v", err)
	}
	if facility.Name != "Sauna" || facility.RequiredTier != domain.Tier2 {
		t.Errorf("unexpected facility %+v", facility)
	}
	if _, err := f.svc.CreateFacility(ctx, "Sauna 2", "SAUNA", "tier1"); !errors.Is(err, ErrFacilityExists) {
		t.Errorf("expected ErrFacilityExists, got %v", err)
	}
	if _, err := f.svc.CreateFacility(ctx, "Roof", "ROOF", "gold"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}
