package service

import (
	"alcyxob/gym-membership/internal/domain"
	"alcyxob/gym-membership/internal/repository"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seededAccessLogs() (*fakeAccessLogs, primitive.ObjectID) {
	facility := primitive.NewObjectID()
	logs := &fakeAccessLogs{}
	base := time.Date(2026, 4, 2, 7, 0, 0, 0, time.UTC)
	logs.entries = []domain.AccessLogEntry{
		{UserID: primitive.NewObjectID(), FacilityID: facility, Timestamp: base, Status: domain.AccessSuccess, UserTierAtTime: "tier2", ScanMethod: domain.ScanQR},
		{UserID: primitive.NewObjectID(), FacilityID: facility, Timestamp: base.Add(time.Minute), Status: domain.AccessFailed,
			Reason: "Required tier is tier3, but your tier is tier1", UserTierAtTime: "tier1", ScanMethod: domain.ScanNFC, Location: "gate, east"},
		{UserID: primitive.NewObjectID(), FacilityID: primitive.NewObjectID(), Timestamp: base, Status: domain.AccessSuccess, UserTierAtTime: "trainer", ScanMethod: domain.ScanQR},
	}
	return logs, facility
}

func TestExportAccessLogs(t *testing.T) {
	logs, facility := seededAccessLogs()
	reports, store := newFakeReports(), newFakeStorage()
	svc := NewReportService(logs, reports, store, "/reports/")
	admin := primitive.NewObjectID()

	report, err := svc.ExportAccessLogs(context.Background(), admin, ExportRequest{
		Title:  "Spa April",
		Filter: repository.AccessLogFilter{FacilityID: &facility},
	})
	if err != nil {
		t.Fatalf("ExportAccessLogs: %v", err)
	}
	if report.RowCount != 2 || report.Type != domain.ReportFacility || report.CreatedBy != admin {
		t.Errorf("unexpected report %+v", report)
	}
	if !strings.HasPrefix(report.S3ObjectKey, "reports/access-logs/") || !strings.HasSuffix(report.S3ObjectKey, ".csv") {
		t.Errorf("object key = %q", report.S3ObjectKey)
	}

	body := string(store.objects[report.S3ObjectKey])
	lines := strings.Split(strings.TrimSpace(body), "\n")
	if len(lines) != 3 {
		t.Fatalf("csv lines = %d:\n%s", len(lines), body)
	}
	if lines[0] != "timestamp,user_id,facility_id,status,reason,user_tier,scan_method,location" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[2], `"gate, east"`) || !strings.Contains(lines[2], "failed") {
		t.Errorf("row not quoted properly: %q", lines[2])
	}
	if report.Size != int64(len(body)) {
		t.Errorf("size = %d, body = %d", report.Size, len(body))
	}

	url, got, err := svc.GetDownloadURL(context.Background(), report.ID)
	if err != nil || got.ID != report.ID || !strings.Contains(url, report.S3ObjectKey) {
		t.Errorf("GetDownloadURL = %q, %+v, %v", url, got, err)
	}

	if err := svc.DeleteReport(context.Background(), report.ID); err != nil {
		t.Fatalf("DeleteReport: %v", err)
	}
	if len(store.objects) != 0 || len(reports.byID) != 0 {
		t.Errorf("report not fully deleted")
	}
	if _, _, err := svc.GetDownloadURL(context.Background(), report.ID); !errors.Is(err, ErrReportNotFound) {
		t.Errorf("download after delete: %v", err)
	}
}

func TestExportAccessLogsCleansUpOnMetadataFailure(t *testing.T) {
	logs, _ := seededAccessLogs()
	reports, store := newFakeReports(), newFakeStorage()
	reports.createErr = errors.New("write concern failed")
	svc := NewReportService(logs, reports, store, "reports")

	if _, err := svc.ExportAccessLogs(context.Background(), primitive.NewObjectID(), ExportRequest{Title: "All"}); err == nil {
		t.Fatal("expected error")
	}
	if len(store.objects) != 0 || len(store.deleted) != 1 {
		t.Errorf("orphaned object left: %v", store.objects)
	}
}

func TestExportAccessLogsValidation(t *testing.T) {
	logs, _ := seededAccessLogs()
	svc := NewReportService(logs, newFakeReports(), newFakeStorage(), "reports")
	from, to := time.Now(), time.Now().Add(-time.Hour)

	if _, err := svc.ExportAccessLogs(context.Background(), primitive.NewObjectID(), ExportRequest{}); !errors.Is(err, ErrValidation) {
		t.Errorf("missing title: %v", err)
	}
	_, err := svc.ExportAccessLogs(context.Background(), primitive.NewObjectID(), ExportRequest{
		Title: "x", Filter: repository.AccessLogFilter{From: &from, To: &to},
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("reversed range: %v", err)
	}
}
