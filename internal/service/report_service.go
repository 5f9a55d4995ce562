package service

import (
	"alcyxob/gym-membership/internal/domain"
	"alcyxob/gym-membership/internal/repository"
	"alcyxob/gym-membership/internal/storage"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const reportContentType = "text/csv"

// ExportRequest describes an access log export.
type ExportRequest struct {
	Title  string
	Notes  string
	Filter repository.AccessLogFilter
}

// ReportService exports access logs to object storage and manages the
// resulting report records.
type ReportService interface {
	ExportAccessLogs(ctx context.Context, adminID primitive.ObjectID, req ExportRequest) (*domain.Report, error)
	ListReports(ctx context.Context) ([]domain.Report, error)
	GetDownloadURL(ctx context.Context, reportID primitive.ObjectID) (string, *domain.Report, error)
	DeleteReport(ctx context.Context, reportID primitive.ObjectID) error
}

type reportService struct {
	accessLogs repository.AccessLogRepository
	reports    repository.ReportRepository
	storage    storage.FileStorage
	keyPrefix  string
	urlExpiry  time.Duration
}

// NewReportService creates a new ReportService. Objects are stored under keyPrefix.
func NewReportService(accessLogs repository.AccessLogRepository, reports repository.ReportRepository, fileStorage storage.FileStorage, keyPrefix string) ReportService {
	return &reportService{
		accessLogs: accessLogs,
		reports:    reports,
		storage:    fileStorage,
		keyPrefix:  strings.Trim(keyPrefix, "/"),
		urlExpiry:  storage.DefaultPresignedURLExpiry,
	}
}

var accessLogCSVHeader = []string{"timestamp", "user_id", "facility_id", "status", "reason", "user_tier", "scan_method", "location"}

// ExportAccessLogs writes every matching entry as CSV, uploads it and records
// the report. The object is removed again if the record cannot be saved.
func (s *reportService) ExportAccessLogs(ctx context.Context, adminID primitive.ObjectID, req ExportRequest) (*domain.Report, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, newError(ErrValidation, "report title is required")
	}
	if req.Filter.From != nil && req.Filter.To != nil && req.Filter.To.Before(*req.Filter.From) {
		return nil, newError(ErrValidation, "'to' must not be before 'from'")
	}

	entries, err := s.accessLogs.Find(ctx, req.Filter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(accessLogCSVHeader); err != nil {
		return nil, err
	}
	for _, e := range entries {
		row := []string{
			e.Timestamp.UTC().Format(time.RFC3339),
			e.UserID.Hex(),
			e.FacilityID.Hex(),
			string(e.Status),
			e.Reason,
			e.UserTierAtTime,
			string(e.ScanMethod),
			e.Location,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	objectKey := path.Join(s.keyPrefix, "access-logs", fmt.Sprintf("%s.csv", uuid.NewString()))
	size := int64(buf.Len())
	if err := s.storage.PutObject(ctx, objectKey, reportContentType, &buf, size); err != nil {
		return nil, err
	}

	report := &domain.Report{
		Title:       title,
		Notes:       req.Notes,
		Type:        reportTypeFor(req.Filter),
		CreatedBy:   adminID,
		S3ObjectKey: objectKey,
		ContentType: reportContentType,
		RowCount:    len(entries),
		Size:        size,
	}
	if _, err := s.reports.Create(ctx, report); err != nil {
		if delErr := s.storage.DeleteObject(ctx, objectKey); delErr != nil {
			log.Printf("ERROR: Orphaned report object %s: %v", objectKey, delErr)
		}
		return nil, err
	}
	log.Printf("INFO: Report %s exported with %d row(s) by %s", report.ID.Hex(), report.RowCount, adminID.Hex())
	return report, nil
}

func reportTypeFor(f repository.AccessLogFilter) domain.ReportType {
	switch {
	case f.FacilityID != nil:
		return domain.ReportFacility
	case f.UserID != nil:
		return domain.ReportUser
	default:
		return domain.ReportGeneral
	}
}

func (s *reportService) ListReports(ctx context.Context) ([]domain.Report, error) {
	return s.reports.List(ctx)
}

func (s *reportService) GetDownloadURL(ctx context.Context, reportID primitive.ObjectID) (string, *domain.Report, error) {
	report, err := s.getReport(ctx, reportID)
	if err != nil {
		return "", nil, err
	}
	url, err := s.storage.GeneratePresignedDownloadURL(ctx, report.S3ObjectKey, s.urlExpiry)
	if err != nil {
		return "", nil, err
	}
	return url, report, nil
}

// DeleteReport removes the stored object first, then the record.
func (s *reportService) DeleteReport(ctx context.Context, reportID primitive.ObjectID) error {
	report, err := s.getReport(ctx, reportID)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteObject(ctx, report.S3ObjectKey); err != nil {
		return err
	}
	if err := s.reports.Delete(ctx, report.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

func (s *reportService) getReport(ctx context.Context, id primitive.ObjectID) (*domain.Report, error) {
	report, err := s.reports.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrReportNotFound
	}
	return report, err
}
