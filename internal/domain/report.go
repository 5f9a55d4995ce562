package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportType type for exported reports
type ReportType string

const (
	ReportFacility ReportType = "facility"
	ReportUser     ReportType = "user"
	ReportTrainer  ReportType = "trainer"
	ReportGeneral  ReportType = "general"
)

// Report stores metadata about an exported file. The actual file resides in S3.
type Report struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Type        ReportType         `bson:"type" json:"type"`
	CreatedBy   primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	S3ObjectKey string             `bson:"s3ObjectKey" json:"-"` // The unique key in the S3 bucket - internal use
	ContentType string             `bson:"contentType" json:"contentType"`
	RowCount    int                `bson:"rowCount" json:"rowCount"`
	Size        int64              `bson:"size" json:"size"` // File size in bytes
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
