package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Facility is an area of the gym gated by a minimum membership tier.
type Facility struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Code         string             `bson:"code" json:"code"` // Printed into the QR payload
	RequiredTier Tier               `bson:"requiredTier" json:"requiredTier"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// AccessStatus is the outcome recorded for a scan attempt.
type AccessStatus string

const (
	AccessSuccess AccessStatus = "success"
	AccessFailed  AccessStatus = "failed"
)

// ScanMethod is how the credential reached the scanner.
type ScanMethod string

const (
	ScanQR     ScanMethod = "qr"
	ScanNFC    ScanMethod = "nfc"
	ScanManual ScanMethod = "manual"
	ScanAdmin  ScanMethod = "admin"
)

// Valid reports whether m is a known scan method.
func (m ScanMethod) Valid() bool {
	switch m {
	case ScanQR, ScanNFC, ScanManual, ScanAdmin:
		return true
	}
	return false
}

// Reason recorded when a member without an active membership scans.
const ReasonInactiveMembership = "Inactive membership"

// AccessLogEntry is the append-only audit record of one scan attempt.
// UserTierAtTime is a snapshot taken at scan time, or TrainerTierMarker.
type AccessLogEntry struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	FacilityID     primitive.ObjectID `bson:"facilityId" json:"facilityId"`
	Timestamp      time.Time          `bson:"timestamp" json:"timestamp"`
	Status         AccessStatus       `bson:"status" json:"status"`
	Reason         string             `bson:"reason,omitempty" json:"reason,omitempty"`
	UserTierAtTime string             `bson:"userTierAtTime" json:"userTierAtTime"`
	ScanMethod     ScanMethod         `bson:"scanMethod" json:"scanMethod"`
	Location       string             `bson:"location,omitempty" json:"location,omitempty"`
}
