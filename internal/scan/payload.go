// Package scan decodes the contents of facility QR codes and NFC tags.
package scan

import (
	"encoding/json"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrMalformedPayload is returned for any payload that does not name a facility.
var ErrMalformedPayload = errors.New("malformed scan payload")

// Payload is the facility reference carried by a scanned code. Exactly one of
// FacilityID and FacilityCode is set after a successful Decode.
type Payload struct {
	FacilityID   *primitive.ObjectID
	FacilityCode string
}

type rawPayload struct {
	FacilityID   string `json:"facility_id"`
	FacilityCode string `json:"facility_code"`
}

// Decode parses a payload of the form {"facility_id": "<hex>"} or
// {"facility_code": "<code>"}. When both are present the id wins.
func Decode(payload string) (Payload, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return Payload{}, ErrMalformedPayload
	}

	var raw rawPayload
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return Payload{}, ErrMalformedPayload
	}

	if id := strings.TrimSpace(raw.FacilityID); id != "" {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return Payload{}, ErrMalformedPayload
		}
		return Payload{FacilityID: &oid}, nil
	}
	if code := strings.TrimSpace(raw.FacilityCode); code != "" {
		return Payload{FacilityCode: code}, nil
	}
	return Payload{}, ErrMalformedPayload
}
