package scan

import (
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	const hex = "65f0c0ffee00000000000001"

	tests := []struct {
		name     string
		payload  string
		wantID   string
		wantCode string
		wantErr  bool
	}{
		{name: "by id", payload: `{"facility_id":"` + hex + `"}`, wantID: hex},
		{name: "by code", payload: `{"facility_code":" POOL-1 "}`, wantCode: "POOL-1"},
		{name: "id wins over code", payload: `{"facility_id":"` + hex + `","facility_code":"POOL-1"}`, wantID: hex},
		{name: "empty", payload: "  ", wantErr: true},
		{name: "not json", payload: "POOL-1", wantErr: true},
		{name: "json array", payload: `["POOL-1"]`, wantErr: true},
		{name: "no reference", payload: `{"facility":"POOL-1"}`, wantErr: true},
		{name: "bad hex", payload: `{"facility_id":"nothex"}`, wantErr: true},
		{name: "wrong type", payload: `{"facility_code":42}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.payload)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedPayload) {
					t.Fatalf("Decode(%q) error = %v, want ErrMalformedPayload", tt.payload, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode(%q): %v", tt.payload, err)
			}
			if tt.wantID != "" {
				if got.FacilityID == nil || got.FacilityID.Hex() != tt.wantID || got.FacilityCode != "" {
					t.Errorf("got %+v, want id %s", got, tt.wantID)
				}
			}
			if tt.wantCode != "" && (got.FacilityCode != tt.wantCode || got.FacilityID != nil) {
				t.Errorf("got %+v, want code %s", got, tt.wantCode)
			}
		})
	}
}
