package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestParseProductID(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		pathValue  string
		wantOK     bool
		wantStatus int
		wantError  string
	}{
		{
			name:      "valid UUID",
			pathValue: "550e8400-e29b-41d4-a716-446655440000",
			wantOK:    true,
		},
		{
			name:       "invalid UUID",
			pathValue:  "not-a-uuid",
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_product_id",
		},
		{
			name:       "empty UUID",
			pathValue:  "",
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_product_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.SetPathValue("pid", tt.pathValue)
			rec := httptest.NewRecorder()

			id, ok := ParseProductID(rec, req, logger)

			if ok != tt.wantOK {
				t.Errorf("ParseProductID() ok = %v, want %v", ok, tt.wantOK)
			}

			if tt.wantOK {
				if id.String() != tt.pathValue {
					t.Errorf("ParseProductID() id = %v, want %v", id, tt.pathValue)
				}
				return
			}

			if id != uuid.Nil {
				t.Errorf("ParseProductID() id = %v, want uuid.Nil", id)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("ParseProductID() status = %v, want %v", rec.Code, tt.wantStatus)
			}

			var resp map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp["error"] != tt.wantError {
				t.Errorf("ParseProductID() error = %v, want %v", resp["error"], tt.wantError)
			}
		})
	}
}

func TestParseValueID_Invalid(t *testing.T) {
	logger := zap.NewNop()

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.SetPathValue("vid", "invalid")
	rec := httptest.NewRecorder()

	id, ok := ParseValueID(rec, req, logger)

	if ok {
		t.Error("ParseValueID() ok = true, want false")
	}
	if id != uuid.Nil {
		t.Errorf("ParseValueID() id = %v, want uuid.Nil", id)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["error"] != "invalid_suggested_value_id" {
		t.Errorf("ParseValueID() error = %v, want invalid_suggested_value_id", resp["error"])
	}
}

func TestParseEventID(t *testing.T) {
	logger := zap.NewNop()
	validUUID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.SetPathValue("eid", validUUID.String())
	rec := httptest.NewRecorder()

	id, ok := ParseEventID(rec, req, logger)

	if !ok {
		t.Error("ParseEventID() ok = false, want true")
	}
	if id != validUUID {
		t.Errorf("ParseEventID() id = %v, want %v", id, validUUID)
	}
}

func TestParseProductAndValueIDs(t *testing.T) {
	logger := zap.NewNop()
	productID := uuid.New()

	t.Run("both valid", func(t *testing.T) {
		valueID := uuid.New()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.SetPathValue("pid", productID.String())
		req.SetPathValue("vid", valueID.String())
		rec := httptest.NewRecorder()

		gotProduct, gotValue, ok := ParseProductAndValueIDs(rec, req, logger)
		if !ok {
			t.Fatal("ParseProductAndValueIDs() ok = false, want true")
		}
		if gotProduct != productID || gotValue != valueID {
			t.Errorf("ParseProductAndValueIDs() = (%v, %v), want (%v, %v)", gotProduct, gotValue, productID, valueID)
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.SetPathValue("pid", productID.String())
		req.SetPathValue("vid", "nope")
		rec := httptest.NewRecorder()

		_, _, ok := ParseProductAndValueIDs(rec, req, logger)
		if ok {
			t.Error("ParseProductAndValueIDs() ok = true, want false")
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %v, want %v", rec.Code, http.StatusBadRequest)
		}
	})
}
