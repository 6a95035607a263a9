package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trackmap/trackmap-engine/pkg/apperrors"
	"github.com/trackmap/trackmap-engine/pkg/models"
)

// mockSuggestedValueService records the last call and returns canned results.
type mockSuggestedValueService struct {
	values []*models.SuggestedValue
	value  *models.SuggestedValue
	impact *models.ImpactData
	err    error

	lastPatch    models.SuggestedValuePatch
	lastSourceID uuid.UUID
	lastTargetID uuid.UUID
	deletedID    uuid.UUID
}

func (m *mockSuggestedValueService) List(ctx context.Context, productID uuid.UUID) ([]*models.SuggestedValue, error) {
	return m.values, m.err
}

func (m *mockSuggestedValueService) Get(ctx context.Context, productID, valueID uuid.UUID) (*models.SuggestedValue, error) {
	return m.value, m.err
}

func (m *mockSuggestedValueService) Create(ctx context.Context, productID uuid.UUID, patch models.SuggestedValuePatch) (*models.SuggestedValue, error) {
	m.lastPatch = patch
	return m.value, m.err
}

func (m *mockSuggestedValueService) Update(ctx context.Context, productID, valueID uuid.UUID, patch models.SuggestedValuePatch) (*models.SuggestedValue, error) {
	m.lastPatch = patch
	return m.value, m.err
}

func (m *mockSuggestedValueService) Delete(ctx context.Context, productID, valueID uuid.UUID) error {
	m.deletedID = valueID
	return m.err
}

func (m *mockSuggestedValueService) Merge(ctx context.Context, productID, sourceID, targetID uuid.UUID) (*models.SuggestedValue, error) {
	m.lastSourceID = sourceID
	m.lastTargetID = targetID
	return m.value, m.err
}

func (m *mockSuggestedValueService) GetImpact(ctx context.Context, productID, valueID uuid.UUID) (*models.ImpactData, error) {
	return m.impact, m.err
}

func passthrough(next http.HandlerFunc) http.HandlerFunc { return next }

func newSuggestedValueMux(svc *mockSuggestedValueService) *http.ServeMux {
	mux := http.NewServeMux()
	NewSuggestedValueHandler(svc, zap.NewNop()).RegisterRoutes(mux, passthrough)
	return mux
}

func serve(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestSuggestedValueHandler_Update_Success(t *testing.T) {
	productID, valueID := uuid.New(), uuid.New()
	svc := &mockSuggestedValueService{
		value: &models.SuggestedValue{ID: valueID, ProductID: productID, Value: "checkout"},
	}
	mux := newSuggestedValueMux(svc)

	isContextual := false
	rec := serve(t, mux, http.MethodPut,
		"/api/products/"+productID.String()+"/suggested-values/"+valueID.String(),
		models.SuggestedValuePatch{Value: "checkout", IsContextual: &isContextual})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "checkout", svc.lastPatch.Value)
	require.NotNil(t, svc.lastPatch.IsContextual)
	assert.False(t, *svc.lastPatch.IsContextual)

	var resp struct {
		Success bool                  `json:"success"`
		Data    models.SuggestedValue `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, valueID, resp.Data.ID)
}

func TestSuggestedValueHandler_Update_Conflict(t *testing.T) {
	productID, valueID, existingID := uuid.New(), uuid.New(), uuid.New()
	svc := &mockSuggestedValueService{
		err: &apperrors.SuggestedValueConflictError{Data: models.ConflictData{
			ExistingValue: models.SuggestedValue{ID: existingID, ProductID: productID, Value: "checkout", UsageCount: 4},
		}},
	}
	mux := newSuggestedValueMux(svc)

	rec := serve(t, mux, http.MethodPut,
		"/api/products/"+productID.String()+"/suggested-values/"+valueID.String(),
		models.SuggestedValuePatch{Value: "checkout"})

	require.Equal(t, http.StatusConflict, rec.Code)

	var resp ConflictResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "suggested_value_exists", resp.Error)
	assert.Equal(t, existingID, resp.ConflictData.ExistingValue.ID)
	assert.Equal(t, "checkout", resp.ConflictData.ExistingValue.Value)
	assert.Equal(t, 4, resp.ConflictData.ExistingValue.UsageCount)
}

func TestSuggestedValueHandler_Create_Conflict(t *testing.T) {
	productID := uuid.New()
	svc := &mockSuggestedValueService{
		err: &apperrors.SuggestedValueConflictError{Data: models.ConflictData{
			ExistingValue: models.SuggestedValue{ID: uuid.New(), Value: "home"},
		}},
	}
	mux := newSuggestedValueMux(svc)

	rec := serve(t, mux, http.MethodPost, "/api/products/"+productID.String()+"/suggested-values",
		models.SuggestedValuePatch{Value: "home"})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSuggestedValueHandler_Update_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", apperrors.Required("value"), http.StatusBadRequest, "validation_error"},
		{"not found", apperrors.ErrNotFound, http.StatusNotFound, "suggested_value_not_found"},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError, "update_suggested_value_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newSuggestedValueMux(&mockSuggestedValueService{err: tt.err})

			rec := serve(t, mux, http.MethodPut,
				"/api/products/"+uuid.NewString()+"/suggested-values/"+uuid.NewString(),
				models.SuggestedValuePatch{Value: "x"})

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantCode, resp["error"])
		})
	}
}

func TestSuggestedValueHandler_Update_InvalidBody(t *testing.T) {
	mux := newSuggestedValueMux(&mockSuggestedValueService{})

	req := httptest.NewRequest(http.MethodPut,
		"/api/products/"+uuid.NewString()+"/suggested-values/"+uuid.NewString(),
		bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSuggestedValueHandler_Merge(t *testing.T) {
	productID, sourceID, targetID := uuid.New(), uuid.New(), uuid.New()
	svc := &mockSuggestedValueService{
		value: &models.SuggestedValue{ID: targetID, Value: "checkout", UsageCount: 5},
	}
	mux := newSuggestedValueMux(svc)

	rec := serve(t, mux, http.MethodPost,
		"/api/products/"+productID.String()+"/suggested-values/"+sourceID.String()+"/merge",
		MergeSuggestedValueRequest{TargetID: targetID})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, sourceID, svc.lastSourceID)
	assert.Equal(t, targetID, svc.lastTargetID)
}

func TestSuggestedValueHandler_Merge_LeavesLoggingToService(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	svc := &mockSuggestedValueService{value: &models.SuggestedValue{ID: uuid.New(), Value: "checkout"}}
	mux := http.NewServeMux()
	NewSuggestedValueHandler(svc, zap.New(core)).RegisterRoutes(mux, passthrough)

	rec := serve(t, mux, http.MethodPost,
		"/api/products/"+uuid.NewString()+"/suggested-values/"+uuid.NewString()+"/merge",
		MergeSuggestedValueRequest{TargetID: svc.value.ID})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, logs.Len())
}

func TestSuggestedValueHandler_Merge_MissingTarget(t *testing.T) {
	svc := &mockSuggestedValueService{}
	mux := newSuggestedValueMux(svc)

	rec := serve(t, mux, http.MethodPost,
		"/api/products/"+uuid.NewString()+"/suggested-values/"+uuid.NewString()+"/merge",
		map[string]string{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, uuid.Nil, svc.lastSourceID)
}

func TestSuggestedValueHandler_Merge_Self(t *testing.T) {
	id := uuid.New()
	mux := newSuggestedValueMux(&mockSuggestedValueService{err: apperrors.ErrSelfMerge})

	rec := serve(t, mux, http.MethodPost,
		"/api/products/"+uuid.NewString()+"/suggested-values/"+id.String()+"/merge",
		MergeSuggestedValueRequest{TargetID: id})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "invalid_merge", resp["error"])
}

func TestSuggestedValueHandler_Impact(t *testing.T) {
	eventID := uuid.New()
	svc := &mockSuggestedValueService{
		impact: &models.ImpactData{
			AffectedEventsCount: 1,
			AffectedEvents: []models.AffectedEvent{{
				ID:                 eventID,
				Name:               "page_view",
				Page:               "Checkout",
				MatchingProperties: []models.MatchingProperty{{Key: "page_name", Value: "$page-name"}},
			}},
		},
	}
	mux := newSuggestedValueMux(svc)

	rec := serve(t, mux, http.MethodGet,
		"/api/products/"+uuid.NewString()+"/suggested-values/"+uuid.NewString()+"/impact", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data models.ImpactData `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Data.AffectedEventsCount)
	require.Len(t, resp.Data.AffectedEvents, 1)
	assert.Equal(t, "Checkout", resp.Data.AffectedEvents[0].Page)
	assert.Equal(t, "page_name", resp.Data.AffectedEvents[0].MatchingProperties[0].Key)
}

func TestSuggestedValueHandler_Delete(t *testing.T) {
	valueID := uuid.New()
	svc := &mockSuggestedValueService{}
	mux := newSuggestedValueMux(svc)

	rec := serve(t, mux, http.MethodDelete,
		"/api/products/"+uuid.NewString()+"/suggested-values/"+valueID.String(), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, valueID, svc.deletedID)
}

func TestSuggestedValueHandler_InvalidValueID(t *testing.T) {
	mux := newSuggestedValueMux(&mockSuggestedValueService{})

	rec := serve(t, mux, http.MethodGet, "/api/products/"+uuid.NewString()+"/suggested-values/nope", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "invalid_suggested_value_id", resp["error"])
}
