package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackmap/trackmap-engine/pkg/apperrors"
	"github.com/trackmap/trackmap-engine/pkg/models"
)

// recordedRequest is what the fake server saw.
type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

func newTestClient(t *testing.T, status int, response string) (*Client, *recordedRequest) {
	t.Helper()
	seen := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*seen = recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, uuid.MustParse("11111111-1111-1111-1111-111111111111"), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c, seen
}

const productPath = "/api/products/11111111-1111-1111-1111-111111111111"

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New("not a url", uuid.New())
	assert.Error(t, err)

	_, err = New("/relative", uuid.New())
	assert.Error(t, err)
}

func TestNew_NilLogger(t *testing.T) {
	var c *Client
	require.NotPanics(t, func() {
		var err error
		c, err = New("http://localhost:3480", uuid.New(), WithLogger(nil))
		require.NoError(t, err)
	})
	assert.NotNil(t, c.logger)
}

func TestUpdateSuggestedValue_Success(t *testing.T) {
	id := uuid.New()
	c, seen := newTestClient(t, http.StatusOK,
		`{"success":true,"data":{"id":"`+id.String()+`","value":"checkout","isContextual":false,"usageCount":2}}`)

	contextual := false
	got, err := c.UpdateSuggestedValue(context.Background(), id, models.SuggestedValuePatch{Value: "checkout", IsContextual: &contextual})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, seen.Method)
	assert.Equal(t, productPath+"/suggested-values/"+id.String(), seen.Path)
	assert.JSONEq(t, `{"value":"checkout","isContextual":false}`, seen.Body)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, 2, got.UsageCount)
}

func TestUpdateSuggestedValue_Conflict(t *testing.T) {
	existingID := uuid.New()
	c, _ := newTestClient(t, http.StatusConflict,
		`{"error":"suggested_value_exists","message":"suggested value \"checkout\" already exists",`+
			`"conflictData":{"existingValue":{"id":"`+existingID.String()+`","value":"checkout","isContextual":false,"usageCount":7}}}`)

	_, err := c.UpdateSuggestedValue(context.Background(), uuid.New(), models.SuggestedValuePatch{Value: "checkout"})
	require.Error(t, err)

	data, ok := apperrors.AsSuggestedValueConflict(err)
	require.True(t, ok, "expected typed conflict, got %T: %v", err, err)
	assert.Equal(t, existingID, data.ExistingValue.ID)
	assert.Equal(t, "checkout", data.ExistingValue.Value)
	assert.Equal(t, 7, data.ExistingValue.UsageCount)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestUpdateSuggestedValue_ConflictWithoutPayload(t *testing.T) {
	c, _ := newTestClient(t, http.StatusConflict, `{"error":"conflict","message":"conflict"}`)

	_, err := c.UpdateSuggestedValue(context.Background(), uuid.New(), models.SuggestedValuePatch{Value: "x"})

	_, ok := apperrors.AsSuggestedValueConflict(err)
	assert.False(t, ok)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestMergeSuggestedValues(t *testing.T) {
	sourceID, targetID := uuid.New(), uuid.New()
	c, seen := newTestClient(t, http.StatusOK,
		`{"success":true,"data":{"id":"`+targetID.String()+`","value":"checkout","usageCount":9}}`)

	got, err := c.MergeSuggestedValues(context.Background(), sourceID, targetID)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, seen.Method)
	assert.Equal(t, productPath+"/suggested-values/"+sourceID.String()+"/merge", seen.Path)

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(seen.Body), &body))
	assert.Equal(t, targetID.String(), body["targetId"])
	assert.Equal(t, targetID, got.ID)
}

func TestGetSuggestedValueImpact(t *testing.T) {
	id := uuid.New()
	c, seen := newTestClient(t, http.StatusOK, `{"success":true,"data":{
		"affectedEventsCount":2,
		"affectedEvents":[
			{"id":"`+uuid.NewString()+`","name":"page_view","page":"Home","matchingProperties":[{"key":"page_name","value":"$page-name"}]},
			{"id":"`+uuid.NewString()+`","name":"purchase","page":"Checkout","matchingProperties":[{"key":"source","value":"$page-name"},{"key":"origin","value":"$page-name"}]}
		]}}`)

	impact, err := c.GetSuggestedValueImpact(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, productPath+"/suggested-values/"+id.String()+"/impact", seen.Path)
	assert.Equal(t, 2, impact.AffectedEventsCount)
	require.Len(t, impact.AffectedEvents, 2)
	assert.Len(t, impact.AffectedEvents[1].MatchingProperties, 2)
}

func TestDeleteSuggestedValue(t *testing.T) {
	id := uuid.New()
	c, seen := newTestClient(t, http.StatusOK, `{"success":true}`)

	require.NoError(t, c.DeleteSuggestedValue(context.Background(), id))
	assert.Equal(t, http.MethodDelete, seen.Method)
	assert.Empty(t, seen.Body)
}

func TestDeleteSuggestedValue_NotFound(t *testing.T) {
	c, _ := newTestClient(t, http.StatusNotFound,
		`{"error":"suggested_value_not_found","message":"not found"}`)

	err := c.DeleteSuggestedValue(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "suggested_value_not_found", apiErr.Code)
}

func TestDo_NonJSONError(t *testing.T) {
	c, _ := newTestClient(t, http.StatusBadGateway, "upstream unavailable\n")

	_, err := c.ListSuggestedValues(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream unavailable", apiErr.Message)
}

func TestListSuggestedValues(t *testing.T) {
	c, seen := newTestClient(t, http.StatusOK,
		`{"success":true,"data":{"values":[{"id":"`+uuid.NewString()+`","value":"home"},{"id":"`+uuid.NewString()+`","value":"$page-name","isContextual":true}],"total":2}}`)

	values, err := c.ListSuggestedValues(context.Background())
	require.NoError(t, err)

	assert.Equal(t, productPath+"/suggested-values", seen.Path)
	require.Len(t, values, 2)
	assert.True(t, values[1].IsContextual)
}

func TestListEvents(t *testing.T) {
	c, seen := newTestClient(t, http.StatusOK, `{"success":true,"data":{"events":[{"id":"`+uuid.NewString()+`","name":"signup","properties":[]}],"total":1}}`)

	events, err := c.ListEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, productPath+"/events", seen.Path)
	require.Len(t, events, 1)
	assert.Equal(t, "signup", events[0].Name)
}

func TestBuildURL_KeepsBasePath(t *testing.T) {
	c, err := New("https://trackmap.example.com/engine/", uuid.New())
	require.NoError(t, err)

	assert.Equal(t, "https://trackmap.example.com/engine/api/products", c.buildURL("api", "products"))
}
