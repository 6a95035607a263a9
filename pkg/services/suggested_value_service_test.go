package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trackmap/trackmap-engine/pkg/apperrors"
	"github.com/trackmap/trackmap-engine/pkg/models"
	"github.com/trackmap/trackmap-engine/pkg/valuetype"
)

// ============================================================================
// Mock Implementations for Suggested Value Service Tests
// ============================================================================

type mockSuggestedValueRepo struct {
	values    map[uuid.UUID]*models.SuggestedValue
	impact    *models.ImpactData
	createErr error
	updateErr error
	mergeErr  error
	merged    [][2]uuid.UUID
	// hiddenLookups makes the next N GetByValue calls miss, simulating a
	// concurrent insert that lands after the pre-check.
	hiddenLookups int
}

func newMockSuggestedValueRepo() *mockSuggestedValueRepo {
	return &mockSuggestedValueRepo{values: make(map[uuid.UUID]*models.SuggestedValue)}
}

func (m *mockSuggestedValueRepo) seed(productID uuid.UUID, text string) *models.SuggestedValue {
	v := &models.SuggestedValue{ID: uuid.New(), ProductID: productID, Value: text}
	m.values[v.ID] = v
	return v
}

func (m *mockSuggestedValueRepo) Create(ctx context.Context, value *models.SuggestedValue) error {
	if m.createErr != nil {
		return m.createErr
	}
	value.ID = uuid.New()
	m.values[value.ID] = value
	return nil
}

func (m *mockSuggestedValueRepo) Update(ctx context.Context, value *models.SuggestedValue) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.values[value.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.values[value.ID] = value
	return nil
}

func (m *mockSuggestedValueRepo) Delete(ctx context.Context, productID, valueID uuid.UUID) error {
	if _, ok := m.values[valueID]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.values, valueID)
	return nil
}

func (m *mockSuggestedValueRepo) GetByID(ctx context.Context, productID, valueID uuid.UUID) (*models.SuggestedValue, error) {
	v, ok := m.values[valueID]
	if !ok || v.ProductID != productID {
		return nil, apperrors.ErrNotFound
	}
	clone := *v
	return &clone, nil
}

func (m *mockSuggestedValueRepo) GetByValue(ctx context.Context, productID uuid.UUID, text string) (*models.SuggestedValue, error) {
	if m.hiddenLookups > 0 {
		m.hiddenLookups--
		return nil, nil
	}
	for _, v := range m.values {
		if v.ProductID == productID && v.Value == text {
			clone := *v
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *mockSuggestedValueRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*models.SuggestedValue, error) {
	var result []*models.SuggestedValue
	for _, v := range m.values {
		if v.ProductID == productID {
			result = append(result, v)
		}
	}
	return result, nil
}

func (m *mockSuggestedValueRepo) Merge(ctx context.Context, productID, sourceID, targetID uuid.UUID) (int, error) {
	if m.mergeErr != nil {
		return 0, m.mergeErr
	}
	m.merged = append(m.merged, [2]uuid.UUID{sourceID, targetID})
	delete(m.values, sourceID)
	return 2, nil
}

func (m *mockSuggestedValueRepo) GetImpact(ctx context.Context, productID, valueID uuid.UUID) (*models.ImpactData, error) {
	if m.impact != nil {
		return m.impact, nil
	}
	return &models.ImpactData{AffectedEvents: []models.AffectedEvent{}}, nil
}

func newTestSuggestedValueService(repo *mockSuggestedValueRepo) SuggestedValueService {
	return NewSuggestedValueService(repo, valuetype.Default, zap.NewNop())
}

func boolPtr(b bool) *bool { return &b }

// ============================================================================
// Create / Update Tests
// ============================================================================

func TestSuggestedValueService_Create_AutoClassifies(t *testing.T) {
	repo := newMockSuggestedValueRepo()
	svc := newTestSuggestedValueService(repo)
	productID := uuid.New()

	v, err := svc.Create(context.Background(), productID, models.SuggestedValuePatch{Value: "  $page-name "})
	require.NoError(t, err)

	assert.Equal(t, "$page-name", v.Value, "value should be trimmed")
	assert.True(t, v.IsContextual)
}

func TestSuggestedValueService_Create_ExplicitTypeWins(t *testing.T) {
	svc := newTestSuggestedValueService(newMockSuggestedValueRepo())

	v, err := svc.Create(context.Background(), uuid.New(), models.SuggestedValuePatch{Value: "$5 off", IsContextual: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, v.IsContextual)
}

func TestSuggestedValueService_Create_Blank(t *testing.T) {
	svc := newTestSuggestedValueService(newMockSuggestedValueRepo())

	_, err := svc.Create(context.Background(), uuid.New(), models.SuggestedValuePatch{Value: "   "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestSuggestedValueService_Create_Conflict(t *testing.T) {
	repo := newMockSuggestedValueRepo()
	productID := uuid.New()
	existing := repo.seed(productID, "checkout")
	svc := newTestSuggestedValueService(repo)

	_, err := svc.Create(context.Background(), productID, models.SuggestedValuePatch{Value: "checkout"})

	data, ok := apperrors.AsSuggestedValueConflict(err)
	require.True(t, ok, "expected structured conflict, got %v", err)
	assert.Equal(t, existing.ID, data.ExistingValue.ID)
}

func TestSuggestedValueService_Update_Conflict(t *testing.T) {
	repo := newMockSuggestedValueRepo()
	productID := uuid.New()
	editing := repo.seed(productID, "homepage")
	existing := repo.seed(productID, "checkout")
	svc := newTestSuggestedValueService(repo)

	_, err := svc.Update(context.Background(), productID, editing.ID, models.SuggestedValuePatch{Value: "checkout"})

	require.ErrorIs(t, err, apperrors.ErrConflict)
	data, ok := apperrors.AsSuggestedValueConflict(err)
	require.True(t, ok)
	assert.Equal(t, existing.ID, data.ExistingValue.ID)
	assert.Equal(t, "checkout", data.ExistingValue.Value)
	assert.Equal(t, "homepage", repo.values[editing.ID].Value, "conflicting update must not be applied")
}

func TestSuggestedValueService_Update_SameTextChangesType(t *testing.T) {
	repo := newMockSuggestedValueRepo()
	productID := uuid.New()
	editing := repo.seed(productID, "checkout")
	svc := newTestSuggestedValueService(repo)

	updated, err := svc.Update(context.Background(), productID, editing.ID, models.SuggestedValuePatch{Value: "checkout", IsContextual: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, updated.IsContextual)
}

func TestSuggestedValueService_Update_RaceBecomesStructuredConflict(t *testing.T) {
	repo := newMockSuggestedValueRepo()
	productID := uuid.New()
	editing := repo.seed(productID, "homepage")
	svc := newTestSuggestedValueService(repo)

	// Another writer inserts "checkout" between the pre-check and the write.
	winner := repo.seed(productID, "checkout")
	repo.hiddenLookups = 1
	repo.updateErr = apperrors.ErrConflict

	_, err := svc.Update(context.Background(), productID, editing.ID, models.SuggestedValuePatch{Value: "checkout"})
	data, ok := apperrors.AsSuggestedValueConflict(err)
	require.True(t, ok)
	assert.Equal(t, winner.ID, data.ExistingValue.ID)
}

func TestSuggestedValueService_Update_NotFound(t *testing.T) {
	svc := newTestSuggestedValueService(newMockSuggestedValueRepo())

	_, err := svc.Update(context.Background(), uuid.New(), uuid.New(), models.SuggestedValuePatch{Value: "x"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// ============================================================================
// Merge / Impact Tests
// ============================================================================

func TestSuggestedValueService_Merge(t *testing.T) {
	repo := newMockSuggestedValueRepo()
	productID := uuid.New()
	source := repo.seed(productID, "homepage")
	target := repo.seed(productID, "checkout")
	svc := newTestSuggestedValueService(repo)

	merged, err := svc.Merge(context.Background(), productID, source.ID, target.ID)
	require.NoError(t, err)

	assert.Equal(t, target.ID, merged.ID)
	assert.Equal(t, [][2]uuid.UUID{{source.ID, target.ID}}, repo.merged)
	assert.NotContains(t, repo.values, source.ID)
}

func TestSuggestedValueService_Merge_Self(t *testing.T) {
	svc := newTestSuggestedValueService(newMockSuggestedValueRepo())
	id := uuid.New()

	_, err := svc.Merge(context.Background(), uuid.New(), id, id)
	assert.ErrorIs(t, err, apperrors.ErrSelfMerge)
}

func TestSuggestedValueService_GetImpact_UnknownValue(t *testing.T) {
	svc := newTestSuggestedValueService(newMockSuggestedValueRepo())

	_, err := svc.GetImpact(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSuggestedValueService_ConfiguredPrefixPolicy(t *testing.T) {
	svc := NewSuggestedValueService(newMockSuggestedValueRepo(), valuetype.New('$', valuetype.PolicyPrefix), zap.NewNop())

	v, err := svc.Create(context.Background(), uuid.New(), models.SuggestedValuePatch{Value: "price-$"})
	require.NoError(t, err)
	assert.False(t, v.IsContextual)
}
