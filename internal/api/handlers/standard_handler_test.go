package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estimaihq/takeoff-backend/internal/adapters/search"
	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
	"github.com/estimaihq/takeoff-backend/internal/knowledge"
	apperrors "github.com/estimaihq/takeoff-backend/pkg/errors"
)

type stubGetter struct {
	record *entities.StandardRecord
	err    error
}

func (s *stubGetter) GetByID(_ context.Context, _ int) (*entities.StandardRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.record, nil
}

func testStandardHandler(getter StandardGetter) *StandardHandler {
	records := []entities.StandardRecord{
		{ID: 1, Content: "RCP reinforced concrete pipe per ASTM C76", Discipline: entities.DisciplineStorm, Category: entities.CategoryMaterial},
		{ID: 2, Content: "PVC SDR 35 pipe per ASTM D3034", Discipline: entities.DisciplineSanitary, Category: entities.CategoryMaterial},
	}
	searcher := search.NewStoreAdapter(knowledge.NewStore(records, zerolog.Nop()))
	return NewStandardHandler(searcher, getter)
}

func TestSearchStandards_StoreFallbackServesResults(t *testing.T) {
	handler := testStandardHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/standards/search?q=concrete", nil)
	rec := httptest.NewRecorder()
	handler.SearchStandards(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count   int                       `json:"count"`
		Results []entities.StandardRecord `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, 1, body.Results[0].ID)
}

func TestSearchStandards_MissingQuery(t *testing.T) {
	handler := testStandardHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/standards/search", nil)
	rec := httptest.NewRecorder()
	handler.SearchStandards(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetStandard_Found(t *testing.T) {
	record := &entities.StandardRecord{ID: 7, Content: "HDPE pipe per AASHTO M294", Discipline: entities.DisciplineStorm, Category: entities.CategoryMaterial}
	handler := testStandardHandler(&stubGetter{record: record})

	req := httptest.NewRequest(http.MethodGet, "/api/standards/7", nil)
	req.SetPathValue("id", "7")
	rec := httptest.NewRecorder()
	handler.GetStandard(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got entities.StandardRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 7, got.ID)
}

func TestGetStandard_NotFound(t *testing.T) {
	handler := testStandardHandler(&stubGetter{err: apperrors.NewNotFoundError("standard record with id 99 not found")})

	req := httptest.NewRequest(http.MethodGet, "/api/standards/99", nil)
	req.SetPathValue("id", "99")
	rec := httptest.NewRecorder()
	handler.GetStandard(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetStandard_InvalidID(t *testing.T) {
	handler := testStandardHandler(&stubGetter{})

	req := httptest.NewRequest(http.MethodGet, "/api/standards/abc", nil)
	req.SetPathValue("id", "abc")
	rec := httptest.NewRecorder()
	handler.GetStandard(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetStandard_NoStoreConfigured(t *testing.T) {
	handler := testStandardHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/standards/1", nil)
	req.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	handler.GetStandard(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
