package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
	"github.com/estimaihq/takeoff-backend/internal/retrieval"
)

func testRetrievalHandler() *RetrievalHandler {
	records := []entities.StandardRecord{
		{ID: 1, Content: "Storm sewer pipe shall have a minimum cover depth of 3 feet.", Discipline: entities.DisciplineStorm, Category: entities.CategoryCoverDepth, Source: "local"},
		{ID: 2, Content: "RCP reinforced concrete pipe per ASTM C76 for storm culverts.", Discipline: entities.DisciplineStorm, Category: entities.CategoryMaterial, Source: "astm"},
		{ID: 3, Content: "Water main separation shall be 10 feet horizontal from sewers.", Discipline: entities.DisciplineWater, Category: entities.CategoryValidation, Source: "tss"},
	}
	hybrid := retrieval.NewHybridRetriever(records, nil, nil)
	multi := retrieval.NewMultiQueryRetriever(hybrid, nil, nil)
	return NewRetrievalHandler(hybrid, multi)
}

func TestRetrievalHandler_HybridQuery(t *testing.T) {
	handler := testRetrievalHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/retrieval/query?q=storm+cover+depth&k=3", nil)
	rec := httptest.NewRecorder()
	handler.Query(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cover depth")
	// Semantic index is unbuilt so results come back keyword-only
	assert.Contains(t, rec.Body.String(), `"degraded":true`)
}

func TestRetrievalHandler_MissingQuery(t *testing.T) {
	handler := testRetrievalHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/retrieval/query", nil)
	rec := httptest.NewRecorder()
	handler.Query(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRetrievalHandler_InvalidK(t *testing.T) {
	handler := testRetrievalHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/retrieval/query?q=pipe&k=zero", nil)
	rec := httptest.NewRecorder()
	handler.Query(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRetrievalHandler_UnknownMode(t *testing.T) {
	handler := testRetrievalHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/retrieval/query?q=pipe&mode=exotic", nil)
	rec := httptest.NewRecorder()
	handler.Query(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRetrievalHandler_MultiQueryMode(t *testing.T) {
	handler := testRetrievalHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/retrieval/query?q=RCP+culvert&mode=multiquery", nil)
	rec := httptest.NewRecorder()
	handler.Query(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ASTM C76")
}
