package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
)

func result(id int, method entities.RetrievalMethod) entities.RetrievedResult {
	return entities.RetrievedResult{
		Record:          entities.StandardRecord{ID: id, Content: "doc"},
		Score:           1.0,
		RetrievalMethod: method,
	}
}

func TestFuseRRF_ScoreFormula(t *testing.T) {
	// Rank 1 in a single list scores exactly 1/61
	fused := FuseRRF([][]entities.RetrievedResult{
		{result(1, entities.RetrievalMethodKeyword)},
	}, 10)
	require.Len(t, fused, 1)
	assert.InDelta(t, 1.0/61.0, fused[0].FusedScore, 1e-9)
	assert.InDelta(t, 0.01639, fused[0].FusedScore, 0.0001)
}

func TestFuseRRF_SumsAcrossLists(t *testing.T) {
	listA := []entities.RetrievedResult{
		result(1, entities.RetrievalMethodKeyword),
		result(2, entities.RetrievalMethodKeyword),
	}
	listB := []entities.RetrievedResult{
		result(3, entities.RetrievalMethodSemantic),
		result(1, entities.RetrievalMethodSemantic),
	}

	fused := FuseRRF([][]entities.RetrievedResult{listA, listB}, 10)
	require.Len(t, fused, 3)

	// Doc 1: rank 1 in A, rank 2 in B
	assert.Equal(t, 1, fused[0].Record.ID)
	assert.InDelta(t, 1.0/61.0+1.0/62.0, fused[0].FusedScore, 1e-9)
	assert.ElementsMatch(t,
		[]entities.RetrievalMethod{entities.RetrievalMethodKeyword, entities.RetrievalMethodSemantic},
		fused[0].RetrievalMethods)
	assert.Equal(t, 2, fused[0].AppearedInQueries)
	assert.InDelta(t, 1.5, fused[0].AvgRank, 1e-9)
}

func TestFuseRRF_MultiListDocOutranksSingleListDoc(t *testing.T) {
	// A doc appearing in both lists at comparable ranks must beat a doc
	// found by only one method
	listA := []entities.RetrievedResult{
		result(10, entities.RetrievalMethodKeyword),
		result(20, entities.RetrievalMethodKeyword),
	}
	listB := []entities.RetrievedResult{
		result(20, entities.RetrievalMethodSemantic),
		result(30, entities.RetrievalMethodSemantic),
	}

	fused := FuseRRF([][]entities.RetrievedResult{listA, listB}, 10)
	require.NotEmpty(t, fused)
	assert.Equal(t, 20, fused[0].Record.ID)
}

func TestFuseRRF_TieBreakIsFirstAppearance(t *testing.T) {
	// Docs 1 and 2 each appear once at rank 1; doc 1 was seen first
	listA := []entities.RetrievedResult{result(1, entities.RetrievalMethodKeyword)}
	listB := []entities.RetrievedResult{result(2, entities.RetrievalMethodSemantic)}

	fused := FuseRRF([][]entities.RetrievedResult{listA, listB}, 10)
	require.Len(t, fused, 2)
	assert.Equal(t, 1, fused[0].Record.ID)
	assert.Equal(t, 2, fused[1].Record.ID)
}

func TestFuseRRF_TruncatesToK(t *testing.T) {
	list := []entities.RetrievedResult{
		result(1, entities.RetrievalMethodKeyword),
		result(2, entities.RetrievalMethodKeyword),
		result(3, entities.RetrievalMethodKeyword),
	}
	fused := FuseRRF([][]entities.RetrievedResult{list}, 2)
	assert.Len(t, fused, 2)
}

func TestFuseRRF_EmptyInput(t *testing.T) {
	assert.Empty(t, FuseRRF(nil, 5))
	assert.Empty(t, FuseRRF([][]entities.RetrievedResult{{}, {}}, 5))
}
