package search

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
	"github.com/estimaihq/takeoff-backend/internal/knowledge"
)

func storeAdapterFixture() *StoreAdapter {
	records := []entities.StandardRecord{
		{ID: 1, Content: "RCP reinforced concrete pipe per ASTM C76", Discipline: entities.DisciplineStorm, Category: entities.CategoryMaterial},
		{ID: 2, Content: "PVC SDR 35 pipe per ASTM D3034", Discipline: entities.DisciplineSanitary, Category: entities.CategoryMaterial},
		{ID: 3, Content: "Minimum pipe cover under paved surfaces", Discipline: entities.DisciplineGeneral, Category: entities.CategoryCoverDepth},
	}
	return NewStoreAdapter(knowledge.NewStore(records, zerolog.Nop()))
}

func TestStoreAdapter_SubstringMatch(t *testing.T) {
	adapter := storeAdapterFixture()

	records, err := adapter.Search(context.Background(), StandardSearchParams{Query: "concrete", Limit: 10})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].ID)
}

func TestStoreAdapter_DisciplineFilterKeepsGeneral(t *testing.T) {
	adapter := storeAdapterFixture()

	records, err := adapter.Search(context.Background(), StandardSearchParams{
		Query:      "pipe",
		Discipline: entities.DisciplineStorm,
		Limit:      10,
	})
	require.NoError(t, err)

	ids := make([]int, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	assert.ElementsMatch(t, []int{1, 3}, ids)
}

func TestStoreAdapter_Paging(t *testing.T) {
	adapter := storeAdapterFixture()

	records, err := adapter.Search(context.Background(), StandardSearchParams{Query: "pipe", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].ID)

	records, err = adapter.Search(context.Background(), StandardSearchParams{Query: "pipe", Limit: 10, Offset: 50})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStoreAdapter_NoMatch(t *testing.T) {
	adapter := storeAdapterFixture()

	records, err := adapter.Search(context.Background(), StandardSearchParams{Query: "fiberglass", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, records)
}
