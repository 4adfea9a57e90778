package database

import (
	"database/sql"
	"testing"

	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
)

func TestDeleteAllSQL_ClearsWholeTable(t *testing.T) {
	adapter := &StandardAdapter{db: goqu.New("postgres", nil)}

	query, args, err := adapter.deleteAllSQL()
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "construction_standards"`, query)
	assert.Empty(t, args)
}

func TestStandardRow_EmptyReferenceStoredAsNull(t *testing.T) {
	row := standardRow(&entities.StandardRecord{
		ID:         1,
		Content:    "RCP reinforced concrete pipe per ASTM C76",
		Discipline: entities.DisciplineStorm,
		Category:   entities.CategoryMaterial,
		Source:     "astm",
	})

	ref, ok := row["reference"].(sql.NullString)
	require.True(t, ok)
	assert.False(t, ref.Valid)
}

func TestStandardRow_KeepsExplicitID(t *testing.T) {
	row := standardRow(&entities.StandardRecord{ID: 42, Content: "c", Source: "s", Reference: "ASTM C76"})

	assert.Equal(t, 42, row["id"])
	ref := row["reference"].(sql.NullString)
	assert.True(t, ref.Valid)
	assert.Equal(t, "ASTM C76", ref.String)
}
