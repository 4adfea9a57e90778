package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estimaihq/takeoff-backend/internal/domain/entities"
)

func TestFindUnknowns_ExactSubstringPrecision(t *testing.T) {
	detector := NewUnknownDetectorService()
	pipes := []entities.PipeDetection{
		{Discipline: entities.DisciplineStorm, Material: "RCP", DiameterIn: 18, LengthFT: 100},
		{Discipline: entities.DisciplineSanitary, Material: "FPVC", DiameterIn: 8, LengthFT: 50},
	}
	contexts := []string{"RCP is used for storm drains"}

	unknowns := detector.FindUnknowns(pipes, contexts)
	require.Len(t, unknowns, 1)
	assert.Equal(t, "FPVC", unknowns[0].Value)
	assert.Equal(t, entities.UnknownTypeMaterial, unknowns[0].Type)
	assert.Equal(t, 1, unknowns[0].Count)
}

func TestFindUnknowns_SkipsPlaceholders(t *testing.T) {
	detector := NewUnknownDetectorService()
	pipes := []entities.PipeDetection{
		{Discipline: entities.DisciplineStorm, Material: "", DiameterIn: 12, LengthFT: 10},
		{Discipline: entities.DisciplineStorm, Material: "unknown", DiameterIn: 12, LengthFT: 10},
		{Discipline: entities.DisciplineStorm, Material: "N/A", DiameterIn: 12, LengthFT: 10},
	}

	assert.Empty(t, detector.FindUnknowns(pipes, nil))
}

func TestFindUnknowns_CountsPipesPerMaterial(t *testing.T) {
	detector := NewUnknownDetectorService()
	pipes := []entities.PipeDetection{
		{Discipline: entities.DisciplineStorm, Material: "cmp", DiameterIn: 24, LengthFT: 80},
		{Discipline: entities.DisciplineStorm, Material: "CMP", DiameterIn: 30, LengthFT: 120},
		{Discipline: entities.DisciplineStorm, Material: " CMP ", DiameterIn: 36, LengthFT: 60},
	}

	unknowns := detector.FindUnknowns(pipes, []string{"nothing relevant"})
	require.Len(t, unknowns, 1)
	assert.Equal(t, "CMP", unknowns[0].Value)
	assert.Equal(t, 3, unknowns[0].Count)
	assert.Contains(t, unknowns[0].Context, "3 pipe(s)")
}

func TestFindUnknowns_CaseInsensitiveMatch(t *testing.T) {
	detector := NewUnknownDetectorService()
	pipes := []entities.PipeDetection{
		{Discipline: entities.DisciplineSanitary, Material: "pvc", DiameterIn: 8, LengthFT: 40},
	}

	// Lowercase context still substantiates the uppercased material
	assert.Empty(t, detector.FindUnknowns(pipes, []string{"pvc sdr 35 per astm d3034"}))
}
