package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAbbrevConfig(t *testing.T) string {
	t.Helper()
	content := `{
		"abbreviations": {
			"RCP": {"expanded": "reinforced concrete pipe", "alternates": [], "discipline": "storm"},
			"DIP": {"expanded": "ductile iron pipe", "alternates": ["DI"], "discipline": "water"},
			"SS": {"expanded": "sanitary sewer", "alternates": [], "discipline": "sanitary"},
			"SSMH": {"expanded": "sanitary sewer manhole", "alternates": [], "discipline": "sanitary"},
			"MH": {"expanded": "manhole", "alternates": [], "discipline": "general"}
		}
	}`
	path := filepath.Join(t.TempDir(), "abbreviations.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNormalize_ExpandsAbbreviation(t *testing.T) {
	normalizer, err := NewMaterialNormalizer(writeAbbrevConfig(t))
	require.NoError(t, err)

	result := normalizer.Normalize("18\" RCP")
	assert.Equal(t, "18\" reinforced concrete pipe", result.DisplayName)
	assert.Equal(t, "18_reinforced_concrete_pipe", result.Identifier)
}

func TestNormalize_EmptyLabel(t *testing.T) {
	normalizer, err := NewMaterialNormalizer(writeAbbrevConfig(t))
	require.NoError(t, err)

	result := normalizer.Normalize("")
	assert.Empty(t, result.DisplayName)
	assert.Empty(t, result.Identifier)
}

func TestExpandAbbreviations_LongestFirst(t *testing.T) {
	normalizer, err := NewMaterialNormalizer(writeAbbrevConfig(t))
	require.NoError(t, err)

	// SSMH must win over SS + MH
	assert.Equal(t, "sanitary sewer manhole 4", normalizer.ExpandAbbreviations("SSMH 4"))
}

func TestExpandAbbreviations_WordBoundary(t *testing.T) {
	normalizer, err := NewMaterialNormalizer(writeAbbrevConfig(t))
	require.NoError(t, err)

	// "mesh" contains "SS" and "MH" as substrings but neither on a word boundary
	assert.Equal(t, "wire mesh", normalizer.ExpandAbbreviations("wire mesh"))
}

func TestExpandAbbreviations_Alternates(t *testing.T) {
	normalizer, err := NewMaterialNormalizer(writeAbbrevConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "12\" ductile iron pipe water line", normalizer.ExpandAbbreviations("12\" DI water line"))
}

func TestExpandAbbreviations_CaseInsensitive(t *testing.T) {
	normalizer, err := NewMaterialNormalizer(writeAbbrevConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "reinforced concrete pipe culvert", normalizer.ExpandAbbreviations("rcp culvert"))
}

func TestNewMaterialNormalizer_MissingFile(t *testing.T) {
	_, err := NewMaterialNormalizer("does/not/exist.json")
	assert.Error(t, err)
}

func TestNormalizeIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple", input: "Reinforced Concrete Pipe", expected: "reinforced_concrete_pipe"},
		{name: "punctuation collapses", input: "18\" RCP - Class IV", expected: "18_rcp_class_iv"},
		{name: "leading trailing stripped", input: "  PVC  ", expected: "pvc"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeIdentifier(tt.input))
		})
	}
}
