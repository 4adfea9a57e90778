package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVariantArray(t *testing.T) {
	variants, err := parseVariantArray(`["manhole cover depth", "sanitary sewer manhole cover"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"manhole cover depth", "sanitary sewer manhole cover"}, variants)
}

func TestParseVariantArray_StripsMarkdownFences(t *testing.T) {
	variants, err := parseVariantArray("```json\n[\"storm drain cover\"]\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"storm drain cover"}, variants)

	variants, err = parseVariantArray("```\n[\"a\"]\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, variants)
}

func TestParseVariantArray_RejectsProse(t *testing.T) {
	_, err := parseVariantArray("Here are some variants: manhole cover")
	assert.Error(t, err)

	_, err = parseVariantArray(`{"variants": ["a"]}`)
	assert.Error(t, err)
}
