package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuardrails_ShouldProcess(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{MinConfidence: 0.4})

	assert.True(t, g.ShouldProcess(0.4))
	assert.True(t, g.ShouldProcess(0.9))
	assert.False(t, g.ShouldProcess(0.39))
}

func TestGuardrails_LimitVariants(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{MaxQueryVariants: 2})

	assert.Len(t, g.LimitVariants([]string{"a", "b", "c"}), 2)
	assert.Len(t, g.LimitVariants([]string{"a"}), 1)
}

func TestGuardrails_Defaults(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{})

	variants := make([]string, 12)
	assert.Len(t, g.LimitVariants(variants), 8)

	contexts := make([]string, 15)
	assert.Len(t, g.LimitContexts(contexts), 10)
}
