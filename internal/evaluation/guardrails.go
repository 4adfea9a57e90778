package evaluation

// GuardrailConfig bounds query expansion during evaluation runs
type GuardrailConfig struct {
	MinConfidence      float64
	MaxQueryVariants   int
	MaxContextsPerItem int
}

type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	if config.MaxQueryVariants <= 0 {
		config.MaxQueryVariants = 8
	}
	if config.MaxContextsPerItem <= 0 {
		config.MaxContextsPerItem = 10
	}
	return &Guardrails{config: config}
}

// ShouldProcess gates low-confidence resolutions out of aggregate metrics
func (g *Guardrails) ShouldProcess(confidence float64) bool {
	return confidence >= g.config.MinConfidence
}

// LimitVariants caps the variant list length
func (g *Guardrails) LimitVariants(variants []string) []string {
	if len(variants) > g.config.MaxQueryVariants {
		return variants[:g.config.MaxQueryVariants]
	}
	return variants
}

// LimitContexts caps the contexts retained per resolved item
func (g *Guardrails) LimitContexts(contexts []string) []string {
	if len(contexts) > g.config.MaxContextsPerItem {
		return contexts[:g.config.MaxContextsPerItem]
	}
	return contexts
}
