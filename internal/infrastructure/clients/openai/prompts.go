package openai

import "fmt"

const variantSystemPrompt = `You rewrite construction takeoff retrieval queries. ` +
	`Given a query about civil utility standards, produce alternative phrasings that ` +
	`expand drawing abbreviations, add the utility discipline when implied, and rephrase ` +
	`with domain vocabulary. Respond with a JSON array of strings only, no prose, no markdown.`

func buildVariantUserPrompt(query string, numVariants int) string {
	return fmt.Sprintf("Produce %d alternative phrasings of this query: %q", numVariants, query)
}
