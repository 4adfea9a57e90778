package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// AbbreviationEntry represents a construction drawing abbreviation
type AbbreviationEntry struct {
	Expanded   string   `json:"expanded"`
	Alternates []string `json:"alternates"`
	Discipline string   `json:"discipline"`
}

// NormalizationConfig holds the abbreviation table loaded from JSON
type NormalizationConfig struct {
	Abbreviations map[string]AbbreviationEntry `json:"abbreviations"`
}

// NormalizedMaterial contains all normalized output for a material label
type NormalizedMaterial struct {
	OriginalLabel string
	DisplayName   string
	Identifier    string
}

// MaterialNormalizer expands construction abbreviations found on drawings
// (RCP, DIP, SSMH, ...) into full terms for retrieval queries.
type MaterialNormalizer struct {
	config *NormalizationConfig
}

// NewMaterialNormalizer creates a normalizer from a JSON config file
func NewMaterialNormalizer(configPath string) (*MaterialNormalizer, error) {
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config NormalizationConfig
	if err := json.Unmarshal(configFile, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &MaterialNormalizer{config: &config}, nil
}

// Normalize expands abbreviations in a material label and derives a stable
// identifier for dedup keys
func (mn *MaterialNormalizer) Normalize(originalLabel string) *NormalizedMaterial {
	if originalLabel == "" {
		return &NormalizedMaterial{
			OriginalLabel: originalLabel,
			DisplayName:   "",
			Identifier:    "",
		}
	}

	displayName := strings.TrimSpace(mn.ExpandAbbreviations(originalLabel))

	return &NormalizedMaterial{
		OriginalLabel: originalLabel,
		DisplayName:   displayName,
		Identifier:    NormalizeIdentifier(displayName),
	}
}

// ExpandAbbreviations expands known abbreviations in text, longest first so
// compound labels like SSMH win over SS
func (mn *MaterialNormalizer) ExpandAbbreviations(text string) string {
	result := text

	var abbrevs []string
	for abbr := range mn.config.Abbreviations {
		abbrevs = append(abbrevs, abbr)
	}
	sort.Slice(abbrevs, func(i, j int) bool {
		return len(abbrevs[i]) > len(abbrevs[j])
	})

	for _, abbr := range abbrevs {
		entry := mn.config.Abbreviations[abbr]

		pattern := fmt.Sprintf(`\b%s\b`, regexp.QuoteMeta(abbr))
		re := regexp.MustCompile("(?i)" + pattern)

		if re.MatchString(result) {
			result = re.ReplaceAllString(result, entry.Expanded)
		}

		for _, alt := range entry.Alternates {
			altPattern := fmt.Sprintf(`\b%s\b`, regexp.QuoteMeta(alt))
			altRe := regexp.MustCompile("(?i)" + altPattern)
			if altRe.MatchString(result) {
				result = altRe.ReplaceAllString(result, entry.Expanded)
			}
		}
	}

	return result
}

// NormalizeIdentifier converts a string to a normalized identifier
func NormalizeIdentifier(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return ""
	}

	var out string
	lastUnderscore := false

	for _, ch := range trimmed {
		isAlphaNum := (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9')
		if isAlphaNum {
			out += string(ch)
			lastUnderscore = false
		} else if !lastUnderscore {
			out += "_"
			lastUnderscore = true
		}
	}

	out = strings.Trim(out, "_")
	return out
}
