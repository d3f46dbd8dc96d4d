package entities

import (
	"slices"
	"strings"
)

// DefaultTreatmentKey is the reserved dataset entry used when a disease has
// no record of its own.
const DefaultTreatmentKey = "default"

// TreatmentRecord is static guidance for one disease in one language.
// Missing fields decode as empty and render as nothing.
type TreatmentRecord struct {
	ImmediateActions    []string `json:"immediate_actions,omitempty"`
	WarningSigns        []string `json:"warning_signs,omitempty"`
	ShortTermManagement []string `json:"short_term_management,omitempty"`
	OrganicOptions      []string `json:"organic_options,omitempty"`
	ChemicalOptions     []string `json:"chemical_options,omitempty"`
	LongTermPrevention  []string `json:"long_term_prevention,omitempty"`
	CulturalPractices   []string `json:"cultural_practices,omitempty"`
	MaterialsNeeded     []string `json:"materials_needed,omitempty"`
	EstimatedCost       string   `json:"estimated_cost,omitempty"`
	ExpectedRecovery    string   `json:"expected_recovery,omitempty"`
}

// Clone returns a deep copy so cached datasets are never mutated by callers.
func (t *TreatmentRecord) Clone() *TreatmentRecord {
	if t == nil {
		return nil
	}
	return &TreatmentRecord{
		ImmediateActions:    slices.Clone(t.ImmediateActions),
		WarningSigns:        slices.Clone(t.WarningSigns),
		ShortTermManagement: slices.Clone(t.ShortTermManagement),
		OrganicOptions:      slices.Clone(t.OrganicOptions),
		ChemicalOptions:     slices.Clone(t.ChemicalOptions),
		LongTermPrevention:  slices.Clone(t.LongTermPrevention),
		CulturalPractices:   slices.Clone(t.CulturalPractices),
		MaterialsNeeded:     slices.Clone(t.MaterialsNeeded),
		EstimatedCost:       t.EstimatedCost,
		ExpectedRecovery:    t.ExpectedRecovery,
	}
}

// TreatmentDataset maps disease identifiers (plus DefaultTreatmentKey) to
// records for a single language.
type TreatmentDataset map[string]TreatmentRecord

// Language is a supported output/treatment language code.
type Language string

const (
	LanguageEnglish  Language = "en"
	LanguageMalay    Language = "ms"
	LanguageJapanese Language = "ja"

	DefaultLanguage = LanguageEnglish
)

// SupportedLanguages lists every language with UI labels and prompt
// directives.
var SupportedLanguages = []Language{LanguageEnglish, LanguageMalay, LanguageJapanese}

// ParseLanguage normalizes a user-supplied code ("ms-MY", "JA", "my") to a
// supported language; anything else becomes DefaultLanguage.
func ParseLanguage(code string) Language {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i >= 0 {
		code = code[:i]
	}
	switch code {
	case "ms", "my":
		return LanguageMalay
	case "ja":
		return LanguageJapanese
	default:
		return DefaultLanguage
	}
}

// IsDefault reports whether l is the canonical dataset language.
func (l Language) IsDefault() bool {
	return l == DefaultLanguage
}
