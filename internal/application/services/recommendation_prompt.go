package services

import (
	"fmt"
	"strings"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
)

var languageDirectives = map[entities.Language]string{
	entities.LanguageEnglish:  "ANSWER IN ENGLISH.",
	entities.LanguageMalay:    "ANSWER IN MALAY LANGUAGE (Bahasa Malaysia).",
	entities.LanguageJapanese: "ANSWER IN JAPANESE (日本語).",
}

// LanguageDirective returns the output-language instruction for lang,
// defaulting to English.
func LanguageDirective(lang entities.Language) string {
	if directive, ok := languageDirectives[lang]; ok {
		return directive
	}
	return languageDirectives[entities.DefaultLanguage]
}

const promptTemplate = `You are an expert agricultural advisor. Give a brief, practical recommendation for a farmer.

DETECTED: %s (%.1f%% confidence, %s severity)

KEY TREATMENTS AVAILABLE:
- Immediate: %s
- Recovery time: %s
- Cost: %s

INSTRUCTIONS:
- Write 80-120 words maximum
- Use simple, clear language
- Focus on the most important 2-3 actions
- Be encouraging but practical
- Do NOT use asterisks, bold formatting, or special characters
- Write in plain text only
- Use a personal, friendly and empathetic tone, as a fellow agricultural advisor would

%s
Provide your recommendation:`

const notAvailable = "not available"

// BuildRecommendationPrompt renders the advisory prompt. Only the first two
// immediate actions are included.
func BuildRecommendationPrompt(req RecommendationRequest) string {
	immediate, recovery, cost := notAvailable, notAvailable, notAvailable
	if t := req.Treatment; t != nil {
		if actions := t.ImmediateActions[:min(2, len(t.ImmediateActions))]; len(actions) > 0 {
			immediate = strings.Join(actions, ", ")
		}
		if t.ExpectedRecovery != "" {
			recovery = t.ExpectedRecovery
		}
		if t.EstimatedCost != "" {
			cost = t.EstimatedCost
		}
	}

	return fmt.Sprintf(promptTemplate,
		strings.ToUpper(strings.ReplaceAll(req.Disease, "_", " ")),
		req.Confidence*100,
		req.Severity.Label(),
		immediate,
		recovery,
		cost,
		LanguageDirective(req.Language),
	)
}
