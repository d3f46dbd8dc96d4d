package presentation

import (
	"fmt"
	"io"
	"strings"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
)

// WriteText prints a view as plain text for terminals.
func WriteText(w io.Writer, v ResultView) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s (%d%%) - %s\n", v.DiseaseName, v.Percent, v.SeverityLabel)
	if v.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", v.Description)
	}

	if len(v.Predictions) > 0 {
		b.WriteString("\n")
		for _, p := range v.Predictions {
			fmt.Fprintf(&b, "%d. %s %d%%\n", p.Rank, p.DisplayName, p.Percent)
		}
	}

	if v.Treatment != nil {
		writeTreatment(&b, v.Treatment)
	} else if v.NoTreatment != "" {
		fmt.Fprintf(&b, "\n%s\n", v.NoTreatment)
	}

	if v.Recommendation != nil && v.Recommendation.Text != "" {
		fmt.Fprintf(&b, "\n%s\n", v.Recommendation.Text)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteRecommendationText prints advisory text produced after the result
// was already written.
func WriteRecommendationText(w io.Writer, rec *entities.Recommendation) error {
	if rec == nil || rec.Text == "" {
		return nil
	}
	_, err := fmt.Fprintf(w, "\n%s\n", rec.Text)
	return err
}

// WriteTreatmentText prints a treatment view as plain text.
func WriteTreatmentText(w io.Writer, t *TreatmentView) error {
	var b strings.Builder
	if t != nil {
		writeTreatment(&b, t)
	}
	_, err := io.WriteString(w, strings.TrimPrefix(b.String(), "\n"))
	return err
}

func writeTreatment(b *strings.Builder, t *TreatmentView) {
	for _, s := range t.Sections {
		fmt.Fprintf(b, "\n%s\n", s.Heading)
		for _, item := range s.Items {
			fmt.Fprintf(b, "  - %s\n", item)
		}
	}
	if t.EstimatedCost != nil || t.ExpectedRecovery != nil {
		b.WriteString("\n")
	}
	for _, lv := range []*LabeledValue{t.EstimatedCost, t.ExpectedRecovery} {
		if lv != nil {
			fmt.Fprintf(b, "%s %s\n", lv.Label, lv.Value)
		}
	}
}
