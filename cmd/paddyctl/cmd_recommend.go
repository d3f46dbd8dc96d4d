package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zatekoja/mypadicare/internal/application/services"
	"github.com/zatekoja/mypadicare/internal/bootstrap"
	"github.com/zatekoja/mypadicare/internal/domain/entities"
	apperrors "github.com/zatekoja/mypadicare/pkg/errors"
)

var (
	recommendDisease    string
	recommendConfidence float64
)

// recommendCmd prints advisory text for a prediction
var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Print advisory text for a disease and confidence",
	Long: `Print short advisory text for a disease and classifier confidence.

Text comes from the generative service when GEMINI_API_KEY is set and from
built-in templates otherwise or when generation fails.`,
	Args: cobra.NoArgs,
	RunE: runRecommend,
}

func init() {
	recommendCmd.Flags().StringVar(&recommendDisease, "disease", "", "disease identifier, e.g. blast")
	recommendCmd.Flags().Float64Var(&recommendConfidence, "confidence", 0, "classifier confidence between 0 and 1")
	recommendCmd.MarkFlagRequired("disease")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	if recommendConfidence < 0 || recommendConfidence > 1 {
		return fmt.Errorf("confidence must be between 0 and 1")
	}
	if !entities.IsKnownDisease(recommendDisease) {
		return apperrors.NewValidationError(fmt.Sprintf("Unknown disease: %s", recommendDisease))
	}

	return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
		language := entities.ParseLanguage(lang)
		status := entities.HealthStatusFor(recommendDisease)

		var treatment *entities.TreatmentRecord
		if status == entities.HealthStatusDiseased {
			treatment, _ = app.Resolver.Resolve(ctx, recommendDisease, language)
		}

		rec := app.Recommendations.Recommend(ctx, services.RecommendationRequest{
			Disease:    recommendDisease,
			Severity:   entities.SeverityFor(status, recommendConfidence),
			Confidence: recommendConfidence,
			Treatment:  treatment,
			Language:   language,
		})
		if jsonOut {
			return writeJSON(cmd.OutOrStdout(), rec)
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), rec.Text)
		return err
	})
}
