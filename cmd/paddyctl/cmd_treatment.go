package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zatekoja/mypadicare/internal/bootstrap"
	"github.com/zatekoja/mypadicare/internal/domain/entities"
	"github.com/zatekoja/mypadicare/internal/presentation"
	apperrors "github.com/zatekoja/mypadicare/pkg/errors"
)

// treatmentCmd prints the treatment record for a disease
var treatmentCmd = &cobra.Command{
	Use:   "treatment <disease>",
	Short: "Show the treatment record for a disease",
	Long: `Show the treatment record for a disease identifier such as "blast".

The record is read from the dataset for --lang, falling back to the
English dataset when the language has no entry for the disease.`,
	Args: cobra.ExactArgs(1),
	RunE: runTreatment,
}

func runTreatment(cmd *cobra.Command, args []string) error {
	disease := args[0]
	return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
		record, ok := app.Resolver.Lookup(ctx, disease, entities.ParseLanguage(lang))
		if !ok {
			return apperrors.NewNotFoundError(fmt.Sprintf("Treatment not found for disease: %s", disease))
		}
		if jsonOut {
			return writeJSON(cmd.OutOrStdout(), record)
		}

		session := presentation.NewSession(lang)
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n", app.Renderer.Catalog().DiseaseName(session.Language, disease))
		return presentation.WriteTreatmentText(cmd.OutOrStdout(), app.Renderer.RenderTreatment(session, record))
	})
}
