package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zatekoja/mypadicare/internal/application/services"
	"github.com/zatekoja/mypadicare/internal/bootstrap"
	"github.com/zatekoja/mypadicare/internal/domain/entities"
	"github.com/zatekoja/mypadicare/internal/presentation"
)

// classifyCmd classifies one local image
var classifyCmd = &cobra.Command{
	Use:   "classify <image>",
	Short: "Classify a leaf image and print the result",
	Long: `Classify a paddy leaf image with the configured backend.

The file is first checked against the client upload rules (JPG, PNG or
WEBP up to 10MB), then passed through the same intake, classification and
treatment lookup as the API. The result is printed as soon as it is
assembled; advisory text follows once it has been generated.`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	mimeType, err := sniffContentType(f)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	upload := services.Upload{
		Filename:    filepath.Base(path),
		Size:        info.Size(),
		ContentType: mimeType,
		Body:        f,
	}
	if err := services.ClientUploadPolicy().Validate(upload.Filename, upload.Size, upload.ContentType); err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
		language := entities.ParseLanguage(lang)

		result, err := app.Predictions.Predict(ctx, upload, language)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		view := app.Renderer.Render(presentation.NewSession(lang), result, nil)
		if jsonOut {
			err = writeJSON(out, view)
		} else {
			err = presentation.WriteText(out, view)
		}
		if err != nil {
			return err
		}

		// The result is already on screen; generation may take a while.
		rec := app.Recommendations.Recommend(ctx, services.RecommendationRequest{
			Disease:    result.TopPrediction,
			Severity:   result.Severity(),
			Confidence: result.Confidence,
			Treatment:  result.Treatments,
			Language:   language,
		})
		if jsonOut {
			return writeJSON(out, recommendationOutput{Recommendation: rec})
		}
		return presentation.WriteRecommendationText(out, &rec)
	})
}

// recommendationOutput is the second JSON document printed by classify.
type recommendationOutput struct {
	Recommendation entities.Recommendation `json:"recommendation"`
}

// sniffContentType detects the media type from the first bytes of f and
// rewinds it.
func sniffContentType(f *os.File) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}
