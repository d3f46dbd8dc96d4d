package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zatekoja/mypadicare/internal/bootstrap"
	"github.com/zatekoja/mypadicare/internal/evaluation"
)

var (
	evalTopK        int
	evalConcurrency int
	evalThresholds  evaluation.Thresholds
)

// evaluateCmd scores the classifier against a labelled image set
var evaluateCmd = &cobra.Command{
	Use:   "evaluate <manifest.json>",
	Short: "Measure classifier accuracy on a labelled image set",
	Long: `Classify every image in a manifest and report top-1 accuracy, top-k
accuracy and mean reciprocal rank, overall and per label.

The manifest is a JSON array of {"id", "path", "label", "difficulty"}
objects; relative paths are resolved against the manifest's directory.
The command fails when a --min-* or --max-* threshold is not met.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().IntVar(&evalTopK, "top-k", 3, "ranks counted for top-k accuracy")
	evaluateCmd.Flags().IntVar(&evalConcurrency, "concurrency", 1, "images classified in parallel")
	evaluateCmd.Flags().Float64Var(&evalThresholds.MinTop1Accuracy, "min-top1", 0, "fail below this top-1 accuracy")
	evaluateCmd.Flags().Float64Var(&evalThresholds.MinTopKAccuracy, "min-topk", 0, "fail below this top-k accuracy")
	evaluateCmd.Flags().Float64Var(&evalThresholds.MaxFailureRate, "max-failures", 0, "fail above this share of unclassifiable images")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	images, err := evaluation.LoadManifest(args[0])
	if err != nil {
		return err
	}
	if err := evaluation.ValidateManifest(images); err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
		summary, err := evaluation.NewRunner(app.Classifier, evalTopK, evalConcurrency).Run(ctx, images)
		if err != nil {
			return err
		}

		if jsonOut {
			if err := writeJSON(cmd.OutOrStdout(), summary); err != nil {
				return err
			}
		} else {
			writeSummary(cmd, summary)
		}

		if violations := evalThresholds.Check(summary); len(violations) > 0 {
			return fmt.Errorf("evaluation below thresholds: %s", strings.Join(violations, "; "))
		}
		return nil
	})
}

func writeSummary(cmd *cobra.Command, s *evaluation.EvalSummary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "backend:        %s\n", s.Backend)
	fmt.Fprintf(out, "images:         %d (%d failed)\n", s.TotalImages, s.Failed)
	fmt.Fprintf(out, "top-1 accuracy: %.3f\n", s.Top1Accuracy)
	fmt.Fprintf(out, "top-%d accuracy: %.3f\n", s.K, s.TopKAccuracy)
	fmt.Fprintf(out, "MRR@%d:          %.3f\n", s.K, s.MRR)
	fmt.Fprintf(out, "avg latency:    %s\n", s.AvgLatency)

	labels := make([]string, 0, len(s.ByLabel))
	for label := range s.ByLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	fmt.Fprintln(out)
	for _, label := range labels {
		ls := s.ByLabel[label]
		fmt.Fprintf(out, "%-26s n=%-4d top1=%.3f top%d=%.3f mrr=%.3f\n",
			label, ls.Count, ls.Top1Accuracy, s.K, ls.TopKAccuracy, ls.MRR)
	}
}
