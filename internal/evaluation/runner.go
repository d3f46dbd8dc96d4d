package evaluation

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zatekoja/mypadicare/internal/application/services"
	"github.com/zatekoja/mypadicare/internal/domain/providers"
	"github.com/zatekoja/mypadicare/internal/infrastructure/observability"
)

// Runner classifies a labelled image set and scores the rankings.
type Runner struct {
	classifier  providers.Classifier
	k           int
	concurrency int
}

// NewRunner creates a runner scoring the top k predictions with at most
// concurrency classifications in flight.
func NewRunner(classifier providers.Classifier, k, concurrency int) *Runner {
	if k <= 0 {
		k = 3
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Runner{classifier: classifier, k: k, concurrency: concurrency}
}

// Run classifies every image. Per-image failures are counted, not
// returned; the error is non-nil only when ctx ends first.
func (r *Runner) Run(ctx context.Context, images []LabeledImage) (*EvalSummary, error) {
	results := make([]EvalResult, len(images))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.concurrency)
	for i, img := range images {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			results[i] = r.evaluate(egCtx, img)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return r.summarize(results), nil
}

func (r *Runner) evaluate(ctx context.Context, img LabeledImage) EvalResult {
	res := EvalResult{ImageID: img.ID, Label: img.Label}

	start := time.Now()
	output, err := r.classifier.Classify(ctx, img.Path)
	res.Latency = time.Since(start)
	if err == nil {
		err = services.ValidateOutput(output)
	}
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("image", img.ID).Msg("evaluation image failed")
		res.Error = err.Error()
		return res
	}

	res.Predicted = output.TopPrediction
	res.Confidence = output.Confidence
	res.Ranked = make([]string, len(output.Predictions))
	for i, p := range output.Predictions {
		res.Ranked[i] = p.Disease
	}
	res.ReciprocalRank = ReciprocalRank(img.Label, res.Ranked, r.k)
	res.Top1 = HitAtK(img.Label, res.Ranked, 1)
	res.TopK = res.ReciprocalRank > 0
	return res
}

func (r *Runner) summarize(results []EvalResult) *EvalSummary {
	s := &EvalSummary{
		Backend:     r.classifier.Name(),
		K:           r.k,
		TotalImages: len(results),
		ByLabel:     make(map[string]*LabelSummary),
		Results:     results,
	}

	var latency time.Duration
	for _, res := range results {
		latency += res.Latency
		ls, ok := s.ByLabel[res.Label]
		if !ok {
			ls = &LabelSummary{}
			s.ByLabel[res.Label] = ls
		}
		ls.Count++

		if res.Error != "" {
			s.Failed++
			continue
		}
		s.Evaluated++
		s.Top1Accuracy += boolScore(res.Top1)
		s.TopKAccuracy += boolScore(res.TopK)
		s.MRR += res.ReciprocalRank

		ls.Top1Accuracy += boolScore(res.Top1)
		ls.TopKAccuracy += boolScore(res.TopK)
		ls.MRR += res.ReciprocalRank
	}

	// failed images count as misses
	if s.TotalImages > 0 {
		n := float64(s.TotalImages)
		s.Top1Accuracy /= n
		s.TopKAccuracy /= n
		s.MRR /= n
		s.AvgLatency = latency / time.Duration(s.TotalImages)
	}
	for _, ls := range s.ByLabel {
		n := float64(ls.Count)
		ls.Top1Accuracy /= n
		ls.TopKAccuracy /= n
		ls.MRR /= n
	}
	return s
}

func boolScore(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
