package aggregate

import (
	"sort"
	"time"

	"MediaScope/internal/domain"
)

// Aggregate reduces raw findings into one immutable AnalysisResult and
// stamps provenance. Re-running over the same findings yields an identical
// result; video merging is independent of frame order.
func Aggregate(requestID string, findings *domain.Findings, opts domain.Options, elapsed time.Duration) *domain.AnalysisResult {
	opts = opts.Normalize()

	result := &domain.AnalysisResult{
		RequestID:      requestID,
		Family:         findings.Family,
		UnitsProcessed: findings.UnitsProcessed,
		UnitsTotal:     findings.UnitsTotal,
		UnitsSkipped:   findings.Skipped,
		Elapsed:        elapsed,
		CompletedAt:    time.Now().UTC(),
	}

	switch {
	case findings.Family == domain.FamilyImage:
		result.Labels = truncateLabels(imageLabels(findings.Image), opts)
		result.Insight = imageInsight(result.Labels)
	case findings.Family.ClassifierBacked():
		result.Labels = truncateLabels(mergeFrames(findings.Frames), opts)
		result.Insight = videoInsight(result.Labels, len(findings.Frames))
	default:
		// top_k and confidence_floor do not apply to text families.
		if doc := findings.Document; doc != nil {
			result.Title = doc.Title
			result.Summary = doc.Summary
			result.Keywords = doc.Keywords
			result.TextPreview = doc.TextPreview
			result.CharCount = doc.CharCount
		}
		result.Insight = documentInsight(findings.Family, result.Summary)
	}

	return result
}

func imageLabels(predictions []domain.Prediction) []domain.ScoredLabel {
	labels := make([]domain.ScoredLabel, 0, len(predictions))
	for _, p := range predictions {
		labels = append(labels, domain.ScoredLabel{Label: p.Label, Score: p.Confidence, Frames: 1})
	}
	return labels
}

// mergeFrames sums confidence per label across frames. Labels seen in more
// frames outrank equally-scored labels seen in fewer; remaining ties fall
// back to the earliest (frame index, in-frame rank) appearance, which makes
// the ordering deterministic and independent of frame arrival order.
func mergeFrames(frames []domain.FrameFindings) []domain.ScoredLabel {
	type entry struct {
		sum     float64
		frames  int
		ordinal [2]int
	}

	merged := make(map[string]*entry)
	for _, frame := range frames {
		for rank, p := range frame.Predictions {
			e, ok := merged[p.Label]
			if !ok {
				e = &entry{ordinal: [2]int{frame.Index, rank}}
				merged[p.Label] = e
			}
			e.sum += p.Confidence
			e.frames++
			if frame.Index < e.ordinal[0] || (frame.Index == e.ordinal[0] && rank < e.ordinal[1]) {
				e.ordinal = [2]int{frame.Index, rank}
			}
		}
	}

	labels := make([]domain.ScoredLabel, 0, len(merged))
	for label, e := range merged {
		labels = append(labels, domain.ScoredLabel{Label: label, Score: e.sum, Frames: e.frames})
	}

	sort.Slice(labels, func(i, j int) bool {
		a, b := labels[i], labels[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Frames != b.Frames {
			return a.Frames > b.Frames
		}
		oa, ob := merged[a.Label].ordinal, merged[b.Label].ordinal
		if oa[0] != ob[0] {
			return oa[0] < ob[0]
		}
		if oa[1] != ob[1] {
			return oa[1] < ob[1]
		}
		return a.Label < b.Label
	})

	return labels
}

// truncateLabels applies the confidence floor and top-k cap. For merged
// video labels the floor is compared against the per-frame mean so that
// summed scores above 1 are still filterable.
func truncateLabels(labels []domain.ScoredLabel, opts domain.Options) []domain.ScoredLabel {
	kept := make([]domain.ScoredLabel, 0, len(labels))
	for _, l := range labels {
		mean := l.Score
		if l.Frames > 1 {
			mean = l.Score / float64(l.Frames)
		}
		if mean < opts.MinConfidence {
			continue
		}
		kept = append(kept, l)
		if len(kept) == opts.TopK {
			break
		}
	}
	return kept
}
