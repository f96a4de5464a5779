package aggregate

import (
	"fmt"

	"MediaScope/internal/domain"
)

// Confidence wording thresholds for the top label.
const (
	highConfidence     = 0.8
	moderateConfidence = 0.6
	clearLeadGap       = 0.2
)

func imageInsight(labels []domain.ScoredLabel) string {
	if len(labels) == 0 {
		return "The model produced no predictions above the configured floor."
	}

	top := labels[0]
	level := "is uncertain"
	switch {
	case top.Score >= highConfidence:
		level = "is highly confident"
	case top.Score >= moderateConfidence:
		level = "is fairly confident"
	}

	insight := fmt.Sprintf("The model %s the main subject is %q (confidence %.2f).", level, top.Label, top.Score)

	if len(labels) > 1 {
		gap := top.Score - labels[1].Score
		if gap >= clearLeadGap {
			insight += fmt.Sprintf(" The top prediction leads the runner-up by a clear margin (%.2f).", gap)
		} else {
			insight += " The margin over the runner-up is narrow, so the subject may be ambiguous."
		}
	}

	return insight
}

func videoInsight(labels []domain.ScoredLabel, sampledFrames int) string {
	if len(labels) == 0 {
		return fmt.Sprintf("Video analysis over %d sampled frames produced no predictions above the configured floor.", sampledFrames)
	}

	top := labels[0]
	return fmt.Sprintf("Video analysis over %d sampled frames. %q dominates with an accumulated score of %.2f across %d frames.",
		sampledFrames, top.Label, top.Score, top.Frames)
}

func documentInsight(family domain.ContentFamily, summary string) string {
	var kind string
	switch family {
	case domain.FamilyPDF:
		kind = "PDF document"
	case domain.FamilyWebPage:
		kind = "Web page"
	default:
		kind = "Text document"
	}
	return fmt.Sprintf("%s detected. %s", kind, summary)
}
