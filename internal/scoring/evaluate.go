// Package scoring turns assessment answers into score reports.
//
// All functions are total: missing or malformed answers degrade to zero-mark
// entries instead of failing.
package scoring

import (
	"math"

	"mindcoach-service/internal/domain"
)

// MaxSummaryLabels caps the strengths and blockers lists.
const MaxSummaryLabels = 5

// Evaluate scores answers against questions, one entry per question in input order.
func Evaluate(questions []domain.Question, answers domain.AnswerSelection) domain.AssessmentEvaluation {
	raw, maxScore := 0, 0
	perQuestion := make([]domain.PerQuestionEvaluation, 0, len(questions))

	for _, q := range questions {
		maxScore += q.MaxMark()

		entry := domain.PerQuestionEvaluation{
			QuestionID:   q.ID,
			QuestionText: q.Prompt,
		}
		if selected, ok := answers[q.ID]; ok {
			entry.OptionID = strPtr(selected)
			if opt, found := q.FindOption(selected); found {
				entry.Mark = opt.Mark
				entry.OptionText = strPtr(opt.Text)
				if opt.Logic != "" {
					entry.Logic = strPtr(opt.Logic)
				}
			}
		}
		raw += entry.Mark
		perQuestion = append(perQuestion, entry)
	}

	return domain.AssessmentEvaluation{
		RawScore:    raw,
		MaxScore:    maxScore,
		Percent:     Percent(raw, maxScore),
		PerQuestion: perQuestion,
	}
}

// Percent returns raw as a rounded, unclamped percentage of maxScore, or 0 when
// maxScore is 0. Halves round towards positive infinity.
func Percent(raw, maxScore int) int {
	if maxScore == 0 {
		return 0
	}
	return int(math.Floor(float64(raw)/float64(maxScore)*100 + 0.5))
}

// DeriveStrengthsAndBlockers collects logic labels of positive (strengths) and
// negative (blockers) marks in question order. Zero marks count as neither and
// empty labels are skipped.
func DeriveStrengthsAndBlockers(evaluation domain.AssessmentEvaluation) domain.StrengthsAndBlockers {
	summary := domain.StrengthsAndBlockers{
		Strengths: []string{},
		Blockers:  []string{},
	}
	for _, pq := range evaluation.PerQuestion {
		if pq.Logic == nil || *pq.Logic == "" {
			continue
		}
		switch {
		case pq.Mark > 0 && len(summary.Strengths) < MaxSummaryLabels:
			summary.Strengths = append(summary.Strengths, *pq.Logic)
		case pq.Mark < 0 && len(summary.Blockers) < MaxSummaryLabels:
			summary.Blockers = append(summary.Blockers, *pq.Logic)
		}
	}
	return summary
}

// PerformanceLabel buckets a percentage for reports.
func PerformanceLabel(percent int) string {
	switch {
	case percent >= 80:
		return "Excellent"
	case percent >= 60:
		return "Good"
	case percent >= 40:
		return "Average"
	default:
		return "Needs Improvement"
	}
}

func strPtr(s string) *string {
	return &s
}
