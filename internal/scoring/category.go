package scoring

import (
	"sort"

	"mindcoach-service/internal/domain"
)

// CategoryQuestion is a question of the fixed-table scheme: options are ranked
// by index and the whole question carries a single signed mark.
type CategoryQuestion struct {
	ID       string   `json:"id" yaml:"id"`
	Text     string   `json:"text" yaml:"text"`
	Options  []string `json:"options" yaml:"options"`
	Marks    int      `json:"marks" yaml:"marks"`
	Category string   `json:"category" yaml:"category"`
}

// CategoryAnswer selects an option by index.
type CategoryAnswer struct {
	QuestionID     string `json:"questionId" yaml:"questionId"`
	SelectedOption int    `json:"selectedOption" yaml:"selectedOption"`
}

var (
	positiveFractions = [...]float64{1, 0.67, 0.33, 0}
	negativeFractions = [...]float64{0, 0.33, 0.67, 1}
)

const (
	categoryStrengths = 3
	categoryBlockers  = 5
)

// CategoryPoints is the weighted mark a single answer earns.
func CategoryPoints(marks, selectedOption int) float64 {
	table := negativeFractions
	if marks > 0 {
		table = positiveFractions
	}
	if selectedOption < 0 || selectedOption >= len(table) {
		return 0
	}
	return float64(marks) * table[selectedOption]
}

// CategoryScore sums the points of every answer whose question is known.
func CategoryScore(questions []CategoryQuestion, answers []CategoryAnswer) float64 {
	index := indexCategoryQuestions(questions)
	total := 0.0
	for _, a := range answers {
		q, ok := index[a.QuestionID]
		if !ok {
			continue
		}
		total += CategoryPoints(q.Marks, a.SelectedOption)
	}
	return total
}

// CategoryAverageRanking ranks categories by average points per answered question.
// The top three become strengths; the bottom five, lowest first, become blockers.
// The two lists may overlap when there are few categories.
func CategoryAverageRanking(questions []CategoryQuestion, answers []CategoryAnswer) domain.StrengthsAndBlockers {
	index := indexCategoryQuestions(questions)

	type categoryTotal struct {
		name  string
		score float64
		count int
	}
	var totals []*categoryTotal
	byName := make(map[string]*categoryTotal)

	for _, a := range answers {
		q, ok := index[a.QuestionID]
		if !ok {
			continue
		}
		ct, ok := byName[q.Category]
		if !ok {
			ct = &categoryTotal{name: q.Category}
			byName[q.Category] = ct
			totals = append(totals, ct)
		}
		ct.score += CategoryPoints(q.Marks, a.SelectedOption)
		ct.count++
	}

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].score/float64(totals[i].count) > totals[j].score/float64(totals[j].count)
	})

	summary := domain.StrengthsAndBlockers{
		Strengths: []string{},
		Blockers:  []string{},
	}
	for i := 0; i < len(totals) && i < categoryStrengths; i++ {
		summary.Strengths = append(summary.Strengths, totals[i].name)
	}
	for i := len(totals) - 1; i >= 0 && i >= len(totals)-categoryBlockers; i-- {
		summary.Blockers = append(summary.Blockers, totals[i].name)
	}
	return summary
}

func indexCategoryQuestions(questions []CategoryQuestion) map[string]CategoryQuestion {
	index := make(map[string]CategoryQuestion, len(questions))
	for _, q := range questions {
		if _, dup := index[q.ID]; !dup {
			index[q.ID] = q
		}
	}
	return index
}
