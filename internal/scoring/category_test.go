package scoring

import (
	"math"
	"reflect"
	"testing"
)

func TestCategoryPoints(t *testing.T) {
	cases := []struct {
		marks, index int
		want         float64
	}{
		{2, 0, 2},
		{2, 1, 1.34},
		{2, 3, 0},
		{2, 4, 0},
		{2, -1, 0},
		{-3, 0, 0},
		{-3, 2, -2.01},
		{-3, 3, -3},
		{0, 3, 0},
	}
	for _, tc := range cases {
		got := CategoryPoints(tc.marks, tc.index)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("CategoryPoints(%d, %d): expected %v, got %v", tc.marks, tc.index, tc.want, got)
		}
	}
}

func TestCategoryScoreSkipsUnknownQuestions(t *testing.T) {
	questions := []CategoryQuestion{
		{ID: "q1", Marks: 2, Category: "Focus"},
		{ID: "q2", Marks: -1, Category: "Anxiety"},
	}
	answers := []CategoryAnswer{
		{QuestionID: "q1", SelectedOption: 0},
		{QuestionID: "q2", SelectedOption: 3},
		{QuestionID: "missing", SelectedOption: 0},
	}

	got := CategoryScore(questions, answers)
	if math.Abs(got-1) > 1e-9 {
		t.Fatalf("expected score 1, got %v", got)
	}
}

func TestCategoryAverageRanking(t *testing.T) {
	questions := []CategoryQuestion{
		{ID: "q1", Marks: 2, Category: "Self-Awareness"},
		{ID: "q2", Marks: -1, Category: "Anxiety"},
		{ID: "q3", Marks: 2, Category: "Visualization"},
		{ID: "q4", Marks: -2, Category: "Resilience"},
		{ID: "q5", Marks: 2, Category: "Focus"},
		{ID: "q6", Marks: -3, Category: "Confidence"},
		{ID: "q7", Marks: 2, Category: "Resilience"},
	}
	answers := []CategoryAnswer{
		{QuestionID: "q1", SelectedOption: 0}, // 2
		{QuestionID: "q2", SelectedOption: 1}, // -0.33
		{QuestionID: "q3", SelectedOption: 1}, // 1.34
		{QuestionID: "q4", SelectedOption: 0}, // 0
		{QuestionID: "q5", SelectedOption: 2}, // 0.66
		{QuestionID: "q6", SelectedOption: 3}, // -3
		{QuestionID: "q7", SelectedOption: 0}, // 2 -> Resilience avg 1
	}

	got := CategoryAverageRanking(questions, answers)

	wantStrengths := []string{"Self-Awareness", "Visualization", "Resilience"}
	if !reflect.DeepEqual(got.Strengths, wantStrengths) {
		t.Fatalf("expected strengths %v, got %v", wantStrengths, got.Strengths)
	}
	wantBlockers := []string{"Confidence", "Anxiety", "Focus", "Resilience", "Visualization"}
	if !reflect.DeepEqual(got.Blockers, wantBlockers) {
		t.Fatalf("expected blockers %v, got %v", wantBlockers, got.Blockers)
	}
}

func TestCategoryAverageRankingTiesKeepFirstSeenOrder(t *testing.T) {
	questions := []CategoryQuestion{
		{ID: "q1", Marks: 2, Category: "Focus"},
		{ID: "q2", Marks: 2, Category: "Composure"},
	}
	answers := []CategoryAnswer{
		{QuestionID: "q2", SelectedOption: 0},
		{QuestionID: "q1", SelectedOption: 0},
	}

	got := CategoryAverageRanking(questions, answers)

	if !reflect.DeepEqual(got.Strengths, []string{"Composure", "Focus"}) {
		t.Fatalf("expected first-seen order on ties, got %v", got.Strengths)
	}
	if !reflect.DeepEqual(got.Blockers, []string{"Focus", "Composure"}) {
		t.Fatalf("expected reversed blockers, got %v", got.Blockers)
	}
}

func TestCategoryAverageRankingNoAnswers(t *testing.T) {
	got := CategoryAverageRanking([]CategoryQuestion{{ID: "q1", Marks: 2, Category: "Focus"}}, nil)
	if len(got.Strengths) != 0 || len(got.Blockers) != 0 {
		t.Fatalf("expected empty summary, got %+v", got)
	}
}
