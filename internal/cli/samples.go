package cli

import (
	"fmt"

	"mindcoach-service/internal/domain"
)

// sampleStatement is a self-report statement rated on a frequency scale.
// Positive marks reward agreeing with it, negative marks penalise it.
type sampleStatement struct {
	prompt   string
	category string
	marks    int
}

var sampleStatements = []sampleStatement{
	{"I focus on my strengths during practice", "Self-Awareness", 2},
	{"I get nervous before important matches", "Anxiety", -1},
	{"I can visualize my success clearly", "Visualization", 2},
	{"Criticism affects my performance negatively", "Resilience", -2},
	{"I maintain focus during long practice sessions", "Focus", 2},
	{"I doubt my abilities under pressure", "Confidence", -3},
	{"I recover quickly from mistakes", "Resilience", 2},
	{"I compare myself negatively to others", "Self-Esteem", -2},
	{"I have a pre-game mental routine", "Preparation", 2},
	{"Past failures distract me during games", "Focus", -3},
	{"I stay calm when things go wrong", "Composure", 2},
	{"I fear making mistakes", "Fear", -2},
	{"I trust my training during competition", "Confidence", 2},
	{"I feel overwhelmed by expectations", "Pressure", -3},
	{"I celebrate small victories", "Positivity", 2},
	{"I struggle with self-motivation", "Motivation", -2},
	{"I adapt quickly to changing game situations", "Adaptability", 2},
	{"I avoid difficult practice drills", "Growth Mindset", -2},
	{"I communicate effectively with teammates", "Communication", 2},
	{"I dwell on negative thoughts", "Mindset", -3},
}

// sampleQuestions is the starter questionnaire used when no database is configured.
func sampleQuestions() []domain.Question {
	questions := make([]domain.Question, 0, len(sampleStatements))
	for i, s := range sampleStatements {
		questions = append(questions, domain.Question{
			ID:      fmt.Sprintf("q%d", i+1),
			Prompt:  s.prompt,
			Order:   i + 1,
			Options: frequencyOptions(s),
		})
	}
	return questions
}

func frequencyOptions(s sampleStatement) []domain.Option {
	marks := []int{s.marks, 1, 0, -1}
	if s.marks < 0 {
		marks = []int{s.marks, -1, 0, 1}
	}
	labels := []string{"Always", "Often", "Sometimes", "Rarely"}

	options := make([]domain.Option, 0, len(labels))
	for i, label := range labels {
		opt := domain.Option{ID: string(rune('A' + i)), Text: label, Mark: marks[i]}
		if opt.Mark != 0 {
			opt.Logic = s.category
		}
		options = append(options, opt)
	}
	return options
}
