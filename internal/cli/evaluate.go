package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mindcoach-service/internal/domain"
	"mindcoach-service/internal/scoring"
)

type evaluateOutput struct {
	domain.AssessmentEvaluation
	domain.StrengthsAndBlockers
	PerformanceLabel string `json:"performanceLabel"`
}

type categoryOutput struct {
	Score float64 `json:"score"`
	domain.StrengthsAndBlockers
}

// NewEvaluateCmd scores an answers file offline and prints the report as JSON.
func NewEvaluateCmd() *cobra.Command {
	var questionsPath, answersPath string
	var category bool

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score answers against a question file (YAML or JSON)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if category {
				return evaluateCategory(cmd.OutOrStdout(), questionsPath, answersPath)
			}
			return evaluateOptions(cmd.OutOrStdout(), questionsPath, answersPath)
		},
	}
	cmd.Flags().StringVar(&questionsPath, "questions", "", "question file")
	cmd.Flags().StringVar(&answersPath, "answers", "", "answers file")
	cmd.Flags().BoolVar(&category, "category", false, "use the category scheme (options ranked by index)")
	_ = cmd.MarkFlagRequired("questions")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

// evaluateOptions expects a list of questions and a questionId -> optionId map.
func evaluateOptions(w io.Writer, questionsPath, answersPath string) error {
	var questions []domain.Question
	if err := decodeFile(questionsPath, &questions); err != nil {
		return err
	}
	answers := domain.AnswerSelection{}
	if err := decodeFile(answersPath, &answers); err != nil {
		return err
	}

	domain.SortQuestions(questions)
	evaluation := scoring.Evaluate(questions, answers)
	return writeIndented(w, evaluateOutput{
		AssessmentEvaluation: evaluation,
		StrengthsAndBlockers: scoring.DeriveStrengthsAndBlockers(evaluation),
		PerformanceLabel:     scoring.PerformanceLabel(evaluation.Percent),
	})
}

// evaluateCategory expects category questions and a list of indexed answers.
func evaluateCategory(w io.Writer, questionsPath, answersPath string) error {
	var questions []scoring.CategoryQuestion
	if err := decodeFile(questionsPath, &questions); err != nil {
		return err
	}
	var answers []scoring.CategoryAnswer
	if err := decodeFile(answersPath, &answers); err != nil {
		return err
	}
	return writeIndented(w, categoryOutput{
		Score:                scoring.CategoryScore(questions, answers),
		StrengthsAndBlockers: scoring.CategoryAverageRanking(questions, answers),
	})
}

// decodeFile reads YAML, which also accepts JSON documents.
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
