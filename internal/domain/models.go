package domain

import (
	"fmt"
	"sort"
	"time"
)

// Role distinguishes coaches from players.
type Role string

const (
	RoleCoach  Role = "coach"
	RolePlayer Role = "player"
)

// Option represents one selectable answer for a question.
type Option struct {
	ID    string `json:"id" bson:"id" yaml:"id"`
	Text  string `json:"text" bson:"text" yaml:"text"`
	Mark  int    `json:"mark" bson:"mark" yaml:"mark"`
	Logic string `json:"logic,omitempty" bson:"logic,omitempty" yaml:"logic,omitempty"` // trait label, e.g. "Resilience"
}

// Question models an assessment question with signed marks per option.
type Question struct {
	ID        string    `json:"id" bson:"_id" yaml:"id"`
	Prompt    string    `json:"question" bson:"question" yaml:"question"`
	Order     int       `json:"order" bson:"order" yaml:"order"`
	Options   []Option  `json:"options" bson:"options" yaml:"options"`
	CreatedAt time.Time `json:"createdAt,omitempty" bson:"createdAt,omitempty" yaml:"createdAt,omitempty"`
}

// MaxMark is the best achievable mark for the question, floored at zero.
func (q Question) MaxMark() int {
	best := 0
	for _, opt := range q.Options {
		if opt.Mark > best {
			best = opt.Mark
		}
	}
	return best
}

// FindOption returns the option with the given ID.
func (q Question) FindOption(optionID string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return opt, true
		}
	}
	return Option{}, false
}

// Validate checks the invariants a stored question must hold.
func (q Question) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidQuestion)
	}
	if len(q.Options) == 0 {
		return fmt.Errorf("%w: question %s has no options", ErrInvalidQuestion, q.ID)
	}
	seen := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		if opt.ID == "" {
			return fmt.Errorf("%w: question %s has an option without id", ErrInvalidQuestion, q.ID)
		}
		if _, ok := seen[opt.ID]; ok {
			return fmt.Errorf("%w: question %s repeats option %s", ErrInvalidQuestion, q.ID, opt.ID)
		}
		seen[opt.ID] = struct{}{}
	}
	return nil
}

// SortQuestions orders questions by rank; equal ranks keep their input order.
func SortQuestions(questions []Question) {
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].Order < questions[j].Order
	})
}

// AnswerSelection maps question IDs to the chosen option ID. It may be partial.
type AnswerSelection map[string]string

// PerQuestionEvaluation records how a single question was answered and scored.
// Nil pointers mean "no selection".
type PerQuestionEvaluation struct {
	QuestionID   string  `json:"questionId" bson:"questionId"`
	OptionID     *string `json:"optionId" bson:"optionId"`
	Mark         int     `json:"mark" bson:"mark"`
	Logic        *string `json:"logic" bson:"logic"`
	OptionText   *string `json:"optionText" bson:"optionText"`
	QuestionText string  `json:"questionText" bson:"questionText"`
}

// AssessmentEvaluation is the score report for one set of answers.
type AssessmentEvaluation struct {
	RawScore    int                     `json:"rawScore" bson:"rawScore"`
	MaxScore    int                     `json:"maxScore" bson:"maxScore"`
	Percent     int                     `json:"percent" bson:"percent"`
	PerQuestion []PerQuestionEvaluation `json:"perQuestion" bson:"perQuestion"`
	CoachNotes  string                  `json:"coachNotes,omitempty" bson:"coachNotes,omitempty"`
}

// EvaluationRecord is the persisted form of an evaluation, one per player.
type EvaluationRecord struct {
	ID                   string `json:"id" bson:"_id"`
	PlayerID             string `json:"playerId" bson:"playerId"`
	AssessmentEvaluation `bson:",inline"`
	CreatedAt            time.Time `json:"createdAt" bson:"createdAt"`
}

// StrengthsAndBlockers summarizes trait labels from an evaluation.
type StrengthsAndBlockers struct {
	Strengths []string `json:"strengths"`
	Blockers  []string `json:"blockers"`
}

// User is a coach or player account.
type User struct {
	ID           string `json:"id" bson:"_id"`
	Email        string `json:"email" bson:"email"`
	Name         string `json:"name" bson:"name"`
	Phone        string `json:"phone,omitempty" bson:"phone,omitempty"`
	Role         Role   `json:"role" bson:"role"`
	TeamID       string `json:"teamId,omitempty" bson:"teamId,omitempty"`
	PasswordHash string `json:"-" bson:"passwordHash"`
}

// NavItem is a navigation entry shown to a signed-in user.
type NavItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ActivityType enumerates the daily mental-training activities.
type ActivityType string

const (
	ActivityAffirmation   ActivityType = "affirmation"
	ActivityCamera        ActivityType = "camera"
	ActivityBreathing     ActivityType = "breathing"
	ActivityVisualization ActivityType = "visualization"
)

// ActionPlanItem is one activity of the daily plan.
type ActionPlanItem struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Type            ActivityType `json:"type"`
	DurationSeconds int          `json:"duration,omitempty"`
}

// CompletionItem tracks one plan item for a day.
type CompletionItem struct {
	ItemID      string     `json:"itemId"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Data        string     `json:"data,omitempty"` // e.g. affirmation strokes as JSON
}

// DailyCompletion is a player's progress through the plan on one date.
type DailyCompletion struct {
	PlayerID string           `json:"playerId"`
	Date     string           `json:"date"` // YYYY-MM-DD
	Items    []CompletionItem `json:"items"`
}
