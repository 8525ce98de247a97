package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"mindcoach-service/internal/app"
	"mindcoach-service/internal/domain"
	"mindcoach-service/internal/infra/memory"
)

type fixture struct {
	handler     http.Handler
	coachToken  string
	playerToken string
	player      domain.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	loader := memory.NewStaticQuestionLoader(sampleQuestions())
	assessments := app.NewAssessmentService(memory.NewQuestionRepository(loader, time.Minute), memory.NewEvaluationStore())
	assessments.SetQuestionWriter(loader)
	auth := app.NewAuthService(memory.NewUserStore(), "test-secret", time.Hour)
	auth.SetHashCost(bcrypt.MinCost)
	training := app.NewTrainingService(memory.NewCompletionStore())

	coach, err := auth.Register(ctx, domain.User{Email: "coach@club.test", Name: "Coach", Role: domain.RoleCoach}, "pw")
	if err != nil {
		t.Fatalf("register coach: %v", err)
	}
	player, err := auth.Register(ctx, domain.User{Email: "player@club.test", Name: "Ravi"}, "pw")
	if err != nil {
		t.Fatalf("register player: %v", err)
	}
	coachToken, _ := auth.IssueToken(coach)
	playerToken, _ := auth.IssueToken(player)

	return fixture{
		handler:     NewRouter(Services{Assessments: assessments, Auth: auth, Training: training}),
		coachToken:  coachToken,
		playerToken: playerToken,
		player:      player,
	}
}

func (f fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestLoginAndNav(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "player@club.test", "password": "pw"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var login app.LoginResult
	if err := json.Unmarshal(rec.Body.Bytes(), &login); err != nil || login.Token == "" {
		t.Fatalf("expected token, got %s", rec.Body.String())
	}

	rec = f.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "player@club.test", "password": "nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/v1/nav", login.Token, nil)
	var items []domain.NavItem
	_ = json.Unmarshal(rec.Body.Bytes(), &items)
	if rec.Code != http.StatusOK || len(items) != 4 {
		t.Fatalf("expected 4 player nav items, got %d: %s", rec.Code, rec.Body.String())
	}

	if rec := f.do(t, http.MethodGet, "/v1/nav", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestPlayersSeeScrubbedQuestions(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/questions", f.playerToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte(`"mark"`)) || bytes.Contains(rec.Body.Bytes(), []byte(`"logic"`)) {
		t.Fatalf("player view leaked marks: %s", rec.Body.String())
	}

	rec = f.do(t, http.MethodGet, "/v1/questions", f.coachToken, nil)
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"mark"`)) {
		t.Fatalf("coach view should include marks: %s", rec.Body.String())
	}
}

func TestSubmitAndReport(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/assessments", f.playerToken, map[string]any{
		"answers": map[string]string{"q1": "A", "q2": "B"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result app.SubmitResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Evaluation.Percent != 100 || result.RecordID == "" {
		t.Fatalf("unexpected result %+v", result)
	}

	rec = f.do(t, http.MethodGet, "/v1/players/"+f.player.ID+"/report", f.playerToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected own report, got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/v1/players/someone-else/report", f.playerToken, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign report, got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/v1/players/someone-else/report", f.coachToken, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for coach on unknown player, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodPut, "/v1/players/"+f.player.ID+"/notes", f.coachToken, map[string]string{"notes": "great tempo"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected notes saved, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = f.do(t, http.MethodGet, "/v1/dashboard", f.coachToken, nil)
	var overview app.TeamOverview
	_ = json.Unmarshal(rec.Body.Bytes(), &overview)
	if rec.Code != http.StatusOK || overview.Players != 1 || overview.AveragePercent != 100 {
		t.Fatalf("unexpected dashboard %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCoachOnlyRoutes(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/v1/dashboard", "/v1/players"} {
		if rec := f.do(t, http.MethodGet, path, f.playerToken, nil); rec.Code != http.StatusForbidden {
			t.Fatalf("%s: expected 403 for player, got %d", path, rec.Code)
		}
	}

	rec := f.do(t, http.MethodPost, "/v1/users", f.coachToken, map[string]string{
		"email": "new@club.test", "name": "Nia", "password": "pw",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("passwordHash")) {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}
	rec = f.do(t, http.MethodPost, "/v1/users", f.coachToken, map[string]string{
		"email": "new@club.test", "password": "pw",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/v1/questions", f.coachToken, map[string]any{
		"id": "q3", "question": "I enjoy the last over", "order": 3,
		"options": []map[string]any{{"id": "A", "text": "Yes", "mark": 2, "logic": "Clutch Mindset"}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for question, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = f.do(t, http.MethodPost, "/v1/questions", f.coachToken, map[string]any{"id": "q4"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid question, got %d", rec.Code)
	}
}

func TestCoachSubmitNeedsPlayer(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/assessments", f.coachToken, map[string]any{"answers": map[string]string{}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without playerId, got %d", rec.Code)
	}
	rec = f.do(t, http.MethodPost, "/v1/assessments", f.coachToken, map[string]any{
		"answers": map[string]string{"q1": "A"}, "playerId": f.player.ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected coach submission on behalf of player, got %d", rec.Code)
	}
	rec = f.do(t, http.MethodPost, "/v1/assessments", f.playerToken, map[string]any{
		"answers": map[string]string{"q1": "A"}, "playerId": "other",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for player submitting for another, got %d", rec.Code)
	}
}

func TestDailyPlan(t *testing.T) {
	f := newFixture(t)
	base := "/v1/players/" + f.player.ID + "/daily/2024-05-01"

	rec := f.do(t, http.MethodPut, base+"/items/breathing", f.playerToken, map[string]any{"completed": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var day domain.DailyCompletion
	_ = json.Unmarshal(rec.Body.Bytes(), &day)
	if len(day.Items) != 4 || !day.Items[2].Completed {
		t.Fatalf("expected breathing completed, got %+v", day.Items)
	}

	if rec := f.do(t, http.MethodPut, base+"/items/yoga", f.playerToken, map[string]any{"completed": true}); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown item, got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/v1/players/"+f.player.ID+"/daily/not-a-date", f.playerToken, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, base, f.coachToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("expected coach access, got %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/v1/players/other/daily/2024-05-01", f.playerToken, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for other player, got %d", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		domain.ErrInvalidDate:        http.StatusBadRequest,
		domain.ErrInvalidToken:       http.StatusUnauthorized,
		domain.ErrRecordOwnership:    http.StatusForbidden,
		domain.ErrEvaluationNotFound: http.StatusNotFound,
		domain.ErrUserExists:         http.StatusConflict,
		domain.ErrPersistence:        http.StatusServiceUnavailable,
	}
	for err, want := range cases {
		if got := statusFor(err); got != want {
			t.Fatalf("statusFor(%v): expected %d, got %d", err, want, got)
		}
	}
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:     "q1",
			Prompt: "I stay calm when chasing a big total",
			Order:  1,
			Options: []domain.Option{
				{ID: "A", Text: "Always", Mark: 2, Logic: "Composure"},
				{ID: "B", Text: "Never", Mark: -1, Logic: "Pressure Anxiety"},
			},
		},
		{
			ID:     "q2",
			Prompt: "I replay my dismissals for days",
			Order:  2,
			Options: []domain.Option{
				{ID: "A", Text: "Often", Mark: -2, Logic: "Rumination"},
				{ID: "B", Text: "Rarely", Mark: 1, Logic: "Resilience"},
			},
		},
	}
}
