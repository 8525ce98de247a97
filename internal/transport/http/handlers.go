package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"mindcoach-service/internal/app"
	"mindcoach-service/internal/domain"
)

type apiHandler struct {
	assessments *app.AssessmentService
	auth        *app.AuthService
	training    *app.TrainingService
}

func newAPIHandler(s Services) *apiHandler {
	return &apiHandler{
		assessments: s.Assessments,
		auth:        s.Auth,
		training:    s.Training,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type submitRequest struct {
	Answers  domain.AnswerSelection `json:"answers"`
	RecordID string                 `json:"recordId,omitempty"`
	PlayerID string                 `json:"playerId,omitempty"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

type markItemRequest struct {
	Completed bool   `json:"completed"`
	Data      string `json:"data,omitempty"`
}

type registerRequest struct {
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	Phone    string      `json:"phone,omitempty"`
	Role     domain.Role `json:"role"`
	TeamID   string      `json:"teamId,omitempty"`
	Password string      `json:"password"`
}

// publicOption hides marks and trait labels from players.
type publicOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type publicQuestion struct {
	ID      string         `json:"id"`
	Prompt  string         `json:"question"`
	Order   int            `json:"order"`
	Options []publicOption `json:"options"`
}

func (h *apiHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *apiHandler) nav(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	writeJSON(w, http.StatusOK, app.ComputeNavItems(claims.Role))
}

func (h *apiHandler) listQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.assessments.ListQuestions(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questionsView(claimsFrom(r.Context()).Role, questions))
}

func (h *apiHandler) createQuestion(w http.ResponseWriter, r *http.Request) {
	var q domain.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := h.assessments.CreateQuestion(r.Context(), q)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *apiHandler) submitAssessment(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Answers == nil {
		req.Answers = domain.AnswerSelection{}
	}

	claims := claimsFrom(r.Context())
	playerID := claims.UserID
	if claims.Role == domain.RoleCoach {
		if req.PlayerID == "" {
			writeError(w, http.StatusBadRequest, "playerId is required")
			return
		}
		playerID = req.PlayerID
	} else if req.PlayerID != "" && req.PlayerID != claims.UserID {
		writeError(w, http.StatusForbidden, domain.ErrForbidden.Error())
		return
	}

	result, err := h.assessments.Submit(r.Context(), playerID, req.Answers, req.RecordID)
	if errors.Is(err, domain.ErrPersistence) {
		// the evaluation is still returned so the client can resubmit
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":  err.Error(),
			"result": result,
		})
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *apiHandler) report(w http.ResponseWriter, r *http.Request) {
	playerID := mux.Vars(r)["id"]
	if !canAccessPlayer(claimsFrom(r.Context()), playerID) {
		writeError(w, http.StatusForbidden, domain.ErrForbidden.Error())
		return
	}
	report, err := h.assessments.Report(r.Context(), playerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *apiHandler) setNotes(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := h.assessments.SetCoachNotes(r.Context(), mux.Vars(r)["id"], req.Notes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *apiHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	overview, err := h.assessments.Overview(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (h *apiHandler) listPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.auth.ListPlayers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

func (h *apiHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.auth.Register(r.Context(), domain.User{
		Email:  req.Email,
		Name:   req.Name,
		Phone:  req.Phone,
		Role:   req.Role,
		TeamID: req.TeamID,
	}, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *apiHandler) actionPlan(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.training.ActionPlan())
}

func (h *apiHandler) day(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if !canAccessPlayer(claimsFrom(r.Context()), vars["id"]) {
		writeError(w, http.StatusForbidden, domain.ErrForbidden.Error())
		return
	}
	day, err := h.training.Day(r.Context(), vars["id"], vars["date"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (h *apiHandler) markItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if !canAccessPlayer(claimsFrom(r.Context()), vars["id"]) {
		writeError(w, http.StatusForbidden, domain.ErrForbidden.Error())
		return
	}
	var req markItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	day, err := h.training.MarkItem(r.Context(), vars["id"], vars["date"], vars["itemId"], req.Completed, req.Data)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

// questionsView returns full questions to coaches and scrubbed ones to players.
func questionsView(role domain.Role, questions []domain.Question) any {
	if role == domain.RoleCoach {
		return questions
	}
	out := make([]publicQuestion, 0, len(questions))
	for _, q := range questions {
		pq := publicQuestion{ID: q.ID, Prompt: q.Prompt, Order: q.Order, Options: make([]publicOption, 0, len(q.Options))}
		for _, opt := range q.Options {
			pq.Options = append(pq.Options, publicOption{ID: opt.ID, Text: opt.Text})
		}
		out = append(out, pq)
	}
	return out
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidQuestion),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidUser):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrRecordOwnership):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrEvaluationNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrUnknownActivity):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrQuestionStoreReadOnly):
		return http.StatusNotImplemented
	default:
		// store and fetch failures
		return http.StatusServiceUnavailable
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusServiceUnavailable {
		log.Printf("request failed: %v", err)
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
