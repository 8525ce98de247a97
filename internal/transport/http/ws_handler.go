package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"mindcoach-service/internal/app"
	"mindcoach-service/internal/domain"
)

const wsPingInterval = 30 * time.Second

// WSHandler runs an assessment over a websocket: the server sends the
// questions, the client streams answers and finally submits.
type WSHandler struct {
	assessments *app.AssessmentService
	auth        *app.AuthService
	upgrader    websocket.Upgrader
}

func NewWSHandler(assessments *app.AssessmentService, auth *app.AuthService) *WSHandler {
	return &WSHandler{
		assessments: assessments,
		auth:        auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

type submitPayload struct {
	RecordID string `json:"recordId,omitempty"`
}

type progressPayload struct {
	Answered int `json:"answered"`
	Total    int `json:"total"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string            `json:"message"`
	Result  *app.SubmitResult `json:"result,omitempty"`
}

// ServeWS authenticates the player, upgrades the connection and drives one assessment.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = extractBearerToken(r)
	}
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	claims, err := h.auth.ValidateToken(token)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if claims.Role != domain.RolePlayer {
		http.Error(w, "only players take assessments", http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	questions, err := h.assessments.ListQuestions(r.Context())
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	known := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}
	}

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	// single writer: gorilla connections allow one concurrent writer
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case msg, ok := <-send:
				if !ok {
					return
				}
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("ws write error: %v", err)
					conn.Close()
					return
				}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	// push gives up once the writer has stopped
	push := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}

	push(outboundMessage[any]{Type: "questions", Payload: questionsView(claims.Role, questions)})

	answers := domain.AnswerSelection{}
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuestionID == "" {
				push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
				continue
			}
			if _, ok := known[payload.QuestionID]; !ok {
				push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unknown question " + payload.QuestionID}})
				continue
			}
			answers[payload.QuestionID] = payload.OptionID
			push(outboundMessage[any]{Type: "progress", Payload: progressPayload{Answered: len(answers), Total: len(questions)}})
		case "submit":
			var payload submitPayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid submit payload"}})
					continue
				}
			}
			result, err := h.assessments.Submit(r.Context(), claims.UserID, answers, payload.RecordID)
			if errors.Is(err, domain.ErrPersistence) {
				push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error(), Result: &result}})
				continue
			}
			if err != nil {
				push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			push(outboundMessage[any]{Type: "evaluation", Payload: result})
		default:
			push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	close(send)
	<-writerDone
}
