package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWebSocketAssessmentFlow(t *testing.T) {
	f := newFixture(t)
	server := httptest.NewServer(f.handler)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws/assessment?token=" + f.playerToken
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect questions first.
	var questions struct {
		Type    string           `json:"type"`
		Payload []map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&questions); err != nil {
		t.Fatalf("read questions: %v", err)
	}
	if questions.Type != "questions" || len(questions.Payload) != 2 {
		t.Fatalf("expected 2 questions, got %s with %d", questions.Type, len(questions.Payload))
	}

	for i, answer := range []map[string]string{
		{"questionId": "q1", "optionId": "A"},
		{"questionId": "q2", "optionId": "A"},
	} {
		if err := conn.WriteJSON(map[string]any{"type": "answer", "payload": answer}); err != nil {
			t.Fatalf("write answer: %v", err)
		}
		_, payload := readNext(conn, t, "progress")
		if int(payload["answered"].(float64)) != i+1 || int(payload["total"].(float64)) != 2 {
			t.Fatalf("unexpected progress %+v", payload)
		}
	}

	if err := conn.WriteJSON(map[string]any{"type": "answer", "payload": map[string]string{"questionId": "nope", "optionId": "A"}}); err != nil {
		t.Fatalf("write answer: %v", err)
	}
	readNext(conn, t, "error")

	if err := conn.WriteJSON(map[string]any{"type": "submit"}); err != nil {
		t.Fatalf("write submit: %v", err)
	}
	_, payload := readNext(conn, t, "evaluation")
	if payload["recordId"] == "" {
		t.Fatalf("expected record id, got %+v", payload)
	}
	evaluation := payload["evaluation"].(map[string]any)
	if int(evaluation["rawScore"].(float64)) != 0 || int(evaluation["maxScore"].(float64)) != 3 {
		t.Fatalf("unexpected evaluation %+v", evaluation)
	}
	blockers := payload["blockers"].([]any)
	if len(blockers) != 1 || blockers[0] != "Rumination" {
		t.Fatalf("expected Rumination blocker, got %v", blockers)
	}
}

func TestWebSocketRejectsCoachesAndBadTokens(t *testing.T) {
	f := newFixture(t)
	server := httptest.NewServer(f.handler)
	defer server.Close()

	base := "ws" + server.URL[len("http"):] + "/ws/assessment?token="
	_, resp, err := websocket.DefaultDialer.Dial(base+f.coachToken, nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for coach, got err=%v resp=%v", err, resp)
	}
	_, resp, err = websocket.DefaultDialer.Dial(base+"garbage", nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got err=%v resp=%v", err, resp)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}
