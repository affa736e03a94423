package interviews

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"interview-backend/internal/timing"
)

func TestCountdownStreamsTicksAndAutoSubmitsDraft(t *testing.T) {
	h := newHarness(t)
	id := h.createCandidate(t, fullResume...).Candidate.ID
	base := "/api/v1/candidates/" + id
	if resp := h.do(t, http.MethodPost, base+"/questions", nil); resp.Code != http.StatusOK {
		t.Fatalf("generate: %d", resp.Code)
	}

	srv := httptest.NewServer(h.router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + base + "/countdown"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	var tick timing.Tick
	if err := conn.ReadJSON(&tick); err != nil {
		t.Fatalf("read first tick: %v", err)
	}
	if tick.Index != 0 || !tick.Waiting || tick.Remaining != 20 {
		t.Fatalf("unexpected first tick %+v", tick)
	}

	if err := conn.WriteJSON(clientMessage{Type: msgDraft, QIndex: 0, Text: "typed so far"}); err != nil {
		t.Fatalf("send draft: %v", err)
	}
	waitFor(t, func() bool { return h.ctrl.Drafts().Get(id, 0) == "typed so far" })

	h.clock.Advance(21 * time.Second)
	for {
		if err := conn.ReadJSON(&tick); err != nil {
			t.Fatalf("read tick: %v", err)
		}
		if tick.Index == 1 {
			break
		}
	}
	if tick.Remaining != 20 || !tick.Waiting {
		t.Fatalf("expected fresh second question, got %+v", tick)
	}

	c, err := h.store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	q := c.Questions[0]
	if q.AnswerText == nil || *q.AnswerText != "typed so far" || q.AutoSubmitted == nil || !*q.AutoSubmitted {
		t.Fatalf("expected auto-submitted draft, got %+v", q)
	}
}

func TestCountdownUnknownCandidate(t *testing.T) {
	h := newHarness(t)
	resp := h.do(t, http.MethodGet, "/api/v1/candidates/nope/countdown", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}
