package interviews

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"interview-backend/internal/shared/telemetry"
	"interview-backend/internal/timing"
)

const (
	writeWait = 10 * time.Second
	// maxClientMessage bounds a single draft update.
	maxClientMessage = 64 << 10
)

const (
	msgDraft          = "draft"
	msgRecordingStart = "recording_start"
)

// clientMessage is what the browser sends over the countdown socket.
type clientMessage struct {
	Type   string `json:"type"`
	QIndex int    `json:"qIndex"`
	Text   string `json:"text"`
}

// wsCapture owns the socket for the lifetime of one countdown.
type wsCapture struct {
	conn *websocket.Conn
	once sync.Once
}

func (w *wsCapture) Close() error {
	var err error
	w.once.Do(func() {
		deadline := time.Now().Add(writeWait)
		_ = w.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "countdown finished"), deadline)
		err = w.conn.Close()
	})
	return err
}

func (h *Handler) upgrader() websocket.Upgrader {
	allowed := make(map[string]struct{}, len(h.Origins))
	for _, o := range h.Origins {
		allowed[o] = struct{}{}
	}
	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowed) == 0 {
				return true
			}
			if _, ok := allowed[origin]; ok {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		},
	}
}

func (h *Handler) countdown(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.Sessions.Snapshot(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	up := h.upgrader()
	conn, err := up.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		telemetry.Warn("countdown.upgrade.failed", map[string]any{"candidate_id": id, "error": err})
		return
	}
	conn.SetReadLimit(maxClientMessage)

	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer cancel()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		defer cancel()
		for {
			var msg clientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			h.handleClientMessage(ctx, id, msg)
		}
	}()

	cd := h.Sessions.Countdown(id, &wsCapture{conn: conn})
	err = cd.Run(ctx, func(t timing.Tick) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(t)
	})
	if err != nil {
		telemetry.Warn("countdown.stopped", map[string]any{"candidate_id": id, "error": err})
	}
	<-readerDone
}

func (h *Handler) handleClientMessage(ctx context.Context, id string, msg clientMessage) {
	var err error
	switch msg.Type {
	case msgDraft:
		_, err = h.Sessions.UpdateDraft(ctx, id, msg.QIndex, msg.Text)
	case msgRecordingStart:
		_, err = h.Sessions.BeginAnswering(ctx, id, msg.QIndex)
	default:
		return
	}
	if err != nil {
		telemetry.Warn("countdown.message.failed", map[string]any{
			"candidate_id":   id,
			"question_index": msg.QIndex,
			"type":           msg.Type,
			"error":          err,
		})
	}
}
