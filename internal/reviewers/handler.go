// Package reviewers serves the read-only interviewer view of candidate sessions.
package reviewers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"time"

	"github.com/gin-gonic/gin"

	"interview-backend/internal/candidates"
	"interview-backend/internal/session"
	"interview-backend/internal/shared/server/respond"
	"interview-backend/internal/shared/storage/object"
)

// Handler exposes reviewer routes.
type Handler struct {
	Sessions *session.Controller
	Objects  object.ObjectStore
}

// NewHandler constructs a Handler.
func NewHandler(sessions *session.Controller, objects object.ObjectStore) *Handler {
	return &Handler{Sessions: sessions, Objects: objects}
}

// RegisterRoutes attaches reviewer routes. Callers guard rg with reviewer auth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/candidates", h.list)
	rg.GET("/candidates/:id", h.detail)
	rg.GET("/candidates/:id/resume", h.resume)
}

type summary struct {
	ID           string            `json:"id"`
	Name         *string           `json:"name"`
	Email        *string           `json:"email"`
	Phone        *string           `json:"phone"`
	Status       candidates.Status `json:"status"`
	Answered     int               `json:"answered"`
	Total        int               `json:"total"`
	FinalScore   *float64          `json:"finalScore"`
	FinalSummary *string           `json:"finalSummary"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

func toSummary(c candidates.Candidate) summary {
	answered := 0
	for _, q := range c.Questions {
		if q.Answered() {
			answered++
		}
	}
	return summary{
		ID:           c.ID,
		Name:         c.Name,
		Email:        c.Email,
		Phone:        c.Phone,
		Status:       c.Status,
		Answered:     answered,
		Total:        len(c.Questions),
		FinalScore:   c.FinalScore,
		FinalSummary: c.FinalSummary,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func (h *Handler) list(c *gin.Context) {
	list, err := h.Sessions.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list candidates", nil)
		return
	}
	resp := make([]summary, 0, len(list))
	for _, cand := range list {
		resp = append(resp, toSummary(cand))
	}
	respond.OK(c, gin.H{"candidates": resp})
}

func (h *Handler) detail(c *gin.Context) {
	view, err := h.Sessions.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, candidates.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "candidate not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load candidate", nil)
		return
	}
	respond.OK(c, gin.H{
		"candidate":  view.Candidate,
		"state":      view.State,
		"transcript": session.Transcript(view.Candidate),
	})
}

func (h *Handler) resume(c *gin.Context) {
	ctx := c.Request.Context()
	view, err := h.Sessions.Snapshot(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, candidates.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "candidate not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load candidate", nil)
		return
	}
	key := view.Candidate.ResumeFileKey
	if key == "" || h.Objects == nil {
		respond.Error(c, http.StatusNotFound, "not_found", "resume file not stored", nil)
		return
	}

	rc, err := h.Objects.Open(ctx, key)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "resume file not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to open resume", nil)
		return
	}
	defer rc.Close()

	name := path.Base(key)
	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}
