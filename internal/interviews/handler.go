package interviews

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"interview-backend/internal/candidates"
	"interview-backend/internal/contact"
	"interview-backend/internal/extract"
	"interview-backend/internal/oracle"
	"interview-backend/internal/session"
	"interview-backend/internal/shared/server/respond"
	"interview-backend/internal/shared/storage/object"
	"interview-backend/internal/shared/telemetry"
)

const maxUploadSize = 10 << 20 // 10MB

// ResumeNamespace is the object store prefix for uploaded resumes.
const ResumeNamespace = "resumes"

// Handler wires candidate-facing HTTP routes to the session controller.
type Handler struct {
	Sessions *session.Controller
	Objects  object.ObjectStore
	// Origins limits websocket upgrades; empty allows any origin.
	Origins []string
}

// NewHandler constructs a Handler.
func NewHandler(sessions *session.Controller, objects object.ObjectStore, origins []string) *Handler {
	return &Handler{Sessions: sessions, Objects: objects, Origins: origins}
}

// RegisterRoutes attaches interview routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/candidates", h.upload)
	rg.GET("/candidates/:id", h.get)
	rg.PATCH("/candidates/:id/contact", h.updateContact)
	rg.POST("/candidates/:id/questions", h.generate)
	rg.POST("/candidates/:id/questions/:index/start", h.start)
	rg.PUT("/candidates/:id/questions/:index/draft", h.draft)
	rg.POST("/candidates/:id/questions/:index/answer", h.answer)
	rg.POST("/candidates/:id/finalize", h.finalize)
	rg.GET("/candidates/:id/countdown", h.countdown)
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	ctx := c.Request.Context()
	text, err := extract.Resume(ctx, data, fileHeader.Header.Get("Content-Type"), fileHeader.Filename)
	if err != nil {
		switch {
		case errors.Is(err, extract.ErrUnsupportedType):
			respond.Error(c, http.StatusBadRequest, "unsupported_document", "Only PDF and DOCX resumes are supported", nil)
		case errors.Is(err, extract.ErrNotAResume):
			respond.Error(c, http.StatusBadRequest, "not_a_resume", "The document does not look like a resume", nil)
		default:
			respond.Error(c, http.StatusBadRequest, "extraction_failed", "Could not read text from the document", nil)
		}
		return
	}

	var fileKey string
	if h.Objects != nil {
		fileKey, _, _, err = h.Objects.Save(ctx, ResumeNamespace, fileHeader.Filename, bytes.NewReader(data))
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store resume", nil)
			return
		}
	}

	created, err := h.Sessions.CreateCandidate(ctx, contact.Extract(text), text, fileKey)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create candidate", nil)
		return
	}
	respond.Created(c, created)
}

func (h *Handler) get(c *gin.Context) {
	view, err := h.Sessions.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, view)
}

type contactRequest struct {
	Name  string `json:"name" binding:"omitempty,max=200"`
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone" binding:"omitempty,max=40"`
}

func (h *Handler) updateContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid contact details", nil)
		return
	}
	cand, err := h.Sessions.UpdateContact(c.Request.Context(), c.Param("id"),
		strings.TrimSpace(req.Name), strings.TrimSpace(req.Email), strings.TrimSpace(req.Phone))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{
		"candidate":    cand,
		"needsContact": !cand.ContactComplete(),
		"missing":      cand.MissingContactFields(),
	})
}

func (h *Handler) generate(c *gin.Context) {
	questions, err := h.Sessions.GenerateQuestions(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"questions": questions})
}

func (h *Handler) start(c *gin.Context) {
	idx, ok := questionIndex(c)
	if !ok {
		return
	}
	cand, err := h.Sessions.BeginAnswering(c.Request.Context(), c.Param("id"), idx)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"candidate": cand})
}

type draftRequest struct {
	Text string `json:"text"`
}

func (h *Handler) draft(c *gin.Context) {
	idx, ok := questionIndex(c)
	if !ok {
		return
	}
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if _, err := h.Sessions.UpdateDraft(c.Request.Context(), c.Param("id"), idx, req.Text); err != nil {
		writeError(c, err)
		return
	}
	respond.NoContent(c)
}

type answerRequest struct {
	AnswerText string `json:"answerText"`
	Auto       bool   `json:"auto"`
}

func (h *Handler) answer(c *gin.Context) {
	idx, ok := questionIndex(c)
	if !ok {
		return
	}
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	id := c.Param("id")
	ctx := c.Request.Context()
	var (
		res session.SubmitResult
		err error
	)
	if req.Auto {
		res, err = h.Sessions.AutoSubmit(ctx, id, idx)
	} else {
		res, err = h.Sessions.SubmitAnswer(ctx, id, idx, req.AnswerText, false)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	body := gin.H{
		"candidate": res.Candidate,
		"applied":   res.Applied,
		"finalized": res.Finalized,
	}
	if res.FinalizeErr != nil {
		telemetry.Warn("finalize.deferred", map[string]any{"candidate_id": id, "error": res.FinalizeErr})
		body["summaryPending"] = true
	}
	respond.OK(c, body)
}

func (h *Handler) finalize(c *gin.Context) {
	cand, err := h.Sessions.Finalize(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"candidate": cand})
}

func questionIndex(c *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil || idx < 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "question index must be a non-negative integer", nil)
		return 0, false
	}
	return idx, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, candidates.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "candidate not found", nil)
	case errors.Is(err, session.ErrQuestionNotFound):
		respond.Error(c, http.StatusNotFound, "question_not_found", "question not found", nil)
	case errors.Is(err, session.ErrContactIncomplete):
		respond.Error(c, http.StatusConflict, "contact_incomplete", "name, email and phone are required before starting", nil)
	case errors.Is(err, session.ErrNotReady):
		respond.Error(c, http.StatusConflict, "not_ready", "all questions must be answered first", nil)
	case errors.Is(err, oracle.ErrOracle):
		respond.Error(c, http.StatusBadGateway, "oracle_unavailable", "question service unavailable, try again", gin.H{
			"questions": []candidates.Question{},
			"reason":    oracle.CodeOf(err),
		})
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "unexpected error", nil)
	}
}
