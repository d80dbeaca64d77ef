package handler

import (
	"github.com/SeptianSamdany/interview-prep-ai/pkg/model"
	"github.com/SeptianSamdany/interview-prep-ai/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AddQuestions appends client-supplied pairs to a session.
func (h *Handler) AddQuestions(c *gin.Context) {
	var req model.AddQuestionsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid input data")
		return
	}

	n, err := h.Sessions.AppendQuestions(c.Request.Context(), h.UserID(c), req.SessionID, req.Questions)
	if err != nil {
		h.fail(c, "add_questions", err, zap.String("session_id", req.SessionID))
		return
	}

	response.Created(c, model.AppendRes{Appended: n})
}

// TogglePin flips the pinned flag of a question
func (h *Handler) TogglePin(c *gin.Context) {
	id := c.Param("id")

	q, err := h.Sessions.TogglePin(c.Request.Context(), h.UserID(c), id)
	if err != nil {
		h.fail(c, "toggle_pin", err, zap.String("question_id", id))
		return
	}

	response.OK(c, gin.H{"question": q})
}

// UpdateNote replaces the note on a question
func (h *Handler) UpdateNote(c *gin.Context) {
	id := c.Param("id")

	var req model.UpdateNoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	q, err := h.Sessions.UpdateNote(c.Request.Context(), h.UserID(c), id, req.Note)
	if err != nil {
		h.fail(c, "update_note", err, zap.String("question_id", id))
		return
	}

	response.OK(c, gin.H{"question": q})
}
