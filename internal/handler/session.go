package handler

import (
	"github.com/SeptianSamdany/interview-prep-ai/pkg/model"
	"github.com/SeptianSamdany/interview-prep-ai/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CreateSession creates a session from supplied or generated questions
func (h *Handler) CreateSession(c *gin.Context) {
	var req model.CreateSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Missing required fields: role, experience, topics_to_focus")
		return
	}

	sess, err := h.Sessions.CreateSession(c.Request.Context(), h.UserID(c), req)
	if err != nil {
		h.fail(c, "create_session", err)
		return
	}

	response.Created(c, gin.H{"session": sess})
}

// MySessions lists the caller's sessions, newest first
func (h *Handler) MySessions(c *gin.Context) {
	res, err := h.Sessions.ListSessions(c.Request.Context(), h.UserID(c))
	if err != nil {
		h.fail(c, "my_sessions", err)
		return
	}

	response.OK(c, res)
}

// GetSession returns one session with its questions
func (h *Handler) GetSession(c *gin.Context) {
	id := c.Param("id")

	sess, err := h.Sessions.GetSession(c.Request.Context(), id, h.UserID(c))
	if err != nil {
		h.fail(c, "get_session", err, zap.String("session_id", id))
		return
	}

	response.OK(c, gin.H{"session": sess})
}

// DeleteSession removes a session and all of its questions
func (h *Handler) DeleteSession(c *gin.Context) {
	id := c.Param("id")

	res, err := h.Sessions.DeleteSession(c.Request.Context(), id, h.UserID(c))
	if err != nil {
		h.fail(c, "delete_session", err, zap.String("session_id", id))
		return
	}

	response.OK(c, res)
}

// LoadMore generates and appends questions from the session's own context.
func (h *Handler) LoadMore(c *gin.Context) {
	id := c.Param("id")

	var req model.LoadMoreReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "number_of_questions must be a positive integer")
		return
	}

	n, err := h.Sessions.LoadMoreQuestions(c.Request.Context(), h.UserID(c), id, req.NumberOfQuestions)
	if err != nil {
		h.fail(c, "load_more", err, zap.String("session_id", id))
		return
	}

	response.OK(c, model.AppendRes{Appended: n})
}
