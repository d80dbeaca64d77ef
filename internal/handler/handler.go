package handler

import (
	"github.com/SeptianSamdany/interview-prep-ai/internal/ai"
	"github.com/SeptianSamdany/interview-prep-ai/internal/apperr"
	"github.com/SeptianSamdany/interview-prep-ai/internal/session"
	"github.com/SeptianSamdany/interview-prep-ai/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserIDKey is the gin context key the auth middleware stores the owner id under.
const UserIDKey = "user_id"

type Handler struct {
	Logger   *zap.Logger
	AI       *ai.Service
	Sessions *session.Service
	// ShowErrorDetail exposes internal diagnostics in error bodies. Off in production.
	ShowErrorDetail bool
}

// UserID returns the authenticated owner id, or "" when absent.
func (h *Handler) UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// fail logs err under op and renders it. Server-side kinds log at error level.
func (h *Handler) fail(c *gin.Context, op string, err error, fields ...zap.Field) {
	kind := apperr.KindOf(err)
	fields = append(fields,
		zap.String("user_id", h.UserID(c)),
		zap.String("code", kind.String()),
		zap.Error(err),
	)
	if kind.HTTPStatus() >= 500 {
		h.Logger.Error(op+": failed", fields...)
	} else {
		h.Logger.Info(op+": rejected", fields...)
	}
	response.Error(c, err, h.ShowErrorDetail)
}
