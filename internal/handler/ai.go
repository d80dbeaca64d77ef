package handler

import (
	"github.com/SeptianSamdany/interview-prep-ai/pkg/model"
	"github.com/SeptianSamdany/interview-prep-ai/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GenerateQuestions returns generated pairs without persisting them.
func (h *Handler) GenerateQuestions(c *gin.Context) {
	var req model.GenerateQuestionsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Missing required fields: role, experience, topics_to_focus, number_of_questions")
		return
	}

	pairs, err := h.AI.GenerateQuestions(c.Request.Context(), req.Role, req.Experience, req.TopicsToFocus, req.NumberOfQuestions)
	if err != nil {
		h.fail(c, "generate_questions", err, zap.Int("requested", req.NumberOfQuestions))
		return
	}

	response.OK(c, model.GenerateQuestionsRes{Questions: pairs, Count: len(pairs)})
}

func (h *Handler) GenerateExplanation(c *gin.Context) {
	var req model.GenerateExplanationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Missing required field: question")
		return
	}

	exp, err := h.AI.ExplainConcept(c.Request.Context(), req.Question)
	if err != nil {
		h.fail(c, "generate_explanation", err)
		return
	}

	response.OK(c, exp)
}
