package response

import (
	"net/http"

	"github.com/SeptianSamdany/interview-prep-ai/internal/apperr"
	"github.com/gin-gonic/gin"
)

// Envelope wraps all API responses in a consistent structure
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details for failed responses. Detail is only
// populated outside production.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// OK sends a successful response with data
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    data,
	})
}

// Created sends a 201 response for successfully created resources
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{
		Success: true,
		Data:    data,
	})
}

// --- Error Responses ---

func errorResponse(c *gin.Context, status int, info *ErrorInfo) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Error:   info,
	})
}

// Error renders a classified error. Unclassified errors become a generic
// 500 so raw driver or provider text never reaches the client.
func Error(c *gin.Context, err error, showDetail bool) {
	ae := apperr.From(err, "internal server error")

	info := &ErrorInfo{
		Code:    ae.Kind.String(),
		Message: ae.Message,
	}
	if showDetail {
		info.Detail = ae.Detail
		if info.Detail == "" && ae.Err != nil {
			info.Detail = ae.Err.Error()
		}
	}
	errorResponse(c, ae.Kind.HTTPStatus(), info)
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	errorResponse(c, http.StatusBadRequest, &ErrorInfo{Code: apperr.KindValidation.String(), Message: message})
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "unauthorized"
	}
	errorResponse(c, http.StatusUnauthorized, &ErrorInfo{Code: apperr.KindUnauthenticated.String(), Message: message})
}

// TooManyRequests sends a 429 response
func TooManyRequests(c *gin.Context, message string) {
	if message == "" {
		message = "rate limit exceeded, please try again later"
	}
	errorResponse(c, http.StatusTooManyRequests, &ErrorInfo{Code: "RATE_LIMIT_EXCEEDED", Message: message})
}
