package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"geek-ludo/internal/service"
)

// HandleServiceError 把服务层错误映射为 HTTP 状态码
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidJoin),
		errors.Is(err, service.ErrInvalidColor),
		errors.Is(err, service.ErrInvalidVerdict),
		errors.Is(err, service.ErrIncompleteVerdict),
		errors.Is(err, service.ErrInvalidScoringMode),
		errors.Is(err, service.ErrUnknownIntent):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotYourTurn):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotJoined), errors.Is(err, service.ErrNoReview):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAlreadyJoined),
		errors.Is(err, service.ErrAlreadyStarted),
		errors.Is(err, service.ErrInvalidPhase),
		errors.Is(err, service.ErrRequestInFlight),
		errors.Is(err, service.ErrAlreadyVoted):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrDisconnected), errors.Is(err, service.ErrJournalUnavailable):
		abortWithError(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, service.ErrEngineStopped), errors.Is(err, context.DeadlineExceeded):
		abortWithError(c, http.StatusServiceUnavailable, "client is shutting down or busy")
	default:
		logrus.WithError(err).Error("Unhandled internal server error")
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
