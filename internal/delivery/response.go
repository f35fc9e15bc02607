package delivery

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mrEvil84/BlueStorage/internal/domain"
)

// SuccessResponse writes data as the bare JSON body.
func SuccessResponse(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// ErrorResponse writes the error message as a JSON string.
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, message)
}

// mapErrorToStatus picks the HTTP status for an error kind. Clients of this
// API receive a uniform 400 for every failure; the kind only shows in logs.
func mapErrorToStatus(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation, domain.KindNotFound:
		return http.StatusBadRequest
	case domain.KindStoreFailure, domain.KindUnexpected:
		return http.StatusBadRequest
	}
	return http.StatusBadRequest
}

// logLevelFor separates client faults from server-side failures in the logs.
func logLevelFor(kind domain.ErrorKind) logrus.Level {
	switch kind {
	case domain.KindValidation, domain.KindNotFound:
		return logrus.WarnLevel
	case domain.KindStoreFailure, domain.KindUnexpected:
		return logrus.ErrorLevel
	}
	return logrus.ErrorLevel
}

func handleError(c *gin.Context, logger *logrus.Logger, err error) {
	kind := domain.KindOf(err)
	entry := logger.WithFields(logrus.Fields{
		"kind":       kind.String(),
		"request_id": RequestIDFromContext(c),
	})
	var pe *domain.ProductError
	if errors.As(err, &pe) {
		entry = entry.WithField("op", string(pe.Op))
		if pe.Err != nil {
			entry = entry.WithField("cause", pe.Err.Error())
		}
	}
	entry.Logf(logLevelFor(kind), "Request failed: %v", err)
	ErrorResponse(c, mapErrorToStatus(kind), err.Error())
}
