package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/apperrors"
)

// respondError translates an error into its HTTP shape. Known engine
// errors map to their status and code; anything else is a 500 with the
// detail kept out of the response body.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.StatusCode, gin.H{"error": appErr.Message, "code": appErr.Code})
		return
	}

	logger.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	}).Error("Unhandled error")
	c.JSON(apperrors.StatusFor(err), gin.H{"error": "Internal server error", "code": apperrors.CodeFor(err)})
}
