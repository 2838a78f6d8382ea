// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tezrent/tezrent-backend/internal/models"
	"github.com/tezrent/tezrent-backend/internal/services"
	"github.com/tezrent/tezrent-backend/internal/utils"
)

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// Authorization failures get a fixed message: who owns what stays in the
// logs, not in the response body.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.BadRequestResponse(c, err.Error(), nil)
	case errors.Is(err, services.ErrNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, services.ErrUnauthorized):
		logrus.WithFields(logrus.Fields{
			"path":  c.Request.URL.Path,
			"error": err.Error(),
		}).Warn("Forbidden request")
		utils.ForbiddenResponse(c, "You do not have permission to perform this action")
	case errors.Is(err, services.ErrInvalidState):
		utils.UnprocessableResponse(c, err.Error())
	case errors.Is(err, services.ErrInsufficientStock):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrStorage):
		utils.ErrorResponse(c, http.StatusBadGateway, "STORAGE_ERROR", err.Error(), nil)
	default:
		utils.InternalErrorResponse(c, err.Error())
	}
}

// currentUser reads the identity the auth middleware put on the context.
func currentUser(c *gin.Context) (uuid.UUID, models.UserType, bool) {
	idStr, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return uuid.Nil, "", false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, "", false
	}

	typeStr, _ := utils.GetUserTypeFromContext(c)
	return id, models.UserType(typeStr), true
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}
