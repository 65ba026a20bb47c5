package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mandalhq/mandal-api/internal/services"
)

// respondError translates a service error into an HTTP response. Typed
// domain errors carry their own status and stable code; anything else is
// a 500 with a generic message.
func respondError(c *gin.Context, err error) {
	if svcErr, ok := services.AsServiceError(err); ok {
		c.JSON(statusForKind(svcErr.Kind), gin.H{
			"error": svcErr.Message,
			"code":  svcErr.Code,
		})
		return
	}

	c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func statusForKind(kind services.ErrorKind) int {
	switch kind {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindDuplicate:
		return http.StatusConflict
	case services.KindStateConflict, services.KindPolicy:
		return http.StatusUnprocessableEntity
	case services.KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
