package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"whatstrumps/engine"
	"whatstrumps/middleware"
	"whatstrumps/services"

	"github.com/gin-gonic/gin"
)

// respondError maps a service error to a status code and JSON body.
func respondError(c *gin.Context, err error) {
	var verr *engine.ValidationError
	switch {
	case errors.As(err, &verr):
		body := gin.H{
			"error":       verr.Error(),
			"constraint":  verr.Constraint,
			"card_number": verr.CardNumber,
			"sum":         verr.Sum,
		}
		if verr.PlayerNumber > 0 {
			body["player_number"] = verr.PlayerNumber
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, engine.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func requireActor(c *gin.Context) (services.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
	}
	return actor, ok
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(v), true
}
