package handlers

import (
	"net/http"

	"whatstrumps/services"

	"github.com/gin-gonic/gin"
)

type PlayerHandler struct {
	playerService *services.PlayerService
}

func NewPlayerHandler(playerService *services.PlayerService) *PlayerHandler {
	return &PlayerHandler{
		playerService: playerService,
	}
}

func (h *PlayerHandler) CreatePlayer(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.CreatePlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	player, err := h.playerService.CreatePlayer(actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, player)
}

func (h *PlayerHandler) ListPlayers(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	players, err := h.playerService.ListPlayers(actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, players)
}

func (h *PlayerHandler) GetPlayer(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	playerID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	player, err := h.playerService.GetPlayer(actor, playerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, player)
}

func (h *PlayerHandler) DeletePlayer(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	playerID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if err := h.playerService.DeletePlayer(actor, playerID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Player deleted"})
}
