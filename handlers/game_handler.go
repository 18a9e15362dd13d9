package handlers

import (
	"net/http"
	"strconv"

	"whatstrumps/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type GameHandler struct {
	gameService *services.GameService
	hub         *services.Hub
	upgrader    websocket.Upgrader
}

func NewGameHandler(gameService *services.GameService, hub *services.Hub, allowedOrigins []string) *GameHandler {
	return &GameHandler{
		gameService: gameService,
		hub:         hub,
		upgrader:    websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)},
	}
}

type SubmitBidsRequest struct {
	Bids map[int]int `json:"bids" binding:"required"`
}

type SubmitScoresRequest struct {
	Scores map[int]int `json:"scores" binding:"required"`
}

func (h *GameHandler) CreateGame(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	game, err := h.gameService.CreateGame(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, game)
}

func (h *GameHandler) ListGames(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	games, err := h.gameService.ListGames(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, games)
}

func (h *GameHandler) GetGame(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	gameID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	game, err := h.gameService.GetGame(c.Request.Context(), actor, gameID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

func (h *GameHandler) DeleteGame(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	gameID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if err := h.gameService.DeleteGame(c.Request.Context(), actor, gameID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Game deleted"})
}

func (h *GameHandler) GetStandings(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	gameID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	standings, err := h.gameService.Standings(c.Request.Context(), actor, gameID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, standings)
}

func (h *GameHandler) GetHistory(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	gameID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	history, err := h.gameService.History(c.Request.Context(), actor, gameID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *GameHandler) SubmitBids(c *gin.Context) {
	actor, gameID, roundNumber, ok := roundParams(c)
	if !ok {
		return
	}

	var req SubmitBidsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.gameService.SubmitPredictions(c.Request.Context(), actor, gameID, roundNumber, req.Bids)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.hub != nil {
		h.hub.PublishTransition(gameID, services.MessagePredictionsSubmitted, result)
	}
	c.JSON(http.StatusOK, result)
}

func (h *GameHandler) SubmitScores(c *gin.Context) {
	actor, gameID, roundNumber, ok := roundParams(c)
	if !ok {
		return
	}

	var req SubmitScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.gameService.SubmitScores(c.Request.Context(), actor, gameID, roundNumber, req.Scores)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.hub != nil {
		h.hub.PublishTransition(gameID, services.MessageScoresSubmitted, result)
	}
	c.JSON(http.StatusOK, result)
}

// WatchGame upgrades to a websocket that receives live updates for one game.
// Browsers cannot set headers on a websocket request, so the token usually
// arrives as a query parameter.
func (h *GameHandler) WatchGame(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	gameID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Live updates unavailable"})
		return
	}

	if err := h.gameService.CheckVisible(c.Request.Context(), actor, gameID); err != nil {
		respondError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already replied.
		c.Error(err)
		return
	}
	h.hub.RegisterClient(conn, gameID, actor)
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set["*"] || set[origin]
	}
}

func roundParams(c *gin.Context) (services.Actor, uint, int, bool) {
	actor, ok := requireActor(c)
	if !ok {
		return actor, 0, 0, false
	}
	gameID, ok := uintParam(c, "id")
	if !ok {
		return actor, 0, 0, false
	}
	roundNumber, err := strconv.Atoi(c.Param("round"))
	if err != nil || roundNumber < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid round"})
		return actor, 0, 0, false
	}
	return actor, gameID, roundNumber, true
}
