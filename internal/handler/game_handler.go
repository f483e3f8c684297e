package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/wiz-rd/Rummikub/internal/middleware"
	"github.com/wiz-rd/Rummikub/internal/proto"
	"github.com/wiz-rd/Rummikub/pkg/response"
)

// GameHandler 游戏 HTTP 处理器
type GameHandler struct {
	service GameService
}

// NewGameHandler 创建游戏处理器
func NewGameHandler(service GameService) *GameHandler {
	return &GameHandler{service: service}
}

// CreateGame 创建游戏，请求体为空时使用默认规则
// POST /api/v1/games
func (h *GameHandler) CreateGame(c *gin.Context) {
	var req proto.CreateGameCommand
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.InvalidParams(c, err)
			return
		}
	}

	rules, err := req.ResolveRules(h.service.DefaultRules())
	if err != nil {
		response.InvalidParams(c, err)
		return
	}

	g, err := h.service.CreateGame(c.Request.Context(), rules)
	if err != nil {
		response.ErrorFromErr(c, err)
		return
	}
	response.Success(c, proto.NewGameView(g))
}

// ListGames 列出当前玩家参与的游戏
// GET /api/v1/games
func (h *GameHandler) ListGames(c *gin.Context) {
	games, err := h.service.ListGames(c.Request.Context(), middleware.GetPlayerID(c))
	if err != nil {
		response.ErrorFromErr(c, err)
		return
	}
	response.Success(c, games)
}

// GetGame 获取游戏公开状态
// GET /api/v1/games/:id
func (h *GameHandler) GetGame(c *gin.Context) {
	g, err := h.service.GetGame(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.ErrorFromErr(c, err)
		return
	}
	response.Success(c, proto.NewGameView(g))
}

// StartGame 开局
// POST /api/v1/games/:id/start
func (h *GameHandler) StartGame(c *gin.Context) {
	var req proto.StartGameCommand
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}

	g, err := h.service.StartGame(c.Request.Context(), c.Param("id"), req.PlayerIDs)
	if err != nil {
		response.ErrorFromErr(c, err)
		return
	}
	response.Success(c, proto.NewGameView(g))
}

// DrawTile 摸牌
// POST /api/v1/games/:id/draw
func (h *GameHandler) DrawTile(c *gin.Context) {
	g, tile, err := h.service.DrawTile(c.Request.Context(), c.Param("id"), middleware.GetPlayerID(c))
	if err != nil {
		response.ErrorFromErr(c, err)
		return
	}
	response.Success(c, proto.DrawResult{Game: proto.NewGameView(g), Tile: tile})
}

// ApplyMove 出牌，请求体是完整的新牌面
// POST /api/v1/games/:id/move
func (h *GameHandler) ApplyMove(c *gin.Context) {
	var req proto.ApplyMoveCommand
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}

	g, settlement, err := h.service.ApplyMove(c.Request.Context(), c.Param("id"), middleware.GetPlayerID(c), req.Board)
	if err != nil {
		response.ErrorFromErr(c, err)
		return
	}
	view := proto.NewGameView(g)
	view.Settlement = settlement
	response.Success(c, view)
}

// GetHand 获取自己的手牌
// GET /api/v1/games/:id/hand
func (h *GameHandler) GetHand(c *gin.Context) {
	hand, err := h.service.GetHand(c.Request.Context(), c.Param("id"), middleware.GetPlayerID(c))
	if err != nil {
		response.ErrorFromErr(c, err)
		return
	}
	response.Success(c, hand)
}

// EndGame 结束游戏并结算
// POST /api/v1/games/:id/end
func (h *GameHandler) EndGame(c *gin.Context) {
	settlement, err := endGame(c.Request.Context(), h.service, c.Param("id"), middleware.GetPlayerID(c))
	if err != nil {
		response.ErrorFromErr(c, err)
		return
	}
	response.Success(c, settlement)
}

// DeleteGame 删除游戏
// DELETE /api/v1/games/:id
func (h *GameHandler) DeleteGame(c *gin.Context) {
	gameID := c.Param("id")
	if err := deleteGame(c.Request.Context(), h.service, gameID, middleware.GetPlayerID(c)); err != nil {
		response.ErrorFromErr(c, err)
		return
	}
	response.Success(c, gin.H{"game_id": gameID})
}

// ValidateMeld 校验牌组
// POST /api/v1/melds/validate
func (h *GameHandler) ValidateMeld(c *gin.Context) {
	var req proto.ValidateMeldCommand
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}

	meld, err := h.service.ValidateMeld(req.Tiles, req.Bounds())
	if err != nil {
		response.ErrorFromErr(c, err)
		return
	}
	response.Success(c, proto.NewMeldView(meld))
}
