package handler

import (
	"context"

	"github.com/wiz-rd/Rummikub/internal/game"
	"github.com/wiz-rd/Rummikub/internal/game/rummikub"
	"github.com/wiz-rd/Rummikub/internal/repository"
)

// GameService 处理器依赖的游戏服务
type GameService interface {
	DefaultRules() rummikub.Rules
	CreateGame(ctx context.Context, rules *rummikub.Rules) (*rummikub.Game, error)
	StartGame(ctx context.Context, gameID string, playerIDs []string) (*rummikub.Game, error)
	DrawTile(ctx context.Context, gameID, playerID string) (*rummikub.Game, rummikub.Tile, error)
	ApplyMove(ctx context.Context, gameID, playerID string, board rummikub.Board) (*rummikub.Game, *game.Settlement, error)
	ValidateMeld(tiles []rummikub.Tile, bounds rummikub.Bounds) (rummikub.Meld, error)
	GetGame(ctx context.Context, gameID string) (*rummikub.Game, error)
	GetHand(ctx context.Context, gameID, playerID string) (*rummikub.Hand, error)
	EndGame(ctx context.Context, gameID string) (*game.Settlement, error)
	ListGames(ctx context.Context, playerID string) ([]repository.GameSummary, error)
	DeleteGame(ctx context.Context, gameID string) error
}

var _ GameService = (*game.GameService)(nil)

// endGame 只有本局玩家可以结束游戏
func endGame(ctx context.Context, svc GameService, gameID, playerID string) (*game.Settlement, error) {
	g, err := svc.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if _, err := g.Player(playerID); err != nil {
		return nil, err
	}
	return svc.EndGame(ctx, gameID)
}

// deleteGame 未开局的游戏任何人都可以删除，开局后只有本局玩家可以删除
func deleteGame(ctx context.Context, svc GameService, gameID, playerID string) error {
	g, err := svc.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if len(g.Players) > 0 {
		if _, err := g.Player(playerID); err != nil {
			return err
		}
	}
	return svc.DeleteGame(ctx, gameID)
}
