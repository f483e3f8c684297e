package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wiz-rd/Rummikub/internal/proto"
	"github.com/wiz-rd/Rummikub/pkg/response"
)

var (
	// ErrUnknownCommand 命令载荷为空
	ErrUnknownCommand = errors.New("unknown command")
	// ErrInvalidCommand 命令参数错误
	ErrInvalidCommand = errors.New("invalid command")
)

// CommandHandler NATS 命令处理器
type CommandHandler struct {
	service GameService
	logger  *slog.Logger
}

// NewCommandHandler 创建命令处理器
func NewCommandHandler(service GameService) *CommandHandler {
	return &CommandHandler{
		service: service,
		logger:  slog.Default().With("component", "CommandHandler"),
	}
}

// HandleCommand 分发命令，错误按 HTTP 接口相同的响应码返回
func (h *CommandHandler) HandleCommand(ctx context.Context, cmd *proto.CommandMessage) *proto.CommandReply {
	data, err := h.dispatch(ctx, cmd)
	if errors.Is(err, ErrUnknownCommand) || errors.Is(err, ErrInvalidCommand) {
		return &proto.CommandReply{
			RequestID: cmd.RequestID,
			Code:      response.CodeInvalidParams,
			Message:   err.Error(),
		}
	}
	if err != nil {
		_, resp := response.FromError(err)
		if resp.Code == response.CodeServerError {
			h.logger.Error("Command failed", "requestId", cmd.RequestID, "playerId", cmd.PlayerID, "error", err)
		}
		return &proto.CommandReply{
			RequestID: cmd.RequestID,
			Code:      resp.Code,
			Message:   resp.Message,
			Data:      resp.Data,
		}
	}

	return &proto.CommandReply{
		RequestID: cmd.RequestID,
		Code:      response.CodeSuccess,
		Message:   "success",
		Data:      data,
	}
}

func (h *CommandHandler) dispatch(ctx context.Context, cmd *proto.CommandMessage) (any, error) {
	p := cmd.Payload

	switch {
	case p.CreateGame != nil:
		rules, err := p.CreateGame.ResolveRules(h.service.DefaultRules())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
		}
		g, err := h.service.CreateGame(ctx, rules)
		if err != nil {
			return nil, err
		}
		return proto.NewGameView(g), nil

	case p.StartGame != nil:
		g, err := h.service.StartGame(ctx, p.StartGame.GameID, p.StartGame.PlayerIDs)
		if err != nil {
			return nil, err
		}
		return proto.NewGameView(g), nil

	case p.DrawTile != nil:
		g, tile, err := h.service.DrawTile(ctx, p.DrawTile.GameID, cmd.PlayerID)
		if err != nil {
			return nil, err
		}
		return proto.DrawResult{Game: proto.NewGameView(g), Tile: tile}, nil

	case p.ApplyMove != nil:
		g, settlement, err := h.service.ApplyMove(ctx, p.ApplyMove.GameID, cmd.PlayerID, p.ApplyMove.Board)
		if err != nil {
			return nil, err
		}
		view := proto.NewGameView(g)
		view.Settlement = settlement
		return view, nil

	case p.ValidateMeld != nil:
		meld, err := h.service.ValidateMeld(p.ValidateMeld.Tiles, p.ValidateMeld.Bounds())
		if err != nil {
			return nil, err
		}
		return proto.NewMeldView(meld), nil

	case p.GetGame != nil:
		g, err := h.service.GetGame(ctx, p.GetGame.GameID)
		if err != nil {
			return nil, err
		}
		return proto.NewGameView(g), nil

	case p.GetHand != nil:
		return h.service.GetHand(ctx, p.GetHand.GameID, cmd.PlayerID)

	case p.EndGame != nil:
		return endGame(ctx, h.service, p.EndGame.GameID, cmd.PlayerID)

	case p.ListGames != nil:
		return h.service.ListGames(ctx, cmd.PlayerID)

	case p.DeleteGame != nil:
		if err := deleteGame(ctx, h.service, p.DeleteGame.GameID, cmd.PlayerID); err != nil {
			return nil, err
		}
		return proto.GameCommand{GameID: p.DeleteGame.GameID}, nil
	}

	return nil, ErrUnknownCommand
}
