package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wiz-rd/Rummikub/internal/game/rummikub"
)

// DecodeHand 解析手牌
// 历史数据里手牌既可能是 JSON 对象，也可能是被再次编码成字符串的 JSON 对象，这里统一成 *rummikub.Hand
func DecodeHand(raw []byte) (*rummikub.Hand, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidHand)
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidHand, err)
		}
		return DecodeHand([]byte(inner))
	}

	if raw[0] != '{' {
		return nil, fmt.Errorf("%w: expected object or string, got %q", ErrInvalidHand, raw[0])
	}

	var hand rummikub.Hand
	if err := json.Unmarshal(raw, &hand); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHand, err)
	}
	if hand.Tiles == nil {
		hand.Tiles = make([]rummikub.Tile, 0)
	}
	return &hand, nil
}

// EncodeHand 手牌总是编码为 JSON 对象
func EncodeHand(hand *rummikub.Hand) ([]byte, error) {
	return json.Marshal(hand)
}

// playerRecord 玩家元数据，手牌单独保存
type playerRecord struct {
	PlayerID string `json:"player_id"`
	TurnSlot int    `json:"turn_slot"`
	Entered  bool   `json:"entered"`
}

// gameRecord 不含手牌的游戏快照
type gameRecord struct {
	ID               string          `json:"id"`
	State            rummikub.State  `json:"state"`
	Rules            rummikub.Rules  `json:"rules"`
	Board            rummikub.Board  `json:"board"`
	Pool             []rummikub.Tile `json:"pool"`
	CurrentTurnIndex int             `json:"current_turn_index"`
	Players          []playerRecord  `json:"players"`
	Winner           string          `json:"winner,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func newGameRecord(game *rummikub.Game) gameRecord {
	rec := gameRecord{
		ID:               game.ID,
		State:            game.State,
		Rules:            game.Rules,
		Board:            game.Board,
		Pool:             make([]rummikub.Tile, 0),
		CurrentTurnIndex: game.CurrentTurnIndex,
		Players:          make([]playerRecord, len(game.Players)),
		Winner:           game.Winner,
		CreatedAt:        game.CreatedAt,
		UpdatedAt:        game.UpdatedAt,
	}
	if game.Pool != nil {
		rec.Pool = game.Pool.Tiles
	}
	for i, p := range game.Players {
		rec.Players[i] = playerRecord{PlayerID: p.PlayerID, TurnSlot: p.TurnSlot, Entered: p.Entered}
	}
	return rec
}

// toGame 还原游戏，玩家手牌为 nil，由调用方通过 LoadHand 填充
func (r gameRecord) toGame() *rummikub.Game {
	game := &rummikub.Game{
		ID:               r.ID,
		State:            r.State,
		Rules:            r.Rules,
		Board:            r.Board,
		Pool:             rummikub.NewPool(r.Pool),
		CurrentTurnIndex: r.CurrentTurnIndex,
		Players:          make([]*rummikub.Player, len(r.Players)),
		Winner:           r.Winner,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if game.Board.Melds == nil {
		game.Board.Melds = make([]rummikub.Meld, 0)
	}
	for i, p := range r.Players {
		game.Players[i] = &rummikub.Player{PlayerID: p.PlayerID, TurnSlot: p.TurnSlot, Entered: p.Entered}
	}
	return game
}

// handRecord 待写入的手牌
type handRecord struct {
	PlayerID string
	Raw      []byte
	Score    int
}

// encodeHands 编码需要保存的手牌，任何一个失败都不写入
func encodeHands(game *rummikub.Game, playerIDs []string) ([]handRecord, error) {
	hands := make([]handRecord, 0, len(playerIDs))
	for _, id := range playerIDs {
		player, err := game.Player(id)
		if err != nil {
			return nil, err
		}
		if player.Hand == nil {
			return nil, fmt.Errorf("%w: player %s has no hand", ErrInvalidHand, id)
		}
		raw, err := EncodeHand(player.Hand)
		if err != nil {
			return nil, err
		}
		hands = append(hands, handRecord{PlayerID: id, Raw: raw, Score: player.Hand.Score})
	}
	return hands, nil
}

// GameSummary 玩家参与的游戏概要
type GameSummary struct {
	ID               string         `json:"id"`
	State            rummikub.State `json:"state"`
	PlayerCount      int            `json:"player_count"`
	CurrentTurnIndex int            `json:"current_turn_index"`
	Winner           string         `json:"winner,omitempty"`
	UpdatedAt        time.Time      `json:"updated_at"`
}
