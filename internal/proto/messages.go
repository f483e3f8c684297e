package proto

import (
	"encoding/json"
	"time"

	"github.com/wiz-rd/Rummikub/internal/game"
	"github.com/wiz-rd/Rummikub/internal/game/rummikub"
)

// ============== 命令 (调用方 -> 游戏服务) ==============

// CommandMessage 命令封装，Payload 中只有一个字段不为空
// PlayerID 是上游已经认证过的玩家身份
type CommandMessage struct {
	RequestID string         `json:"request_id"`
	PlayerID  string         `json:"player_id,omitempty"`
	Payload   CommandPayload `json:"payload"`
}

// CommandPayload 命令载荷
type CommandPayload struct {
	CreateGame   *CreateGameCommand   `json:"create_game,omitempty"`
	StartGame    *StartGameCommand    `json:"start_game,omitempty"`
	DrawTile     *GameCommand         `json:"draw_tile,omitempty"`
	ApplyMove    *ApplyMoveCommand    `json:"apply_move,omitempty"`
	ValidateMeld *ValidateMeldCommand `json:"validate_meld,omitempty"`
	GetGame      *GameCommand         `json:"get_game,omitempty"`
	GetHand      *GameCommand         `json:"get_hand,omitempty"`
	EndGame      *GameCommand         `json:"end_game,omitempty"`
	ListGames    *ListGamesCommand    `json:"list_games,omitempty"`
	DeleteGame   *GameCommand         `json:"delete_game,omitempty"`
}

// CreateGameCommand 创建游戏，Rules 为空时使用默认规则，只写出部分字段时其余字段取默认值
type CreateGameCommand struct {
	Rules json.RawMessage `json:"rules,omitempty"`
}

// ResolveRules 在默认规则上叠加请求中的字段，没有规则时返回 nil
func (c *CreateGameCommand) ResolveRules(defaults rummikub.Rules) (*rummikub.Rules, error) {
	if len(c.Rules) == 0 || string(c.Rules) == "null" {
		return nil, nil
	}
	rules := defaults
	if err := json.Unmarshal(c.Rules, &rules); err != nil {
		return nil, err
	}
	return &rules, nil
}

// StartGameCommand 开局
type StartGameCommand struct {
	GameID    string   `json:"game_id"`
	PlayerIDs []string `json:"player_ids" binding:"required,min=1"`
}

// GameCommand 只需要游戏ID的命令
type GameCommand struct {
	GameID string `json:"game_id"`
}

// ListGamesCommand 列出命令发起者参与的游戏
type ListGamesCommand struct{}

// ApplyMoveCommand 出牌，Board 是完整的新牌面
type ApplyMoveCommand struct {
	GameID string         `json:"game_id"`
	Board  rummikub.Board `json:"board"`
}

// ValidateMeldCommand 校验牌组
// MinTile/MaxTile 为 0 时使用默认规则的范围
type ValidateMeldCommand struct {
	Tiles   []rummikub.Tile `json:"tiles" binding:"required"`
	MinTile int             `json:"min_tile,omitempty"`
	MaxTile int             `json:"max_tile,omitempty"`
}

// Bounds 校验使用的数字范围
func (c *ValidateMeldCommand) Bounds() rummikub.Bounds {
	bounds := rummikub.DefaultRules().Bounds()
	if c.MinTile > 0 {
		bounds.MinTile = c.MinTile
	}
	if c.MaxTile > 0 {
		bounds.MaxTile = c.MaxTile
	}
	return bounds
}

// CommandReply 命令应答，与 HTTP 响应使用相同的 code/message/data
type CommandReply struct {
	RequestID string `json:"request_id"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
}

// ============== 事件 (游戏服务 -> 订阅方) ==============

// EventMessage 游戏事件，EventID 用于订阅方去重
type EventMessage struct {
	EventID   string         `json:"event_id"`
	GameID    string         `json:"game_id"`
	Kind      game.EventKind `json:"kind"`
	PlayerID  string         `json:"player_id,omitempty"`
	TurnIndex int            `json:"turn_index"`
	At        time.Time      `json:"at"`
}

// ============== 视图 ==============

// PlayerView 对外公开的玩家信息，不含手牌
type PlayerView struct {
	PlayerID string `json:"player_id"`
	TurnSlot int    `json:"turn_slot"`
	HandSize int    `json:"hand_size"`
	Entered  bool   `json:"entered"`
}

// GameView 对外公开的游戏状态
type GameView struct {
	ID               string           `json:"id"`
	State            rummikub.State   `json:"state"`
	Rules            rummikub.Rules   `json:"rules"`
	Board            rummikub.Board   `json:"board"`
	PoolSize         int              `json:"pool_size"`
	CurrentTurnIndex int              `json:"current_turn_index"`
	CurrentPlayer    string           `json:"current_player,omitempty"`
	Players          []PlayerView     `json:"players"`
	Winner           string           `json:"winner,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	Settlement       *game.Settlement `json:"settlement,omitempty"`
}

// NewGameView 生成公开视图
func NewGameView(g *rummikub.Game) *GameView {
	view := &GameView{
		ID:               g.ID,
		State:            g.State,
		Rules:            g.Rules,
		Board:            g.Board,
		PoolSize:         g.PoolSize(),
		CurrentTurnIndex: g.CurrentTurnIndex,
		Players:          make([]PlayerView, len(g.Players)),
		Winner:           g.Winner,
		CreatedAt:        g.CreatedAt,
		UpdatedAt:        g.UpdatedAt,
	}
	if g.State == rummikub.StateOngoing {
		if current := g.CurrentPlayer(); current != nil {
			view.CurrentPlayer = current.PlayerID
		}
	}
	for i, p := range g.Players {
		view.Players[i] = PlayerView{
			PlayerID: p.PlayerID,
			TurnSlot: p.TurnSlot,
			HandSize: p.Hand.Size(),
			Entered:  p.Entered,
		}
	}
	return view
}

// DrawResult 摸牌结果，摸到的牌只返回给本人
type DrawResult struct {
	Game *GameView     `json:"game"`
	Tile rummikub.Tile `json:"tile"`
}

// MeldView 校验结果
type MeldView struct {
	Kind   rummikub.MeldKind `json:"kind"`
	Tiles  []rummikub.Tile   `json:"tiles"`
	Values []int             `json:"values"`
	Score  int               `json:"score"`
}

// NewMeldView 生成校验结果
func NewMeldView(m rummikub.Meld) *MeldView {
	return &MeldView{Kind: m.Kind, Tiles: m.Tiles, Values: m.Values, Score: m.Score()}
}
