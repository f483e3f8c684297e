package rummikub

import "time"

// State 游戏状态，只能 PREGAME -> ONGOING -> ENDED
type State string

const (
	StatePregame State = "PREGAME"
	StateOngoing State = "ONGOING"
	StateEnded   State = "ENDED"
)

// Player 玩家
type Player struct {
	PlayerID string `json:"player_id"`
	TurnSlot int    `json:"turn_slot"`
	Hand     *Hand  `json:"hand,omitempty"`
	Entered  bool   `json:"entered"` // 是否已完成首次出牌
}

// Clone 深拷贝
func (p *Player) Clone() *Player {
	c := *p
	c.Hand = p.Hand.Clone()
	return &c
}

// Game 一局游戏
type Game struct {
	ID               string    `json:"id"`
	State            State     `json:"state"`
	Rules            Rules     `json:"rules"`
	Board            Board     `json:"board"`
	Pool             *Pool     `json:"pool"`
	CurrentTurnIndex int       `json:"current_turn_index"`
	Players          []*Player `json:"players"`
	Winner           string    `json:"winner,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Clone 深拷贝，引擎在副本上计算，全部校验通过后才替换
func (g *Game) Clone() *Game {
	c := *g
	c.Board = g.Board.Clone()
	c.Pool = g.Pool.Clone()
	c.Players = make([]*Player, len(g.Players))
	for i, p := range g.Players {
		c.Players[i] = p.Clone()
	}
	return &c
}

// Bounds 牌面数字范围
func (g *Game) Bounds() Bounds {
	return g.Rules.Bounds()
}

// Player 按 ID 查找玩家
func (g *Game) Player(playerID string) (*Player, error) {
	for _, p := range g.Players {
		if p.PlayerID == playerID {
			return p, nil
		}
	}
	return nil, ErrPlayerNotFound.WithContext("playerId", playerID)
}

// CurrentSlot 当前轮到的座位
func (g *Game) CurrentSlot() int {
	if len(g.Players) == 0 {
		return 0
	}
	return g.CurrentTurnIndex % len(g.Players)
}

// CurrentPlayer 当前轮到的玩家
func (g *Game) CurrentPlayer() *Player {
	slot := g.CurrentSlot()
	for _, p := range g.Players {
		if p.TurnSlot == slot {
			return p
		}
	}
	return nil
}

// PoolSize 牌池剩余数量
func (g *Game) PoolSize() int {
	if g.Pool == nil {
		return 0
	}
	return g.Pool.Size()
}

// TileCount 牌池、手牌、桌面的总牌数
func (g *Game) TileCount() int {
	total := g.PoolSize() + g.Board.TileCount()
	for _, p := range g.Players {
		if p.Hand != nil {
			total += p.Hand.Size()
		}
	}
	return total
}

// CheckConservation 校验总牌数守恒，不守恒说明代码有缺陷
func (g *Game) CheckConservation() error {
	if g.State == StatePregame {
		return nil
	}
	expected := g.Rules.ExpectedTileCount()
	if actual := g.TileCount(); actual != expected {
		return ErrInvariantViolation.
			WithContext("gameId", g.ID).
			WithContext("expected", expected).
			WithContext("actual", actual)
	}
	return nil
}

// checkTurn 校验状态、玩家和回合
func (g *Game) checkTurn(playerID string) (*Player, error) {
	if g.State != StateOngoing {
		return nil, ErrGameNotStarted.WithContext("state", string(g.State))
	}
	player, err := g.Player(playerID)
	if err != nil {
		return nil, err
	}
	if slot := g.CurrentSlot(); slot != player.TurnSlot {
		return nil, ErrOutOfTurn.
			WithContext("playerId", playerID).
			WithContext("turnIndex", g.CurrentTurnIndex).
			WithContext("currentSlot", slot)
	}
	return player, nil
}
