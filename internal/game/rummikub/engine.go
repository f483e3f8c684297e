package rummikub

import (
	"errors"
	"log/slog"
	"time"
)

// Engine 回合引擎
// 所有操作在游戏副本上计算，成功时返回新的游戏，失败时入参保持不变
// Engine 本身无状态，同一局游戏的串行化由调用方负责
type Engine struct {
	rng    Random
	now    func() time.Time
	logger *slog.Logger
}

// NewEngine 创建回合引擎
func NewEngine(rng Random) *Engine {
	if rng == nil {
		rng = NewRandom(0)
	}
	return &Engine{
		rng:    rng,
		now:    time.Now,
		logger: slog.Default().With("component", "RummikubEngine"),
	}
}

// CreateGame 创建 PREGAME 状态的游戏
func (e *Engine) CreateGame(id string, rules Rules) (*Game, error) {
	normalized, err := rules.Normalize()
	if err != nil {
		return nil, err
	}

	now := e.now()
	return &Game{
		ID:        id,
		State:     StatePregame,
		Rules:     normalized,
		Board:     Board{Melds: make([]Meld, 0)},
		Pool:      NewPool(nil),
		Players:   make([]*Player, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Start 开局：生成牌池，随机分配座位，按玩家顺序发牌
func (e *Engine) Start(game *Game, playerIDs []string) (*Game, error) {
	if game.State != StatePregame {
		return nil, ErrAlreadyStarted.WithContext("state", string(game.State))
	}
	if err := validatePlayers(playerIDs, game.Rules.MaxPlayers); err != nil {
		return nil, err
	}

	tiles, err := BuildTiles(game.Rules, e.rng)
	if err != nil {
		return nil, err
	}

	next := game.Clone()
	next.Pool = NewPool(tiles)
	next.Board = Board{Melds: make([]Meld, 0)}

	slots := e.rng.Perm(len(playerIDs))
	next.Players = make([]*Player, len(playerIDs))
	for i, id := range playerIDs {
		next.Players[i] = &Player{PlayerID: id, TurnSlot: slots[i], Hand: NewHand(id)}
	}

	for _, p := range next.Players {
		for i := 0; i < next.Rules.StartingHandCount; i++ {
			tile, err := next.Pool.Draw(e.rng)
			if err != nil {
				return nil, err
			}
			p.Hand.Add(tile)
		}
		p.Hand.UpdateScore(false)
	}

	next.State = StateOngoing
	next.CurrentTurnIndex = 0
	next.UpdatedAt = e.now()

	if err := next.CheckConservation(); err != nil {
		return nil, err
	}

	e.logger.Info("Game started",
		"gameId", next.ID,
		"players", len(next.Players),
		"poolSize", next.Pool.Size())
	return next, nil
}

func validatePlayers(playerIDs []string, maxPlayers int) error {
	n := len(playerIDs)
	if n < MinPlayers || n > MaxPlayers || n > maxPlayers {
		return ErrConfig.
			WithContext("field", "players").
			WithContext("count", n).
			WithContext("maxPlayers", maxPlayers)
	}

	seen := make(map[string]bool, n)
	for _, id := range playerIDs {
		if id == "" {
			return ErrConfig.WithContext("field", "players").WithContext("reason", "empty player id")
		}
		if seen[id] {
			return ErrConfig.WithContext("field", "players").WithContext("duplicate", id)
		}
		seen[id] = true
	}
	return nil
}

// DrawTile 当前玩家摸一张牌，回合前进
func (e *Engine) DrawTile(game *Game, playerID string) (*Game, Tile, error) {
	if _, err := game.checkTurn(playerID); err != nil {
		return nil, Tile{}, err
	}
	if game.PoolSize() == 0 {
		return nil, Tile{}, ErrPoolExhausted.WithContext("gameId", game.ID)
	}

	next := game.Clone()
	player, _ := next.Player(playerID)

	tile, err := next.Pool.Draw(e.rng)
	if err != nil {
		return nil, Tile{}, err
	}
	player.Hand.Add(tile)
	player.Hand.UpdateScore(false)
	next.CurrentTurnIndex++
	next.UpdatedAt = e.now()

	if err := next.CheckConservation(); err != nil {
		return nil, Tile{}, err
	}

	e.logger.Debug("Tile drawn",
		"gameId", next.ID,
		"playerId", playerID,
		"turnIndex", next.CurrentTurnIndex)
	return next, tile, nil
}

// ApplyMove 提交新的桌面
// 新桌面必须包含旧桌面的全部牌并至少多一张；多出的牌从手牌中扣除；改动过的牌组必须合法
func (e *Engine) ApplyMove(game *Game, playerID string, proposed Board) (*Game, error) {
	player, err := game.checkTurn(playerID)
	if err != nil {
		return nil, err
	}

	oldTotal := game.Board.TileCount()
	newTotal := proposed.TileCount()
	if newTotal <= oldTotal {
		return nil, ErrTileConservation.
			WithContext("oldTotal", oldTotal).
			WithContext("newTotal", newTotal)
	}

	diff := game.Board.Diff(proposed)
	if len(diff.Missing) > 0 {
		return nil, ErrTileConservation.WithContext("missing", tileStrings(diff.Missing))
	}

	hand := player.Hand.Clone()
	for _, t := range diff.Placed {
		if !hand.Remove(t) {
			return nil, ErrHandMismatch.
				WithContext("playerId", playerID).
				WithContext("tile", t.String())
		}
	}

	board := Board{Melds: make([]Meld, len(proposed.Melds))}
	changedScore := 0
	for i, m := range proposed.Melds {
		if j, ok := diff.Unchanged[i]; ok {
			board.Melds[i] = game.Board.Melds[j].Clone()
			continue
		}
		meld, err := ValidateMeld(m.Tiles, game.Bounds())
		if err != nil {
			return nil, withMeldIndex(err, i)
		}
		board.Melds[i] = meld
		changedScore += meld.Score()
	}

	if !player.Entered && game.Rules.MinEntryMeldScore > 0 {
		if len(diff.Unchanged) != len(game.Board.Melds) {
			return nil, ErrMeldBelowEntryScore.WithContext("reason", "existing melds must stay untouched before entry")
		}
		if changedScore < game.Rules.MinEntryMeldScore {
			return nil, ErrMeldBelowEntryScore.
				WithContext("score", changedScore).
				WithContext("required", game.Rules.MinEntryMeldScore)
		}
	}

	next := game.Clone()
	nextPlayer, _ := next.Player(playerID)
	nextPlayer.Hand = hand
	nextPlayer.Hand.UpdateScore(false)
	nextPlayer.Entered = true
	next.Board = board
	next.CurrentTurnIndex++
	next.UpdatedAt = e.now()

	if err := next.CheckConservation(); err != nil {
		return nil, err
	}

	e.logger.Debug("Move applied",
		"gameId", next.ID,
		"playerId", playerID,
		"placed", len(diff.Placed),
		"changedMelds", len(diff.Changed),
		"handSize", hand.Size())
	return next, nil
}

func withMeldIndex(err error, index int) error {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.WithContext("meldIndex", index)
	}
	return err
}

func tileStrings(tiles []Tile) []string {
	result := make([]string, len(tiles))
	for i, t := range tiles {
		result[i] = t.String()
	}
	return result
}

// TimeoutTurn 回合超时：当前玩家在牌池不空时罚摸一张，回合前进
// 返回摸到的牌，牌池为空时为 nil
func (e *Engine) TimeoutTurn(game *Game) (*Game, *Tile, error) {
	if game.State != StateOngoing {
		return nil, nil, ErrGameNotStarted.WithContext("state", string(game.State))
	}

	next := game.Clone()
	current := next.CurrentPlayer()
	if current == nil {
		return nil, nil, ErrInvariantViolation.WithContext("turnIndex", next.CurrentTurnIndex)
	}

	var drawn *Tile
	if next.Pool.Size() > 0 {
		tile, err := next.Pool.Draw(e.rng)
		if err != nil {
			return nil, nil, err
		}
		current.Hand.Add(tile)
		current.Hand.UpdateScore(false)
		drawn = &tile
	}
	next.CurrentTurnIndex++
	next.UpdatedAt = e.now()

	if err := next.CheckConservation(); err != nil {
		return nil, nil, err
	}

	e.logger.Info("Turn timed out",
		"gameId", next.ID,
		"playerId", current.PlayerID,
		"drew", drawn != nil)
	return next, drawn, nil
}

// Finish 结束游戏，winnerID 可以为空
func (e *Engine) Finish(game *Game, winnerID string) (*Game, error) {
	if game.State != StateOngoing {
		return nil, ErrGameNotStarted.WithContext("state", string(game.State))
	}
	if winnerID != "" {
		if _, err := game.Player(winnerID); err != nil {
			return nil, err
		}
	}

	next := game.Clone()
	next.State = StateEnded
	next.Winner = winnerID
	next.UpdatedAt = e.now()

	e.logger.Info("Game finished", "gameId", next.ID, "winner", winnerID)
	return next, nil
}
