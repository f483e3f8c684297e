package rummikub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_CreateGame(t *testing.T) {
	engine := NewEngine(NewRandom(1))

	game, err := engine.CreateGame("game-1", DefaultRules())
	require.NoError(t, err)

	assert.Equal(t, StatePregame, game.State)
	assert.Equal(t, 2, game.Rules.JokerCount)
	assert.Empty(t, game.Players)
	assert.Equal(t, 0, game.PoolSize())
	assert.NoError(t, game.CheckConservation())
}

func TestEngine_CreateGameConfigError(t *testing.T) {
	rules := DefaultRules()
	rules.MaxPlayers = 10

	_, err := NewEngine(NewRandom(1)).CreateGame("game-1", rules)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestEngine_Start(t *testing.T) {
	engine := NewEngine(NewRandom(42))
	game, err := engine.CreateGame("game-1", DefaultRules())
	require.NoError(t, err)

	started, err := engine.Start(game, testPlayers)
	require.NoError(t, err)

	assert.Equal(t, StateOngoing, started.State)
	assert.Equal(t, 0, started.CurrentTurnIndex)
	assert.Equal(t, 106-4*14, started.PoolSize())
	assert.Equal(t, 106, started.TileCount())

	slots := make(map[int]bool)
	for i, p := range started.Players {
		assert.Equal(t, testPlayers[i], p.PlayerID)
		assert.Equal(t, 14, p.Hand.Size())
		assert.Equal(t, p.Hand.CalculateScore(false), p.Hand.Score)
		slots[p.TurnSlot] = true
	}
	assert.Len(t, slots, 4)

	// 入参不被修改
	assert.Equal(t, StatePregame, game.State)
	assert.Empty(t, game.Players)
}

func TestEngine_StartAssignsPermutedSlots(t *testing.T) {
	engine := NewEngine(&fixedRandom{perm: []int{2, 0, 3, 1}})
	game, err := engine.CreateGame("game-1", DefaultRules())
	require.NoError(t, err)

	started, err := engine.Start(game, testPlayers)
	require.NoError(t, err)

	assert.Equal(t, 2, started.Players[0].TurnSlot)
	assert.Equal(t, 0, started.Players[1].TurnSlot)
	assert.Equal(t, "p2", started.CurrentPlayer().PlayerID)
}

func TestEngine_StartTwice(t *testing.T) {
	engine, game := startedGame(t, DefaultRules())

	_, err := engine.Start(game, testPlayers)
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestEngine_StartRejectsPlayers(t *testing.T) {
	engine := NewEngine(NewRandom(1))
	game, err := engine.CreateGame("game-1", DefaultRules())
	require.NoError(t, err)

	inputs := [][]string{
		{"p1", "p2", "p3"},
		{"p1", "p2", "p3", "p4", "p5"}, // 超过 MaxPlayers=4
		{"p1", "p2", "p3", "p1"},
		{"p1", "p2", "", "p4"},
	}
	for _, ids := range inputs {
		_, err := engine.Start(game, ids)
		assert.ErrorIs(t, err, ErrConfig, "%v", ids)
	}
	assert.Equal(t, StatePregame, game.State)
}

func TestEngine_StartSixPlayers(t *testing.T) {
	rules := DefaultRules()
	rules.MaxPlayers = 6
	engine := NewEngine(NewRandom(5))
	game, err := engine.CreateGame("game-1", rules)
	require.NoError(t, err)

	started, err := engine.Start(game, []string{"a", "b", "c", "d", "e", "f"})
	require.NoError(t, err)
	assert.Equal(t, 160-6*14, started.PoolSize())
}

func TestEngine_DrawTile(t *testing.T) {
	engine, game := startedGame(t, DefaultRules())
	poolSize := game.PoolSize()

	next, tile, err := engine.DrawTile(game, "p1")
	require.NoError(t, err)

	p1, _ := next.Player("p1")
	assert.Equal(t, 15, p1.Hand.Size())
	assert.Equal(t, 1, CountTile(p1.Hand.Tiles, tile)-CountTile(mustPlayer(t, game, "p1").Hand.Tiles, tile))
	assert.Equal(t, poolSize-1, next.PoolSize())
	assert.Equal(t, 1, next.CurrentTurnIndex)
	assert.NoError(t, next.CheckConservation())

	// 原游戏不变
	assert.Equal(t, 0, game.CurrentTurnIndex)
	assert.Equal(t, poolSize, game.PoolSize())
}

func TestEngine_DrawTileNotStarted(t *testing.T) {
	engine := NewEngine(NewRandom(1))
	game, err := engine.CreateGame("game-1", DefaultRules())
	require.NoError(t, err)

	_, _, err = engine.DrawTile(game, "p1")
	assert.ErrorIs(t, err, ErrGameNotStarted)
}

func TestEngine_DrawTileUnknownPlayer(t *testing.T) {
	engine, game := startedGame(t, DefaultRules())

	_, _, err := engine.DrawTile(game, "stranger")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestEngine_DrawTilePoolExhausted(t *testing.T) {
	engine, game := startedGame(t, DefaultRules())
	drainPool(game)
	p1 := mustPlayer(t, game, "p1")
	handSize := p1.Hand.Size()

	_, _, err := engine.DrawTile(game, "p1")
	require.ErrorIs(t, err, ErrPoolExhausted)

	assert.Equal(t, handSize, p1.Hand.Size())
	assert.Equal(t, 0, game.PoolSize())
	assert.Equal(t, 0, game.CurrentTurnIndex)
}

func TestEngine_TurnCycling(t *testing.T) {
	engine, game := startedGame(t, DefaultRules())

	order := []string{"p1", "p2", "p3", "p4", "p1"}
	for i, id := range order {
		assert.Equal(t, i%4, game.CurrentSlot())
		next, _, err := engine.DrawTile(game, id)
		require.NoError(t, err, "turn %d", i)
		game = next
	}

	require.Equal(t, 5, game.CurrentTurnIndex)
	assert.Equal(t, 1, game.CurrentSlot())

	// 5 号回合属于 1 号座位，2 号座位的 p3 不能行动
	_, _, err := engine.DrawTile(game, "p3")
	assert.ErrorIs(t, err, ErrOutOfTurn)
	_, err = engine.ApplyMove(game, "p3", Board{Melds: []Meld{NewMeld(red(1), red(2), red(3))}})
	assert.ErrorIs(t, err, ErrOutOfTurn)
}

func TestEngine_ConservationAcrossTurns(t *testing.T) {
	engine := NewEngine(NewRandom(7))
	game, err := engine.CreateGame("game-1", noEntryRules())
	require.NoError(t, err)
	game, err = engine.Start(game, testPlayers)
	require.NoError(t, err)

	for i := 0; i < 40; i++ {
		current := game.CurrentPlayer().PlayerID
		next, _, err := engine.DrawTile(game, current)
		require.NoError(t, err)
		require.Equal(t, 106, next.TileCount())
		game = next
	}
}

func TestEngine_ApplyMove(t *testing.T) {
	engine, game := startedGame(t, noEntryRules())
	giveTiles(t, game, "p1", red(9), red(10), red(11))
	p1 := mustPlayer(t, game, "p1")
	handSize := p1.Hand.Size()

	proposed := Board{Melds: []Meld{NewMeld(red(11), red(9), red(10))}}
	next, err := engine.ApplyMove(game, "p1", proposed)
	require.NoError(t, err)

	require.Len(t, next.Board.Melds, 1)
	meld := next.Board.Melds[0]
	assert.Equal(t, MeldRun, meld.Kind)
	assert.Equal(t, []Tile{red(9), red(10), red(11)}, meld.Tiles)

	nextP1 := mustPlayer(t, next, "p1")
	assert.Equal(t, handSize-3, nextP1.Hand.Size())
	assert.Equal(t, nextP1.Hand.CalculateScore(false), nextP1.Hand.Score)
	assert.True(t, nextP1.Entered)
	assert.Equal(t, 1, next.CurrentTurnIndex)
	assert.NoError(t, next.CheckConservation())

	// 提交的牌组不改变调用方的数据
	assert.Equal(t, []Tile{red(11), red(9), red(10)}, proposed.Melds[0].Tiles)
	assert.Empty(t, game.Board.Melds)
}

func TestEngine_ApplyMoveRearrangesBoard(t *testing.T) {
	engine, game := startedGame(t, noEntryRules())
	giveTiles(t, game, "p1", red(3), red(4), red(5))
	next, err := engine.ApplyMove(game, "p1", Board{Melds: []Meld{NewMeld(red(3), red(4), red(5))}})
	require.NoError(t, err)

	// p2 把桌面上的 3-4-5 拆开，拿 5 和手里的牌组成新的组合
	giveTiles(t, next, "p2", red(6), blue(5), black(5))
	proposed := Board{Melds: []Meld{
		NewMeld(red(3), red(4), red(6), red(5)),
		NewMeld(blue(5), black(5), orange(5)),
	}}
	giveTiles(t, next, "p2", orange(5))

	after, err := engine.ApplyMove(next, "p2", proposed)
	require.NoError(t, err)

	require.Len(t, after.Board.Melds, 2)
	assert.Equal(t, []int{3, 4, 5, 6}, after.Board.Melds[0].Values)
	assert.Equal(t, MeldSet, after.Board.Melds[1].Kind)
	assert.Equal(t, 2, after.CurrentTurnIndex)
	assert.NoError(t, after.CheckConservation())
}

func TestEngine_ApplyMoveKeepsUnchangedMelds(t *testing.T) {
	engine, game := startedGame(t, noEntryRules())
	giveTiles(t, game, "p1", red(3), red(4), red(5))
	next, err := engine.ApplyMove(game, "p1", Board{Melds: []Meld{NewMeld(red(5), red(3), red(4))}})
	require.NoError(t, err)

	giveTiles(t, next, "p2", blue(9), blue(10), blue(11))
	proposed := Board{Melds: []Meld{
		NewMeld(red(4), red(5), red(3)),
		NewMeld(blue(9), blue(10), blue(11)),
	}}

	after, err := engine.ApplyMove(next, "p2", proposed)
	require.NoError(t, err)
	assert.Equal(t, []Tile{red(3), red(4), red(5)}, after.Board.Melds[0].Tiles)
}

func TestEngine_ApplyMoveHandMismatch(t *testing.T) {
	engine, game := startedGame(t, noEntryRules())
	p1 := mustPlayer(t, game, "p1")
	// 保证 p1 手里没有红 13
	for p1.Hand.Remove(red(13)) {
		game.Pool.Tiles = append(game.Pool.Tiles, red(13))
	}
	giveTiles(t, game, "p1", red(11), red(12))
	before := p1.Hand.Clone()

	_, err := engine.ApplyMove(game, "p1", Board{Melds: []Meld{NewMeld(red(11), red(12), red(13))}})
	require.ErrorIs(t, err, ErrHandMismatch)

	assert.Equal(t, before.Tiles, p1.Hand.Tiles)
	assert.Empty(t, game.Board.Melds)
	assert.Equal(t, 0, game.CurrentTurnIndex)
}

func TestEngine_ApplyMoveTileConservation(t *testing.T) {
	engine, game := startedGame(t, noEntryRules())
	giveTiles(t, game, "p1", red(3), red(4), red(5))
	next, err := engine.ApplyMove(game, "p1", Board{Melds: []Meld{NewMeld(red(3), red(4), red(5))}})
	require.NoError(t, err)

	// 相同数量：没有出牌
	_, err = engine.ApplyMove(next, "p2", Board{Melds: []Meld{NewMeld(red(3), red(4), red(5))}})
	assert.ErrorIs(t, err, ErrTileConservation)

	// 更少
	_, err = engine.ApplyMove(next, "p2", Board{})
	assert.ErrorIs(t, err, ErrTileConservation)

	// 数量更多但旧桌面上的牌不见了
	giveTiles(t, next, "p2", blue(7), black(7), orange(7), red(7))
	_, err = engine.ApplyMove(next, "p2", Board{Melds: []Meld{
		NewMeld(red(3), red(4)),
		NewMeld(blue(7), black(7), orange(7), red(7)),
	}})
	assert.ErrorIs(t, err, ErrTileConservation)
	assert.Equal(t, 1, next.CurrentTurnIndex)
}

func TestEngine_ApplyMoveInvalidMeld(t *testing.T) {
	engine, game := startedGame(t, noEntryRules())
	giveTiles(t, game, "p1", red(3), red(4), blue(9), red(9))

	_, err := engine.ApplyMove(game, "p1", Board{Melds: []Meld{
		NewMeld(red(3), red(4)),
	}})
	assert.ErrorIs(t, err, ErrMeldTooFew)
	assert.ErrorIs(t, err, ErrInvalidMeld)

	_, err = engine.ApplyMove(game, "p1", Board{Melds: []Meld{
		NewMeld(red(3), red(4), blue(9)),
	}})
	require.ErrorIs(t, err, ErrMeldNotSetOrRun)

	var ge *GameError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, 0, ge.Context["meldIndex"])
	assert.Empty(t, game.Board.Melds)
}

func TestEngine_EntryScore(t *testing.T) {
	engine, game := startedGame(t, DefaultRules())
	giveTiles(t, game, "p1", red(1), red(2), red(3), blue(10), blue(11), blue(12))

	// 1+2+3 = 6 < 30
	_, err := engine.ApplyMove(game, "p1", Board{Melds: []Meld{NewMeld(red(1), red(2), red(3))}})
	require.ErrorIs(t, err, ErrMeldBelowEntryScore)
	assert.ErrorIs(t, err, ErrInvalidMeld)

	// 6 + 33 = 39
	next, err := engine.ApplyMove(game, "p1", Board{Melds: []Meld{
		NewMeld(red(1), red(2), red(3)),
		NewMeld(blue(10), blue(11), blue(12)),
	}})
	require.NoError(t, err)
	assert.True(t, mustPlayer(t, next, "p1").Entered)
}

func TestEngine_EntryMustNotTouchBoard(t *testing.T) {
	engine, game := startedGame(t, DefaultRules())
	giveTiles(t, game, "p1", blue(10), blue(11), blue(12))
	next, err := engine.ApplyMove(game, "p1", Board{Melds: []Meld{NewMeld(blue(10), blue(11), blue(12))}})
	require.NoError(t, err)

	// p2 尚未入场，不能借用桌面上的牌
	giveTiles(t, next, "p2", blue(13), red(11), red(12), red(13))
	_, err = engine.ApplyMove(next, "p2", Board{Melds: []Meld{
		NewMeld(blue(10), blue(11), blue(12), blue(13)),
		NewMeld(red(11), red(12), red(13)),
	}})
	assert.ErrorIs(t, err, ErrMeldBelowEntryScore)

	after, err := engine.ApplyMove(next, "p2", Board{Melds: []Meld{
		NewMeld(blue(10), blue(11), blue(12)),
		NewMeld(red(11), red(12), red(13)),
	}})
	require.NoError(t, err)
	assert.Len(t, after.Board.Melds, 2)
}

func TestEngine_TimeoutTurn(t *testing.T) {
	engine, game := startedGame(t, DefaultRules())

	next, drawn, err := engine.TimeoutTurn(game)
	require.NoError(t, err)
	require.NotNil(t, drawn)

	assert.Equal(t, 15, mustPlayer(t, next, "p1").Hand.Size())
	assert.Equal(t, 1, next.CurrentTurnIndex)
	assert.NoError(t, next.CheckConservation())
}

func TestEngine_TimeoutTurnEmptyPool(t *testing.T) {
	engine, game := startedGame(t, DefaultRules())
	drainPool(game)

	next, drawn, err := engine.TimeoutTurn(game)
	require.NoError(t, err)
	assert.Nil(t, drawn)
	assert.Equal(t, 1, next.CurrentTurnIndex)
}

func TestEngine_Finish(t *testing.T) {
	engine, game := startedGame(t, DefaultRules())

	ended, err := engine.Finish(game, "p2")
	require.NoError(t, err)
	assert.Equal(t, StateEnded, ended.State)
	assert.Equal(t, "p2", ended.Winner)

	_, _, err = engine.DrawTile(ended, "p1")
	assert.ErrorIs(t, err, ErrGameNotStarted)

	_, err = engine.Finish(ended, "")
	assert.ErrorIs(t, err, ErrGameNotStarted)

	_, err = engine.Finish(game, "stranger")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestEngine_InvariantViolation(t *testing.T) {
	engine, game := startedGame(t, DefaultRules())
	// 模拟代码缺陷：牌凭空消失
	game.Pool.Tiles = game.Pool.Tiles[1:]

	_, _, err := engine.DrawTile(game, "p1")
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func mustPlayer(t *testing.T, game *Game, playerID string) *Player {
	t.Helper()
	p, err := game.Player(playerID)
	require.NoError(t, err)
	return p
}
