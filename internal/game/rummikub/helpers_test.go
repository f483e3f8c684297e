package rummikub

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fixedRandom 可控的随机源：Intn 总是返回 next % n，Perm 返回给定排列或恒等排列
type fixedRandom struct {
	next int
	perm []int
}

func (f *fixedRandom) Intn(n int) int {
	return f.next % n
}

func (f *fixedRandom) Perm(n int) []int {
	if f.perm != nil {
		return append([]int(nil), f.perm...)
	}
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return p
}

var testPlayers = []string{"p1", "p2", "p3", "p4"}

func red(n int) Tile    { return NewTile(n, ColorRed) }
func blue(n int) Tile   { return NewTile(n, ColorBlue) }
func black(n int) Tile  { return NewTile(n, ColorBlack) }
func orange(n int) Tile { return NewTile(n, ColorOrange) }
func joker() Tile       { return NewJoker(ColorRed) }

// startedGame 按恒等座位开局，p1..p4 依次为 0..3 号座位
func startedGame(t *testing.T, rules Rules) (*Engine, *Game) {
	t.Helper()

	engine := NewEngine(&fixedRandom{})
	game, err := engine.CreateGame("game-1", rules)
	require.NoError(t, err)

	game, err = engine.Start(game, testPlayers)
	require.NoError(t, err)
	return engine, game
}

// noEntryRules 关闭首次出牌分数要求
func noEntryRules() Rules {
	rules := DefaultRules()
	rules.MinEntryMeldScore = 0
	return rules
}

// giveTiles 保证玩家手中有指定的牌，优先从牌池取，其次从其他玩家手中取，总数不变
func giveTiles(t *testing.T, game *Game, playerID string, tiles ...Tile) {
	t.Helper()

	target, err := game.Player(playerID)
	require.NoError(t, err)

	for _, tile := range tiles {
		if CountTile(target.Hand.Tiles, tile) > 0 {
			continue
		}
		if rest, ok := RemoveTile(game.Pool.Tiles, tile); ok {
			game.Pool.Tiles = rest
			target.Hand.Add(tile)
			continue
		}
		found := false
		for _, p := range game.Players {
			if p.PlayerID == playerID {
				continue
			}
			if p.Hand.Remove(tile) {
				found = true
				break
			}
		}
		require.True(t, found, "tile %s not available", tile)
		target.Hand.Add(tile)
	}
	require.NoError(t, game.CheckConservation())
}

// drainPool 把牌池清空到最后一名玩家手中
func drainPool(game *Game) {
	last := game.Players[len(game.Players)-1]
	last.Hand.Tiles = append(last.Hand.Tiles, game.Pool.Tiles...)
	game.Pool.Tiles = nil
}
