package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wiz-rd/Rummikub/internal/game/rummikub"
)

func newStartedGame(t *testing.T) *rummikub.Game {
	t.Helper()

	engine := rummikub.NewEngine(rummikub.NewRandom(11))
	game, err := engine.CreateGame("game-1", rummikub.DefaultRules())
	require.NoError(t, err)
	game, err = engine.Start(game, []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	return game
}

func TestMemoryStore_GameRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	game := newStartedGame(t)

	require.NoError(t, store.SaveState(ctx, game, nil))

	loaded, err := store.LoadGame(ctx, "game-1")
	require.NoError(t, err)

	assert.Equal(t, game.State, loaded.State)
	assert.Equal(t, game.Rules, loaded.Rules)
	assert.Equal(t, game.Pool.Tiles, loaded.Pool.Tiles)
	assert.Equal(t, game.CurrentTurnIndex, loaded.CurrentTurnIndex)
	require.Len(t, loaded.Players, 4)
	for i, p := range loaded.Players {
		assert.Equal(t, game.Players[i].PlayerID, p.PlayerID)
		assert.Equal(t, game.Players[i].TurnSlot, p.TurnSlot)
		assert.Nil(t, p.Hand)
	}
	assert.True(t, game.CreatedAt.Equal(loaded.CreatedAt))
}

func TestMemoryStore_LoadedGameIsIndependent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	game := newStartedGame(t)
	require.NoError(t, store.SaveState(ctx, game, nil))

	loaded, err := store.LoadGame(ctx, "game-1")
	require.NoError(t, err)
	loaded.Pool.Tiles = nil

	again, err := store.LoadGame(ctx, "game-1")
	require.NoError(t, err)
	assert.Equal(t, game.PoolSize(), again.PoolSize())
}

func TestMemoryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.LoadGame(ctx, "missing")
	assert.ErrorIs(t, err, ErrGameNotFound)

	_, err = store.LoadHand(ctx, "missing", "a")
	assert.ErrorIs(t, err, ErrHandNotFound)
}

func TestMemoryStore_Hands(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	game := newStartedGame(t)

	require.NoError(t, store.SaveState(ctx, game, []string{"a", "b", "c", "d"}))

	hand, err := store.LoadHand(ctx, game.ID, "b")
	require.NoError(t, err)
	assert.Equal(t, game.Players[1].Hand, hand)
}

func TestMemoryStore_StringEncodedHand(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	putRawHand(store, "game-1", "a", []byte(`"{\"owner_id\":\"a\",\"tiles\":[],\"score\":0}"`))

	hand, err := store.LoadHand(ctx, "game-1", "a")
	require.NoError(t, err)
	assert.Equal(t, "a", hand.OwnerID)
}

// putRawHand 写入原始手牌数据，模拟历史数据
func putRawHand(s *MemoryStore, gameID, playerID string, raw []byte) {
	s.mu.Lock()
	s.hands[handKey(gameID, playerID)] = raw
	s.mu.Unlock()
}

func TestMemoryStore_SaveStateIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	game := newStartedGame(t)
	require.NoError(t, store.SaveState(ctx, game, []string{"a", "b", "c", "d"}))

	// 摸一张牌，但其中一个手牌无法写入
	next := game.Clone()
	tile, err := next.Pool.Draw(rummikub.NewRandom(1))
	require.NoError(t, err)
	next.Players[0].Hand.Add(tile)
	next.CurrentTurnIndex++
	next.Players[1].Hand = nil

	err = store.SaveState(ctx, next, []string{"a", "b"})
	assert.ErrorIs(t, err, ErrInvalidHand)

	loaded, err := store.LoadGame(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.CurrentTurnIndex)
	assert.Equal(t, game.PoolSize(), loaded.PoolSize())
	hand, err := store.LoadHand(ctx, game.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, game.Players[0].Hand.Tiles, hand.Tiles)

	err = store.SaveState(ctx, next, []string{"nobody"})
	assert.ErrorIs(t, err, rummikub.ErrPlayerNotFound)
}

func TestMemoryStore_ListGames(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	older := newStartedGame(t)
	older.ID = "older"
	require.NoError(t, store.SaveState(ctx, older, nil))

	newer := newStartedGame(t)
	newer.ID = "newer"
	newer.UpdatedAt = older.UpdatedAt.Add(time.Minute)
	require.NoError(t, store.SaveState(ctx, newer, nil))

	other := newStartedGame(t)
	other.ID = "other"
	other.Players[0].PlayerID = "z"
	require.NoError(t, store.SaveState(ctx, other, nil))

	games, err := store.ListGames(ctx, "a")
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "newer", games[0].ID)
	assert.Equal(t, "older", games[1].ID)
	assert.Equal(t, 4, games[0].PlayerCount)
	assert.Equal(t, rummikub.StateOngoing, games[0].State)

	games, err = store.ListGames(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestMemoryStore_DeleteGame(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	game := newStartedGame(t)
	require.NoError(t, store.SaveState(ctx, game, []string{"a"}))

	require.NoError(t, store.DeleteGame(ctx, game.ID))

	_, err := store.LoadGame(ctx, game.ID)
	assert.ErrorIs(t, err, ErrGameNotFound)
	_, err = store.LoadHand(ctx, game.ID, "a")
	assert.ErrorIs(t, err, ErrHandNotFound)

	assert.ErrorIs(t, store.DeleteGame(ctx, game.ID), ErrGameNotFound)
}
