package repository

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"

	"github.com/wiz-rd/Rummikub/internal/game/rummikub"
)

// MemoryStore 内存仓库，用于测试和单机运行
// 数据按 JSON 保存，读写都是独立副本
type MemoryStore struct {
	mu    sync.RWMutex
	games map[string][]byte
	hands map[string][]byte
}

// NewMemoryStore 创建内存仓库
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games: make(map[string][]byte),
		hands: make(map[string][]byte),
	}
}

func handKey(gameID, playerID string) string {
	return gameID + "/" + playerID
}

// LoadGame 加载游戏，玩家手牌为 nil
func (s *MemoryStore) LoadGame(ctx context.Context, id string) (*rummikub.Game, error) {
	s.mu.RLock()
	raw, ok := s.games[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrGameNotFound
	}

	var rec gameRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return rec.toGame(), nil
}

// SaveState 保存游戏和 playerIDs 的手牌，先全部编码，再在一次加锁内写入
func (s *MemoryStore) SaveState(ctx context.Context, game *rummikub.Game, playerIDs []string) error {
	raw, err := json.Marshal(newGameRecord(game))
	if err != nil {
		return err
	}
	hands, err := encodeHands(game, playerIDs)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.games[game.ID] = raw
	for _, h := range hands {
		s.hands[handKey(game.ID, h.PlayerID)] = h.Raw
	}
	return nil
}

// LoadHand 加载手牌
func (s *MemoryStore) LoadHand(ctx context.Context, gameID, playerID string) (*rummikub.Hand, error) {
	s.mu.RLock()
	raw, ok := s.hands[handKey(gameID, playerID)]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrHandNotFound
	}
	return DecodeHand(raw)
}

// ListGames 列出玩家参与的游戏，最近更新的在前
func (s *MemoryStore) ListGames(ctx context.Context, playerID string) ([]GameSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]GameSummary, 0)
	for _, raw := range s.games {
		var rec gameRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, err
		}
		if !slices.ContainsFunc(rec.Players, func(p playerRecord) bool { return p.PlayerID == playerID }) {
			continue
		}
		summaries = append(summaries, GameSummary{
			ID:               rec.ID,
			State:            rec.State,
			PlayerCount:      len(rec.Players),
			CurrentTurnIndex: rec.CurrentTurnIndex,
			Winner:           rec.Winner,
			UpdatedAt:        rec.UpdatedAt,
		})
	}

	slices.SortFunc(summaries, func(a, b GameSummary) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return summaries, nil
}

// DeleteGame 删除游戏及其手牌
func (s *MemoryStore) DeleteGame(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[id]; !ok {
		return ErrGameNotFound
	}
	delete(s.games, id)
	prefix := id + "/"
	for k := range s.hands {
		if strings.HasPrefix(k, prefix) {
			delete(s.hands, k)
		}
	}
	return nil
}
