package game

import (
	"context"
	"time"
)

// EventKind 游戏事件类型
type EventKind string

const (
	EventGameCreated  EventKind = "GAME_CREATED"
	EventGameStarted  EventKind = "GAME_STARTED"
	EventTileDrawn    EventKind = "TILE_DRAWN"
	EventMoveApplied  EventKind = "MOVE_APPLIED"
	EventTurnTimedOut EventKind = "TURN_TIMED_OUT"
	EventGameEnded    EventKind = "GAME_ENDED"
	EventGameDeleted  EventKind = "GAME_DELETED"
)

// Event 游戏事件，不包含牌面，订阅方需要细节时自行查询
type Event struct {
	GameID    string    `json:"game_id"`
	Kind      EventKind `json:"kind"`
	PlayerID  string    `json:"player_id,omitempty"`
	TurnIndex int       `json:"turn_index"`
	At        time.Time `json:"at"`
}

// Notifier 事件通知，至少一次投递
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// NopNotifier 丢弃所有事件
type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, event Event) error { return nil }
