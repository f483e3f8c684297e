package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/wiz-rd/Rummikub/internal/game"
	"github.com/wiz-rd/Rummikub/internal/proto"
)

// EventPublisher 游戏事件发布器，实现 game.Notifier
// 同一个事件的重试使用同一个 EventID，订阅方据此去重
type EventPublisher struct {
	nc         *nats.Conn
	retries    int
	retryDelay time.Duration
	newID      func() string
	logger     *slog.Logger
}

var _ game.Notifier = (*EventPublisher)(nil)

// NewEventPublisher 创建事件发布器，retries 为失败后的重试次数
func NewEventPublisher(nc *nats.Conn, retries int) *EventPublisher {
	if retries < 0 {
		retries = 0
	}
	return &EventPublisher{
		nc:         nc,
		retries:    retries,
		retryDelay: 100 * time.Millisecond,
		newID:      uuid.NewString,
		logger:     slog.Default().With("component", "EventPublisher"),
	}
}

// Notify 发布事件
func (p *EventPublisher) Notify(ctx context.Context, event game.Event) error {
	msg := proto.EventMessage{
		EventID:   p.newID(),
		GameID:    event.GameID,
		Kind:      event.Kind,
		PlayerID:  event.PlayerID,
		TurnIndex: event.TurnIndex,
		At:        event.At,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		p.logger.Error("Failed to marshal event", "error", err)
		return err
	}

	subject := BuildEventSubject(event.GameID)
	for attempt := 0; ; attempt++ {
		err = p.nc.Publish(subject, data)
		if err == nil {
			p.logger.Debug("Published game event", "subject", subject, "kind", event.Kind, "eventId", msg.EventID)
			return nil
		}
		if attempt >= p.retries {
			break
		}

		p.logger.Warn("Failed to publish game event, retrying", "gameId", event.GameID, "attempt", attempt+1, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.retryDelay << attempt):
		}
	}

	p.logger.Error("Failed to publish game event", "gameId", event.GameID, "kind", event.Kind, "error", err)
	return fmt.Errorf("publish %s: %w", subject, err)
}
