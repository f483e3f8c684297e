package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wiz-rd/Rummikub/internal/game/rummikub"
	"github.com/wiz-rd/Rummikub/internal/repository"
	"github.com/wiz-rd/Rummikub/internal/task"
)

// Store 游戏仓库，在每局游戏的临界区内调用
// SaveState 必须原子地写入游戏和 playerIDs 的手牌，失败时仓库保持原状
type Store interface {
	LoadGame(ctx context.Context, id string) (*rummikub.Game, error)
	LoadHand(ctx context.Context, gameID, playerID string) (*rummikub.Hand, error)
	SaveState(ctx context.Context, game *rummikub.Game, playerIDs []string) error
	ListGames(ctx context.Context, playerID string) ([]repository.GameSummary, error)
	DeleteGame(ctx context.Context, id string) error
}

const (
	defaultNotifyQueueSize = 1024
	notifyTimeout          = 10 * time.Second
)

// Locker 跨实例的游戏锁
type Locker interface {
	Acquire(ctx context.Context, gameID string) (release func(context.Context) error, err error)
}

// TurnTimer 回合计时器
type TurnTimer interface {
	AddTask(t *task.Task) error
	RemoveTask(taskID string) error
}

// Option 服务选项
type Option func(*GameService)

// WithLocker 使用分布式锁，同时关闭本地缓存，每次操作都从仓库重新加载
func WithLocker(locker Locker) Option {
	return func(s *GameService) { s.locker = locker }
}

// WithNotifier 设置事件通知
func WithNotifier(notifier Notifier) Option {
	return func(s *GameService) { s.notifier = notifier }
}

// WithTurnTimer 设置回合计时器，tick 为计时器每一格的时长
func WithTurnTimer(timer TurnTimer, tick time.Duration) Option {
	return func(s *GameService) {
		s.timer = timer
		s.tick = tick
	}
}

// WithNotifyQueue 设置事件队列长度，队列满时丢弃事件
func WithNotifyQueue(size int) Option {
	return func(s *GameService) {
		if size > 0 {
			s.notifyQueueSize = size
		}
	}
}

// WithIDGenerator 设置游戏ID生成器
func WithIDGenerator(fn func() string) Option {
	return func(s *GameService) { s.newID = fn }
}

// WithDefaultRules 设置创建游戏时的默认规则
func WithDefaultRules(rules rummikub.Rules) Option {
	return func(s *GameService) { s.defaultRules = rules }
}

// GameService 游戏服务
// 每个修改操作都是一次读-校验-写临界区：本地锁 -> 分布式锁 -> 加载 -> 引擎 -> 保存 -> 提交缓存 -> 解锁
// 计时器在解锁之后设置，事件交给后台协程投递，不阻塞请求
type GameService struct {
	engine       *rummikub.Engine
	store        Store
	manager      *GameManager
	locker       Locker
	notifier     Notifier
	timer        TurnTimer
	tick         time.Duration
	newID        func() string
	defaultRules rummikub.Rules
	logger       *slog.Logger

	notifyQueueSize int
	notifyQueue     chan notification
	notifyDone      chan struct{}
	notifyMu        sync.RWMutex
	closed          bool
}

// notification 待投递的事件，flushed 不为空时只是一个刷新标记
type notification struct {
	event   Event
	flushed chan struct{}
}

// NewGameService 创建游戏服务
func NewGameService(engine *rummikub.Engine, store Store, manager *GameManager, opts ...Option) *GameService {
	s := &GameService{
		engine:       engine,
		store:        store,
		manager:      manager,
		notifier:     NopNotifier{},
		tick:         time.Second,
		newID:        uuid.NewString,
		defaultRules: rummikub.DefaultRules(),
		logger:       slog.Default().With("component", "GameService"),

		notifyQueueSize: defaultNotifyQueueSize,
		notifyDone:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.notifyQueue = make(chan notification, s.notifyQueueSize)
	go s.notifyLoop()

	return s
}

// outcome 一次修改操作的结果
type outcome struct {
	game       *rummikub.Game
	touched    []string // 需要保存手牌的玩家
	events     []Event
	settlement *Settlement
	drawn      *rummikub.Tile
}

// DefaultRules 创建游戏的默认规则
func (s *GameService) DefaultRules() rummikub.Rules {
	return s.defaultRules
}

// CreateGame 创建游戏，rules 为 nil 时使用默认规则
func (s *GameService) CreateGame(ctx context.Context, rules *rummikub.Rules) (*rummikub.Game, error) {
	r := s.defaultRules
	if rules != nil {
		r = *rules
	}

	id := s.newID()
	out, err := s.mutate(ctx, id, true, func(_ *rummikub.Game) (*outcome, error) {
		game, err := s.engine.CreateGame(id, r)
		if err != nil {
			return nil, err
		}
		return &outcome{
			game:   game,
			events: []Event{{Kind: EventGameCreated}},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return out.game.Clone(), nil
}

// StartGame 开局
func (s *GameService) StartGame(ctx context.Context, gameID string, playerIDs []string) (*rummikub.Game, error) {
	out, err := s.mutate(ctx, gameID, false, func(game *rummikub.Game) (*outcome, error) {
		next, err := s.engine.Start(game, playerIDs)
		if err != nil {
			return nil, err
		}
		return &outcome{
			game:    next,
			touched: playerIDs,
			events:  []Event{{Kind: EventGameStarted}},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return out.game.Clone(), nil
}

// DrawTile 摸牌
func (s *GameService) DrawTile(ctx context.Context, gameID, playerID string) (*rummikub.Game, rummikub.Tile, error) {
	out, err := s.mutate(ctx, gameID, false, func(game *rummikub.Game) (*outcome, error) {
		next, tile, err := s.engine.DrawTile(game, playerID)
		if err != nil {
			return nil, err
		}
		return &outcome{
			game:    next,
			touched: []string{playerID},
			events:  []Event{{Kind: EventTileDrawn, PlayerID: playerID}},
			drawn:   &tile,
		}, nil
	})
	if err != nil {
		return nil, rummikub.Tile{}, err
	}
	return out.game.Clone(), *out.drawn, nil
}

// ApplyMove 出牌，出完手牌时直接结算结束游戏，此时返回结算结果
func (s *GameService) ApplyMove(ctx context.Context, gameID, playerID string, board rummikub.Board) (*rummikub.Game, *Settlement, error) {
	out, err := s.mutate(ctx, gameID, false, func(game *rummikub.Game) (*outcome, error) {
		next, err := s.engine.ApplyMove(game, playerID, board)
		if err != nil {
			return nil, err
		}
		res := &outcome{
			game:    next,
			touched: []string{playerID},
			events:  []Event{{Kind: EventMoveApplied, PlayerID: playerID}},
		}

		player, _ := next.Player(playerID)
		if player.Hand.Size() > 0 {
			return res, nil
		}

		ended, err := s.engine.Finish(next, playerID)
		if err != nil {
			return nil, err
		}
		res.game = ended
		res.settlement = Settle(ended)
		res.touched = playerIDs(ended)
		res.events = append(res.events, Event{Kind: EventGameEnded, PlayerID: ended.Winner})
		return res, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out.game.Clone(), out.settlement, nil
}

// ValidateMeld 单独校验牌组，供客户端预检
func (s *GameService) ValidateMeld(tiles []rummikub.Tile, bounds rummikub.Bounds) (rummikub.Meld, error) {
	return rummikub.ValidateMeld(tiles, bounds)
}

// EndGame 结束游戏并结算
func (s *GameService) EndGame(ctx context.Context, gameID string) (*Settlement, error) {
	out, err := s.mutate(ctx, gameID, false, func(game *rummikub.Game) (*outcome, error) {
		ended, err := s.engine.Finish(game, "")
		if err != nil {
			return nil, err
		}
		settlement := Settle(ended)
		return &outcome{
			game:       ended,
			touched:    playerIDs(ended),
			events:     []Event{{Kind: EventGameEnded, PlayerID: ended.Winner}},
			settlement: settlement,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return out.settlement, nil
}

// HandleTurnTimeout 回合超时，turnIndex 已经过去时什么都不做
func (s *GameService) HandleTurnTimeout(ctx context.Context, gameID string, turnIndex int) error {
	_, err := s.mutate(ctx, gameID, false, func(game *rummikub.Game) (*outcome, error) {
		if game.State != rummikub.StateOngoing || game.CurrentTurnIndex != turnIndex {
			return nil, nil
		}

		current := game.CurrentPlayer()
		next, drawn, err := s.engine.TimeoutTurn(game)
		if err != nil {
			return nil, err
		}
		return &outcome{
			game:    next,
			touched: []string{current.PlayerID},
			events:  []Event{{Kind: EventTurnTimedOut, PlayerID: current.PlayerID}},
			drawn:   drawn,
		}, nil
	})
	return err
}

// ListGames 列出玩家参与的游戏
func (s *GameService) ListGames(ctx context.Context, playerID string) ([]repository.GameSummary, error) {
	return s.store.ListGames(ctx, playerID)
}

// DeleteGame 删除游戏，同时移除注册项并取消回合计时
func (s *GameService) DeleteGame(ctx context.Context, gameID string) error {
	err := s.withLock(ctx, gameID, func(entry *Entry) error {
		if _, err := s.load(ctx, entry); err != nil {
			return err
		}
		if err := s.store.DeleteGame(ctx, gameID); err != nil {
			entry.Invalidate()
			if errors.Is(err, repository.ErrGameNotFound) {
				return ErrGameNotFound.WithContext("gameId", gameID)
			}
			return fmt.Errorf("delete game %s: %w", gameID, err)
		}
		s.manager.Remove(entry)
		return nil
	})
	if err != nil {
		return err
	}

	s.cancelTurnTimer(gameID)
	s.enqueue(Event{GameID: gameID, Kind: EventGameDeleted, At: time.Now()})
	return nil
}

// GetGame 获取游戏
func (s *GameService) GetGame(ctx context.Context, gameID string) (*rummikub.Game, error) {
	entry := s.manager.Lock(gameID)
	defer entry.Unlock()

	game, err := s.load(ctx, entry)
	if err != nil {
		return nil, err
	}
	return game.Clone(), nil
}

// GetHand 获取玩家手牌
func (s *GameService) GetHand(ctx context.Context, gameID, playerID string) (*rummikub.Hand, error) {
	game, err := s.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	player, err := game.Player(playerID)
	if err != nil {
		return nil, err
	}
	return player.Hand, nil
}

// mutate 执行一次临界区，fn 返回 nil outcome 表示无需修改
func (s *GameService) mutate(ctx context.Context, gameID string, create bool, fn func(game *rummikub.Game) (*outcome, error)) (*outcome, error) {
	out, err := s.critical(ctx, gameID, create, fn)
	if err != nil || out == nil {
		return out, err
	}

	// 以下在锁外执行
	for _, ev := range out.events {
		ev.GameID = gameID
		ev.TurnIndex = out.game.CurrentTurnIndex
		ev.At = out.game.UpdatedAt
		s.enqueue(ev)
	}
	s.armTurnTimer(out.game)

	return out, nil
}

// withLock 持有本地锁和分布式锁执行 fn
func (s *GameService) withLock(ctx context.Context, gameID string, fn func(entry *Entry) error) error {
	entry := s.manager.Lock(gameID)
	defer entry.Unlock()

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, gameID)
		if err != nil {
			return ErrGameBusy.WithCause(err).WithContext("gameId", gameID)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("Failed to release game lock", "gameId", gameID, "error", err)
			}
		}()
	}

	return fn(entry)
}

func (s *GameService) critical(ctx context.Context, gameID string, create bool, fn func(game *rummikub.Game) (*outcome, error)) (*outcome, error) {
	var result *outcome
	err := s.withLock(ctx, gameID, func(entry *Entry) error {
		var current *rummikub.Game
		if !create {
			game, err := s.load(ctx, entry)
			if err != nil {
				return err
			}
			current = game
		}

		out, err := fn(current)
		if err != nil || out == nil {
			return err
		}

		// 游戏和手牌一次写入，失败时仓库仍是上一次提交的状态
		if err := s.store.SaveState(ctx, out.game, out.touched); err != nil {
			entry.Invalidate()
			s.logger.Error("Failed to save game", "gameId", gameID, "error", err)
			return fmt.Errorf("save game %s: %w", gameID, err)
		}

		if out.game.State == rummikub.StateEnded {
			s.manager.Remove(entry)
		} else {
			entry.Commit(out.game)
		}
		result = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// load 读取游戏，没有分布式锁时优先使用缓存
func (s *GameService) load(ctx context.Context, entry *Entry) (*rummikub.Game, error) {
	if s.locker == nil {
		if cached := entry.Cached(); cached != nil {
			return cached, nil
		}
	}

	game, err := s.store.LoadGame(ctx, entry.ID())
	if err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			return nil, ErrGameNotFound.WithContext("gameId", entry.ID())
		}
		return nil, fmt.Errorf("load game %s: %w", entry.ID(), err)
	}

	for _, p := range game.Players {
		hand, err := s.store.LoadHand(ctx, game.ID, p.PlayerID)
		if err != nil {
			return nil, fmt.Errorf("load hand %s/%s: %w", game.ID, p.PlayerID, err)
		}
		p.Hand = hand
	}

	if game.State != rummikub.StateEnded {
		entry.Commit(game)
	}
	return game, nil
}

// armTurnTimer 为当前回合重新设置超时任务
func (s *GameService) armTurnTimer(game *rummikub.Game) {
	if s.timer == nil || game.Rules.TurnTimeLimit <= 0 {
		return
	}

	taskID := turnTaskID(game.ID)
	if game.State != rummikub.StateOngoing {
		s.cancelTurnTimer(game.ID)
		return
	}

	delay := int(time.Duration(game.Rules.TurnTimeLimit) * time.Second / s.tick)
	delay = max(1, min(delay, task.SlotCount))

	turnIndex := game.CurrentTurnIndex
	t := task.NewTask(taskID, game.ID, delay, func(ctx context.Context, target string, metadata map[string]any) error {
		return s.HandleTurnTimeout(ctx, target, turnIndex)
	}).WithMetadata("turnIndex", turnIndex)

	if err := s.timer.AddTask(t); err != nil {
		s.logger.Warn("Failed to arm turn timer", "gameId", game.ID, "error", err)
	}
}

// cancelTurnTimer 取消回合计时，任务不存在时忽略
func (s *GameService) cancelTurnTimer(gameID string) {
	if s.timer == nil {
		return
	}
	if err := s.timer.RemoveTask(turnTaskID(gameID)); err != nil && !errors.Is(err, task.ErrTaskNotFound) {
		s.logger.Warn("Failed to cancel turn timer", "gameId", gameID, "error", err)
	}
}

func turnTaskID(gameID string) string {
	return "turn:" + gameID
}

// enqueue 事件入队，队列满或服务已关闭时丢弃
func (s *GameService) enqueue(ev Event) {
	s.notifyMu.RLock()
	defer s.notifyMu.RUnlock()

	if s.closed {
		s.logger.Warn("Dropped game event after close", "gameId", ev.GameID, "kind", ev.Kind)
		return
	}
	select {
	case s.notifyQueue <- notification{event: ev}:
	default:
		s.logger.Warn("Notify queue full, dropped game event", "gameId", ev.GameID, "kind", ev.Kind)
	}
}

// notifyLoop 按入队顺序逐个投递事件
func (s *GameService) notifyLoop() {
	defer close(s.notifyDone)

	for n := range s.notifyQueue {
		if n.flushed != nil {
			close(n.flushed)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		if err := s.notifier.Notify(ctx, n.event); err != nil {
			s.logger.Warn("Failed to notify game event", "gameId", n.event.GameID, "kind", n.event.Kind, "error", err)
		}
		cancel()
	}
}

// Flush 等待此前入队的事件全部投递完成
func (s *GameService) Flush(ctx context.Context) error {
	s.notifyMu.RLock()
	if s.closed {
		s.notifyMu.RUnlock()
		return nil
	}
	flushed := make(chan struct{})
	select {
	case s.notifyQueue <- notification{flushed: flushed}:
		s.notifyMu.RUnlock()
	case <-ctx.Done():
		s.notifyMu.RUnlock()
		return ctx.Err()
	}

	select {
	case <-flushed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close 停止接收事件，等待队列中的事件投递完成
func (s *GameService) Close(ctx context.Context) error {
	s.notifyMu.Lock()
	if !s.closed {
		s.closed = true
		close(s.notifyQueue)
	}
	s.notifyMu.Unlock()

	select {
	case <-s.notifyDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func playerIDs(game *rummikub.Game) []string {
	ids := make([]string, len(game.Players))
	for i, p := range game.Players {
		ids[i] = p.PlayerID
	}
	return ids
}
