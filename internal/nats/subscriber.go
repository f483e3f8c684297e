package nats

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/wiz-rd/Rummikub/internal/proto"
	"github.com/wiz-rd/Rummikub/pkg/response"
)

// CommandHandler 命令处理器接口
type CommandHandler interface {
	HandleCommand(ctx context.Context, cmd *proto.CommandMessage) *proto.CommandReply
}

// SubscriberConfig Worker Pool 配置
type SubscriberConfig struct {
	WorkerCount int // Worker 数量
	BufferSize  int // 消息缓冲区大小
}

// CommandSubscriber 命令订阅器
// 同一局游戏的命令可能被不同 worker 并发处理，由游戏服务负责串行化
type CommandSubscriber struct {
	nc           *nats.Conn
	handler      CommandHandler
	logger       *slog.Logger
	subscription *nats.Subscription
	config       SubscriberConfig
	msgChan      chan *nats.Msg
	wg           sync.WaitGroup
	cancelFunc   context.CancelFunc
}

// NewCommandSubscriber 创建命令订阅器
func NewCommandSubscriber(nc *nats.Conn, handler CommandHandler, config SubscriberConfig) *CommandSubscriber {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 32
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1024
	}

	return &CommandSubscriber{
		nc:      nc,
		handler: handler,
		logger:  slog.Default().With("component", "CommandSubscriber"),
		config:  config,
	}
}

// Start 启动订阅
func (s *CommandSubscriber) Start(ctx context.Context) error {
	s.msgChan = make(chan *nats.Msg, s.config.BufferSize)

	workerCtx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel

	for i := 0; i < s.config.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(workerCtx)
	}

	// 队列组实现多实例负载均衡
	sub, err := s.nc.QueueSubscribe(SubjectCommand, QueueGroupGame, func(msg *nats.Msg) {
		select {
		case s.msgChan <- msg:
		default:
			// 缓冲区满，直接应答忙，调用方不必等到超时
			s.logger.Warn("Command buffer full, rejecting command", "bufferSize", s.config.BufferSize)
			s.reply(msg, &proto.CommandReply{Code: response.CodeServerError, Message: "server busy"})
		}
	})
	if err != nil {
		cancel()
		return err
	}

	s.subscription = sub
	s.logger.Info("NATS command subscriber started",
		"subject", SubjectCommand,
		"queue", QueueGroupGame,
		"workerCount", s.config.WorkerCount,
		"bufferSize", s.config.BufferSize,
	)
	return nil
}

func (s *CommandSubscriber) worker(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.msgChan:
			if !ok {
				return
			}
			s.handleCommand(ctx, msg)
		}
	}
}

func (s *CommandSubscriber) handleCommand(ctx context.Context, msg *nats.Msg) {
	var cmd proto.CommandMessage
	if err := json.Unmarshal(msg.Data, &cmd); err != nil {
		s.logger.Error("Failed to unmarshal command", "error", err)
		s.reply(msg, &proto.CommandReply{Code: response.CodeInvalidParams, Message: err.Error()})
		return
	}

	reply := s.handler.HandleCommand(ctx, &cmd)
	reply.RequestID = cmd.RequestID
	s.reply(msg, reply)
}

// reply 没有 Reply subject 的消息只处理不应答
func (s *CommandSubscriber) reply(msg *nats.Msg, reply *proto.CommandReply) {
	if msg.Reply == "" {
		return
	}
	data, err := json.Marshal(reply)
	if err != nil {
		s.logger.Error("Failed to marshal reply", "error", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		s.logger.Error("Failed to send reply", "error", err)
	}
}

// Stop 停止订阅
func (s *CommandSubscriber) Stop() error {
	if s.subscription != nil {
		if err := s.subscription.Unsubscribe(); err != nil {
			s.logger.Error("Failed to unsubscribe", "error", err)
		}
	}

	if s.cancelFunc != nil {
		s.cancelFunc()
	}

	s.wg.Wait()

	s.logger.Info("NATS command subscriber stopped")
	return nil
}

// BufferUsage 缓冲区使用情况
func (s *CommandSubscriber) BufferUsage() (current int, capacity int) {
	if s.msgChan == nil {
		return 0, 0
	}
	return len(s.msgChan), cap(s.msgChan)
}
