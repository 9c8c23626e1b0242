package worker

import (
	"context"
	"errors"

	"github.com/manda2/internal/config"
	"github.com/manda2/internal/logger"
	"github.com/manda2/internal/queue"

	"github.com/hibiken/asynq"
)

// ErrQueueDisabled 队列未启用
var ErrQueueDisabled = errors.New("queue disabled")

// Service 销售任务消费服务
type Service struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	queues map[string]int
}

// NewService 创建消费服务并注册销售任务处理器
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, ErrQueueDisabled
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		server: asynq.NewServer(opt, serverCfg),
		mux:    mux,
		queues: serverCfg.Queues,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	return "worker"
}

// Start 启动消费并阻塞到 ctx 取消，信号由上层 Runner 统一处理
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	logger.Infow("worker_consuming", "queues", s.queues)
	<-ctx.Done()
	return nil
}

// Stop 等待进行中的任务完成后退出
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.server.Shutdown()
	return nil
}
