package worker

import (
	"context"
	"time"

	"github.com/manda2/internal/logger"
	"github.com/manda2/internal/service"
)

const (
	defaultLoopInterval    = time.Minute
	sessionSweepInterval   = time.Minute
	defaultReportWarmupGap = 5 * time.Minute
)

// LoopService 按固定间隔执行的后台任务，ctx 取消后退出
type LoopService struct {
	name      string
	interval  time.Duration
	immediate bool
	run       func(ctx context.Context) error
}

// NewLoopService 创建周期任务服务
func NewLoopService(name string, interval time.Duration, immediate bool, run func(ctx context.Context) error) *LoopService {
	if interval <= 0 {
		interval = defaultLoopInterval
	}
	return &LoopService{
		name:      name,
		interval:  interval,
		immediate: immediate,
		run:       run,
	}
}

// NewSessionSweeperService 定期回收空闲会话
func NewSessionSweeperService(sessions *service.SessionService) *LoopService {
	return NewLoopService("session_sweeper", sessionSweepInterval, false, func(ctx context.Context) error {
		if removed := sessions.Sweep(time.Now()); removed > 0 {
			logger.Infow("session_sweep_done", "removed", removed, "remaining", sessions.Count())
		}
		return nil
	})
}

// NewReportWarmupService 定期预热本月报表缓存
func NewReportWarmupService(reports *service.ReportService, interval time.Duration) *LoopService {
	if interval <= 0 {
		interval = defaultReportWarmupGap
	}
	return NewLoopService("report_warmup", interval, true, reports.Warmup)
}

// Name 服务名称
func (s *LoopService) Name() string {
	if s == nil || s.name == "" {
		return "loop"
	}
	return s.name
}

// Start 启动循环，阻塞直到 ctx 取消
func (s *LoopService) Start(ctx context.Context) error {
	if s == nil || s.run == nil {
		return nil
	}
	if s.immediate {
		s.runOnce(ctx)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// Stop 停止服务（由 Start 的 ctx 控制退出）
func (s *LoopService) Stop(ctx context.Context) error {
	_ = ctx
	return nil
}

func (s *LoopService) runOnce(ctx context.Context) {
	if err := s.run(ctx); err != nil {
		logger.Warnw("worker_loop_run_failed", "service", s.Name(), "error", err)
	}
}
