package app

import (
	"errors"
	"time"

	"github.com/manda2/internal/cache"
	"github.com/manda2/internal/logger"
	"github.com/manda2/internal/provider"
	"github.com/manda2/internal/router"
	"github.com/manda2/internal/worker"
)

// BuildRunner 按启动模式组装服务
func BuildRunner(opts Options) (*Runner, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg)

	var services []Service

	// 会话在进程内，回收任务随 API 进程运行
	if opts.servesHTTP() {
		engine := router.SetupRouter(cfg, container)
		services = append(services,
			NewHTTPService(cfg.Server.Addr(), engine, cfg.Server.ReadHeaderTimeout()),
			worker.NewSessionSweeperService(container.SessionService),
		)
	}

	if opts.runsWorker() {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(&cfg.Queue, consumer)
		switch {
		case err == nil:
			services = append(services, workerService)
		case errors.Is(err, worker.ErrQueueDisabled) && opts.Mode == ModeAll:
			logger.Warnw("app_worker_skip_queue_disabled")
		default:
			container.Close()
			return nil, err
		}
		if cache.Enabled() {
			interval := time.Duration(cfg.Report.WarmupIntervalSeconds) * time.Second
			services = append(services, worker.NewReportWarmupService(container.ReportService, interval))
		}
	}

	if len(services) == 0 {
		container.Close()
		return nil, errors.New("no services initialized (check mode and config)")
	}

	runner := NewRunner(services...)
	runner.OnShutdown(container.Close)
	return runner, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	mode, err := ParseMode(opts.Mode)
	if err != nil {
		return err
	}
	opts.Mode = mode
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "addr", opts.Config.Server.Addr(), "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
