package app

import (
	"context"
	"errors"
	"os/signal"
	"time"

	"go.uber.org/zap"
)

// Service 可启停的后台服务
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Runner 并行运行服务，任一退出即整体停机
type Runner struct {
	services   []Service
	onShutdown []func()
}

// NewRunner 创建服务运行器
func NewRunner(services ...Service) *Runner {
	return &Runner{services: services}
}

// OnShutdown 注册停机钩子，所有服务停止后按注册逆序执行
func (r *Runner) OnShutdown(fn func()) {
	if fn != nil {
		r.onShutdown = append(r.onShutdown, fn)
	}
}

// RunWithOptions 运行服务并处理系统信号
func RunWithOptions(runner *Runner, opts Options) error {
	if runner == nil {
		return errors.New("runner is nil")
	}
	opts = normalizeOptions(opts)
	ctx := context.Background()
	if len(opts.Signals) > 0 {
		var cancel context.CancelFunc
		ctx, cancel = signal.NotifyContext(ctx, opts.Signals...)
		defer cancel()
	}
	return runner.Run(ctx, opts.ShutdownTimeout, opts.Logger)
}

// Run 启动全部服务，等待信号或首个服务退出，然后逆序停止
func (r *Runner) Run(ctx context.Context, stopTimeout time.Duration, log *zap.SugaredLogger) error {
	if r == nil || len(r.services) == 0 {
		return errors.New("no services to run")
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type exit struct {
		name string
		err  error
	}
	exitCh := make(chan exit, len(r.services))
	for _, svc := range r.services {
		if svc == nil {
			exitCh <- exit{name: "unknown", err: errors.New("service is nil")}
			continue
		}
		go func(service Service) {
			log.Infow("service_start", "service", service.Name())
			err := service.Start(ctx)
			log.Infow("service_exit", "service", service.Name(), "error", err)
			exitCh <- exit{name: service.Name(), err: err}
		}(svc)
	}

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case first := <-exitCh:
		runErr = first.err
		if runErr == nil {
			log.Warnw("service_exit_early", "service", first.name)
		}
	}
	cancel()

	if stopTimeout <= 0 {
		stopTimeout = 10 * time.Second
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()
	for i := len(r.services) - 1; i >= 0; i-- {
		svc := r.services[i]
		if svc == nil {
			continue
		}
		if err := svc.Stop(stopCtx); err != nil {
			log.Errorw("service_stop_failed", "service", svc.Name(), "error", err)
		}
	}
	for i := len(r.onShutdown) - 1; i >= 0; i-- {
		r.onShutdown[i]()
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}
