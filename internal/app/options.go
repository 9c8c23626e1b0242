package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/manda2/internal/config"
	"github.com/manda2/internal/logger"

	"go.uber.org/zap"
)

// 启动模式：api 承载 HTTP 与进程内会话，worker 消费销售任务
const (
	ModeAll    = "all"
	ModeAPI    = "api"
	ModeWorker = "worker"
)

// Options 应用启动选项
type Options struct {
	Config          *config.Config
	Logger          *zap.SugaredLogger
	Signals         []os.Signal
	ShutdownTimeout time.Duration
	Mode            string
}

// ParseMode 校验启动模式，空值视为 all
func ParseMode(mode string) (string, error) {
	switch normalized := strings.ToLower(strings.TrimSpace(mode)); normalized {
	case "":
		return ModeAll, nil
	case ModeAll, ModeAPI, ModeWorker:
		return normalized, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want all, api or worker)", mode)
	}
}

func (o Options) servesHTTP() bool {
	return o.Mode == ModeAll || o.Mode == ModeAPI
}

func (o Options) runsWorker() bool {
	return o.Mode == ModeAll || o.Mode == ModeWorker
}

// normalizeOptions 补齐默认参数
func normalizeOptions(opts Options) Options {
	if opts.Logger == nil {
		opts.Logger = logger.S()
	}
	if opts.ShutdownTimeout <= 0 {
		if opts.Config != nil {
			opts.ShutdownTimeout = opts.Config.Server.ShutdownTimeout()
		} else {
			opts.ShutdownTimeout = 10 * time.Second
		}
	}
	if mode, err := ParseMode(opts.Mode); err == nil {
		opts.Mode = mode
	}
	return opts
}
