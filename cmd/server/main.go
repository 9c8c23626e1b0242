package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"github.com/manda2/internal/app"
	"github.com/manda2/internal/config"
	"github.com/manda2/internal/logger"
	"github.com/manda2/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiDim    = "\033[2m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

func main() {
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	mode, err := app.ParseMode(mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()
	printStartupBanner(mode, cfg)

	checkSecrets(cfg, stdLog)

	if err := initDatabase(cfg); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

// checkSecrets 发布模式下拒绝弱密钥，其余模式仅告警
func checkSecrets(cfg *config.Config, stdLog *log.Logger) {
	secrets := []struct {
		name  string
		value string
	}{
		{name: "operator_jwt", value: cfg.OperatorJWT.SecretKey},
		{name: "user_jwt", value: cfg.UserJWT.SecretKey},
	}
	for _, secret := range secrets {
		if !isWeakSecret(secret.value) {
			continue
		}
		if cfg.Server.Mode == "release" {
			stdLog.Fatalf("%s secret 过弱或仍为默认值，请在生产环境中配置强随机密钥", secret.name)
		}
		stdLog.Printf("警告: %s secret 过弱或仍为默认值，建议在生产环境中更换", secret.name)
	}
}

// initDatabase 连接数据库、迁移表结构并确保存在默认操作员
func initDatabase(cfg *config.Config) error {
	if err := models.InitDB(cfg.Database); err != nil {
		return err
	}
	if err := models.AutoMigrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	operator, err := models.InitDefaultOperator(os.Getenv("MANDA2_DEFAULT_OPERATOR"))
	if err != nil {
		logger.Warnw("default_operator_init_failed", "error", err)
		return nil
	}
	logger.Infow("default_operator_ready", "username", operator.Username)
	return nil
}

func printStartupBanner(mode string, cfg *config.Config) {
	fmt.Println(ansiCyan + "███╗   ███╗ █████╗ ███╗   ██╗██████╗  █████╗ ██████╗ " + ansiReset)
	fmt.Println(ansiCyan + "████╗ ████║██╔══██╗████╗  ██║██╔══██╗██╔══██╗╚════██╗" + ansiReset)
	fmt.Println(ansiCyan + "██╔████╔██║███████║██╔██╗ ██║██║  ██║███████║ █████╔╝" + ansiReset)
	fmt.Println(ansiCyan + "██║╚██╔╝██║██╔══██║██║╚██╗██║██║  ██║██╔══██║██╔═══╝ " + ansiReset)
	fmt.Println(ansiCyan + "██║ ╚═╝ ██║██║  ██║██║ ╚████║██████╔╝██║  ██║███████╗" + ansiReset)
	fmt.Println(ansiCyan + "╚═╝     ╚═╝╚═╝  ╚═╝╚═╝  ╚═══╝╚═════╝ ╚═╝  ╚═╝╚══════╝" + ansiReset)
	fmt.Println(ansiGreen + ansiBold + "mode: " + mode + ansiReset)
	fmt.Println(ansiYellow + "addr: " + cfg.Server.Addr() + "  source: " + cfg.Checkout.SourceTag + ansiReset)
	fmt.Println(ansiDim + "--------------------------------------------------------------" + ansiReset)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	for _, marker := range []string{"change-me", "change-in-production", "your-secret-key"} {
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	return false
}
