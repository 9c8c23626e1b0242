package logger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestResolveLogFilePathDefaultDir(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWD)
	})
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	got, err := resolveLogFilePath(Options{})
	if err != nil {
		t.Fatalf("resolve default log path failed: %v", err)
	}

	realTmpDir, err := filepath.EvalSymlinks(tmpDir)
	if err != nil {
		t.Fatalf("resolve tmp dir symlink failed: %v", err)
	}
	realGot, err := filepath.EvalSymlinks(filepath.Dir(got))
	if err != nil {
		t.Fatalf("resolve got dir symlink failed: %v", err)
	}
	expectedDir := filepath.Join(realTmpDir, defaultLogDirName)
	if realGot != expectedDir {
		t.Fatalf("unexpected log dir: got=%s expected=%s", realGot, expectedDir)
	}
	if filepath.Base(got) != defaultLogFilename {
		t.Fatalf("unexpected log filename: %s", filepath.Base(got))
	}
	if _, err := os.Stat(filepath.Dir(got)); err != nil {
		t.Fatalf("expected log dir to be created: %v", err)
	}
}

func TestNewReleaseWritesToConfiguredFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Options{
		Dir:      tmpDir,
		Filename: "release.log",
	}
	log := New("release", cfg)
	log.Info("release-log-test")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "release.log"))
	if err != nil {
		t.Fatalf("read release log failed: %v", err)
	}
	if !strings.Contains(string(content), "release-log-test") {
		t.Fatalf("expected log content to contain message, got=%s", string(content))
	}
	if !strings.Contains(string(content), `"service":"manda2"`) {
		t.Fatalf("expected service field, got=%s", string(content))
	}
}

func TestNewRespectsConfiguredLevel(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Dir: tmpDir, Filename: "level.log", Level: "warn"})
	log.Info("info-hidden")
	log.Warn("warn-visible")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "level.log"))
	if err != nil {
		t.Fatalf("read level log failed: %v", err)
	}
	text := string(content)
	if strings.Contains(text, "info-hidden") || !strings.Contains(text, "warn-visible") {
		t.Fatalf("warn level should drop info entries, got=%s", text)
	}
}

func TestResolveLevel(t *testing.T) {
	if got := resolveLevel("", true).Level(); got != zapcore.DebugLevel {
		t.Fatalf("debug mode default want debug, got %s", got)
	}
	if got := resolveLevel("", false).Level(); got != zapcore.InfoLevel {
		t.Fatalf("release default want info, got %s", got)
	}
	if got := resolveLevel("ERROR", true).Level(); got != zapcore.ErrorLevel {
		t.Fatalf("explicit level should win, got %s", got)
	}
	if got := resolveLevel("verbose", false).Level(); got != zapcore.InfoLevel {
		t.Fatalf("invalid level should fall back, got %s", got)
	}
}

func TestNewDebugDoesNotWriteFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Options{
		Dir:      tmpDir,
		Filename: "debug.log",
	}
	log := New("debug", cfg)
	log.Info("debug-log-test")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(tmpDir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create log file")
	}
}

func TestFromContextCarriesFields(t *testing.T) {
	tmpDir := t.TempDir()
	L = New("release", Options{Dir: tmpDir, Filename: "ctx.log"})
	t.Cleanup(func() { L = nil })

	ctx := IntoContext(context.Background(), "request_id", "req-42")
	ctx = IntoContext(ctx, "session_id", "sess-7")
	FromContext(ctx).Infow("order_created", "sale_id", 9)
	_ = L.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "ctx.log"))
	if err != nil {
		t.Fatalf("read ctx log failed: %v", err)
	}
	text := string(content)
	for _, want := range []string{"req-42", "sess-7", "order_created"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected log to contain %q, got=%s", want, text)
		}
	}
}

func TestFromContextWithoutLoggerFallsBack(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatalf("expected fallback sugared logger")
	}
	var empty context.Context
	if FromContext(empty) == nil {
		t.Fatalf("expected fallback sugared logger for nil context")
	}
}
