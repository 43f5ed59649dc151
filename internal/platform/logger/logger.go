package logger

import (
	"io"
	"os"
	"time"

	"github.com/ogurasousui/company-lifecycle/internal/platform/config"
	"github.com/rs/zerolog"
)

// New は log 設定から zerolog.Logger を構築します。
// pretty が有効な場合は人間向けのコンソール出力になります。
func New(cfg config.LogConfig) zerolog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter は出力先を指定して zerolog.Logger を構築します。
func NewWithWriter(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := w
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "company-lifecycle").
		Logger()
}
