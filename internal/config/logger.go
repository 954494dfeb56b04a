// internal/config/logger.go
//
// 依設定建立 slog.Logger；不修改全域 logger，由 main 決定是否 SetDefault。
package config

import (
	"io"
	"log/slog"
)

// Logger 依 LogLevel 與 LogFormat 建立 logger。未知等級一律視為 info。
func (c Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch c.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if c.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
