// Package logger bridges stdlib log consumers onto structured logging.
package logger

import (
	"context"
	"log"
	"log/slog"
	"strings"
)

// slogWriter forwards each written line as one structured record.
type slogWriter struct {
	logger *slog.Logger
	level  slog.Level
}

func (w slogWriter) Write(p []byte) (int, error) {
	w.logger.Log(context.Background(), w.level, strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// NewStdBridge returns a *log.Logger whose output lands in the structured
// logger at the given level. Useful for APIs that only accept log.Logger,
// such as http.Server.ErrorLog.
func NewStdBridge(logger *slog.Logger, level slog.Level) *log.Logger {
	return log.New(slogWriter{logger: logger, level: level}, "", 0)
}
