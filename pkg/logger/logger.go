package logger

import (
	"io"
	"log/slog"
	"os"
)

func NewHandler(w io.Writer, level slog.Level) slog.Handler {
	return &RequestIDHandler{Handler: slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})}
}

func InitLogger() {
	slog.SetDefault(slog.New(NewHandler(os.Stdout, slog.LevelInfo)))
}
