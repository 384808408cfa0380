package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New arma el logger del proceso: consola legible por defecto, JSON en despliegues.
func New(json bool, debug bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	encoding := "console"
	if json {
		encoding = "json"
	}
	if debug {
		level = zapcore.DebugLevel
	}

	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:   "msg",
			LevelKey:     "level",
			EncodeLevel:  zapcore.LowercaseLevelEncoder,
			TimeKey:      "time",
			EncodeTime:   zapcore.RFC3339TimeEncoder,
			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}
	return cfg.Build()
}

// TruncateForLog recorta a limit runas agregando "..." si corta.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

const (
	FieldConversation = "conversation_id"
	FieldProvider     = "llm_provider"
	FieldModel        = "llm_model"
)

// WithConversation agrega el id de conversacion; tolera logger nil.
func WithConversation(l *zap.Logger, conversationID string) *zap.Logger {
	if l == nil {
		l = zap.NewNop()
	}
	if strings.TrimSpace(conversationID) == "" {
		return l
	}
	return l.With(zap.String(FieldConversation, conversationID))
}
