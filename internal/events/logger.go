package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"go.uber.org/zap"
)

// ZapLoggerAdapter routes watermill's logging into the process zap logger.
type ZapLoggerAdapter struct {
	l *zap.SugaredLogger
}

var _ watermill.LoggerAdapter = (*ZapLoggerAdapter)(nil)

func NewZapLoggerAdapter(l *zap.SugaredLogger) *ZapLoggerAdapter {
	return &ZapLoggerAdapter{l: l}
}

func fieldsToKV(fields watermill.LogFields) []interface{} {
	kv := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return kv
}

func (a *ZapLoggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.l.Errorw(msg, append(fieldsToKV(fields), "error", err)...)
}

func (a *ZapLoggerAdapter) Info(msg string, fields watermill.LogFields) {
	a.l.Infow(msg, fieldsToKV(fields)...)
}

func (a *ZapLoggerAdapter) Debug(msg string, fields watermill.LogFields) {
	a.l.Debugw(msg, fieldsToKV(fields)...)
}

// Trace is too chatty for anything but local debugging, so it maps to debug.
func (a *ZapLoggerAdapter) Trace(msg string, fields watermill.LogFields) {
	a.l.Debugw(msg, fieldsToKV(fields)...)
}

func (a *ZapLoggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &ZapLoggerAdapter{l: a.l.With(fieldsToKV(fields)...)}
}
