package emit

import (
	"go.uber.org/zap"
)

// ZapEmitter implements Emitter by forwarding events to a zap logger.
//
// Events become structured log entries with run_id, step and stage fields,
// plus one field per Meta entry. Events carrying an "error" meta key are
// logged at Error level, everything else at Info.
//
// Usage:
//
//	logger, _ := zap.NewProduction()
//	emitter := emit.NewZapEmitter(logger)
//	engine := brain.New(reducer, store, emitter, opts)
type ZapEmitter struct {
	logger *zap.Logger
}

// NewZapEmitter creates a ZapEmitter. A nil logger falls back to zap.NewNop.
func NewZapEmitter(logger *zap.Logger) *ZapEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapEmitter{logger: logger}
}

// Emit logs the event through the configured zap logger.
func (z *ZapEmitter) Emit(event Event) {
	fields := make([]zap.Field, 0, 3+len(event.Meta))
	fields = append(fields,
		zap.String("run_id", event.RunID),
		zap.Int("step", event.Step),
		zap.String("stage", event.Stage),
	)

	isErr := false
	for key, value := range event.Meta {
		if key == "error" {
			isErr = true
		}
		fields = append(fields, zap.Any(key, value))
	}

	if isErr {
		z.logger.Error(event.Msg, fields...)
		return
	}
	z.logger.Info(event.Msg, fields...)
}
