// Package audit emits one structured event per lock-protocol operation.
//
// The teacher (lokt/internal/audit) appends JSONL records to a file that
// survives between invocations. That durability has no analogue here:
// every invocation starts from a fresh clone that is destroyed with the
// process (spec §5), so there is nowhere durable to append to. This
// package instead routes the same event taxonomy to the process's zap
// diagnostic stream, which spec §4.1 already designates as the sink for
// every other piece of forwarded diagnostic output.
package audit

import "go.uber.org/zap"

// Event names, one per protocol outcome spec §4.4 can produce.
const (
	EventDeclare  = "declare"
	EventRemove   = "remove"
	EventAcquire  = "acquire"
	EventDeny     = "deny"
	EventRelease  = "release"
	EventConflict = "conflict"
)

// Writer emits audit events to a zap logger. The zero value is not
// usable; construct with NewWriter.
type Writer struct {
	log *zap.Logger
}

// NewWriter returns a Writer that logs through log. A nil log is
// tolerated and turns every Emit into a no-op, matching the teacher's
// "safe to call with nil auditor" helpers.
func NewWriter(log *zap.Logger) *Writer {
	return &Writer{log: log}
}

// Emit logs one audit event at info level, with name and kind always
// present and any extra fields appended. It never returns an error:
// logging failures must never block a lock operation.
func (w *Writer) Emit(event, name, kind string, fields ...zap.Field) {
	if w == nil || w.log == nil {
		return
	}
	all := append([]zap.Field{zap.String("name", name), zap.String("kind", kind)}, fields...)
	w.log.Info(event, all...)
}
