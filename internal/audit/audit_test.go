package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestEmitWritesStructuredEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	w := NewWriter(zap.New(core))

	w.Emit(EventAcquire, "build", "simple", zap.String("token", "abc-123"))

	entries := logs.All()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, EventAcquire, e.Message)
	fields := e.ContextMap()
	assert.Equal(t, "build", fields["name"])
	assert.Equal(t, "simple", fields["kind"])
	assert.Equal(t, "abc-123", fields["token"])
}

func TestEmitNilWriterIsNoop(t *testing.T) {
	var w *Writer
	w.Emit(EventDeny, "build", "simple")
}

func TestEmitNilLoggerIsNoop(t *testing.T) {
	w := NewWriter(nil)
	w.Emit(EventDeny, "build", "simple")
}
