package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithAttachesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	var l Logger = &zapLogger{logger: zap.New(core)}

	scoped := l.With(String("source", "stdin"), String("date", "2025-11-25"))
	scoped.Info("Processing newsletter", String("subject", "Money Stuff"))
	l.Info("Unscoped")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, map[string]interface{}{
		"source":  "stdin",
		"date":    "2025-11-25",
		"subject": "Money Stuff",
	}, entries[0].ContextMap())
	assert.Empty(t, entries[1].ContextMap())
}

func TestNopWith(t *testing.T) {
	l := NewNop()
	assert.Same(t, l, l.With(String("k", "v")))
}
