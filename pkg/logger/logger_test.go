package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(t *testing.T) (*Logger, *bytes.Buffer) {
	t.Helper()
	l, err := NewLogger(&Config{Level: DebugLevel, Format: "json", AppName: "dispatch", Version: "test"})
	require.NoError(t, err)
	buf := &bytes.Buffer{}
	l.SetOutput(buf)
	return l, buf
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	base, buf := newBufferLogger(t)
	child := base.WithField("accident_id", "a1")

	base.Info("parent")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotContains(t, entry, "accident_id")

	buf.Reset()
	child.Info("child")
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "a1", entry["accident_id"])
	assert.Equal(t, "dispatch", entry["app"])
	assert.Equal(t, "child", entry["message"])
}

func TestWithContextExtractsRequestAndActor(t *testing.T) {
	l, buf := newBufferLogger(t)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithActor(ctx, "u1", "ambulance_driver")
	l.WithContext(ctx).Warn("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "u1", entry["actor_id"])
	assert.Equal(t, "ambulance_driver", entry["actor_role"])
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
}

func TestLogDispatchEvent(t *testing.T) {
	l, buf := newBufferLogger(t)

	l.LogDispatchEvent("a1", "accident_reported", Fields{"trigger_type": "manual"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "dispatch_event", entry["type"])
	assert.Equal(t, "accident_reported", entry["event"])
	assert.Equal(t, "manual", entry["trigger_type"])
}

func TestDiscardAndWithNilError(t *testing.T) {
	l := Discard()
	assert.Same(t, l, l.WithError(nil))
	l.Info("dropped")
}
