package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_DisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	assert.False(t, IsEnabled())
	assert.NoError(t, shutdown(context.Background()))

	// Spans still work, they just record nothing.
	ctx, span := StartSpan(context.Background(), "noop")
	assert.False(t, span.IsRecording())
	assert.Empty(t, TraceID(ctx))
	assert.Empty(t, SpanID(ctx))
	span.End()
}

func TestTracer_UninitializedReturnsNoop(t *testing.T) {
	tr := Tracer()
	require.NotNil(t, tr)
	_, span := tr.Start(context.Background(), "orphan")
	assert.False(t, span.IsRecording())
	span.End()
}

func TestTraceTool_AttachesSpan(t *testing.T) {
	ctx, span := TraceTool(context.Background(), "list_nifi_objects", "dev", "req-1")
	require.NotNil(t, span)
	EndSpan(ctx, span, nil)
}

func TestEndSpan_RecordsError(t *testing.T) {
	ctx, span := TraceWorkflow(context.Background(), "diagnose_flow", "dev", "req-1")
	EndSpan(ctx, span, errors.New("node failed"))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "nifibridge", cfg.ServiceName)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitProfiling_Disabled(t *testing.T) {
	shutdown, err := InitProfiling(ProfilingConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, IsProfilingEnabled())
	assert.NoError(t, shutdown())
}
