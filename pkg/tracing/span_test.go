package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanTree(t *testing.T) {
	tracer := NewTracer(true, 1)
	ctx, root := tracer.Start(context.Background(), "http.summarize", "req-1")

	childCtx, child := StartChildSpan(ctx, "summarizer.segment")
	child.SetAttr("sentences", 3)
	_, grandchild := StartChildSpan(childCtx, "punkt")
	grandchild.End()
	child.End()
	tracer.Finish(root)

	assert.Equal(t, "req-1", TraceID(ctx))
	require.Len(t, root.Children(), 1)
	got := root.Children()[0]
	assert.Equal(t, "summarizer.segment", got.Name)
	assert.Equal(t, "req-1", got.TraceID)
	v, ok := got.Attr("sentences")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	require.Len(t, got.Children(), 1)
	assert.Equal(t, "req-1", got.Children()[0].TraceID)
}

func TestStartGeneratesTraceID(t *testing.T) {
	_, root := NewTracer(false, 0).Start(context.Background(), "job", "")
	assert.Len(t, root.TraceID, 21)
}

func TestDetachedChildSpan(t *testing.T) {
	ctx, span := StartChildSpan(context.Background(), "orphan")
	span.End()
	assert.Empty(t, span.TraceID)
	assert.Same(t, span, SpanFromContext(ctx))
	assert.Empty(t, TraceID(context.Background()))
}
