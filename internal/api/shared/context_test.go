package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	ctx = SetTraceID(ctx)
	traceID := GetTraceID(ctx)
	assert.Len(t, traceID, TraceIDLength*2)

	// A second call produces a different ID.
	other := GetTraceID(SetTraceID(context.Background()))
	assert.NotEqual(t, traceID, other)
}

func TestActorRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetActor(ctx))

	ctx = SetActor(ctx, "worker-7")
	assert.Equal(t, "worker-7", GetActor(ctx))
}
