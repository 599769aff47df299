package contextutil_test

import (
	"context"
	"testing"

	"go-payroll/internal/shared/contextutil"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMetadata(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, contextutil.ExtractMetadata(ctx).Fields())

	ctx = contextutil.WithRequestID(ctx, "rid-1")
	ctx = contextutil.WithUserID(ctx, "u-1")
	ctx = contextutil.WithRole(ctx, "hr")

	md := contextutil.ExtractMetadata(ctx)
	assert.Equal(t, contextutil.Metadata{RequestID: "rid-1", UserID: "u-1", Role: "hr"}, md)
	assert.Len(t, md.Fields(), 3)
}

func TestGetLogger(t *testing.T) {
	fallback := zap.NewNop().Named("fallback")
	scoped := zap.NewNop().Named("scoped")

	assert.Same(t, fallback, contextutil.GetLogger(context.Background(), fallback))
	assert.NotNil(t, contextutil.GetLogger(context.Background(), nil))

	ctx := contextutil.WithLogger(context.Background(), scoped)
	assert.Same(t, scoped, contextutil.GetLogger(ctx, fallback))
}
