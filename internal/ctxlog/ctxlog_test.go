package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))

	FromContext(ctx).Info("hello", "verb", "say")
	assert.Contains(t, buf.String(), "verb=say")
}

func TestFromContextFallback(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}
