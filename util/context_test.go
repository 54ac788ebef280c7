package util_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schambon/mongo-dumper/util"
)

func TestCtxWithTimeout(t *testing.T) {
	t.Parallel()

	err := util.CtxWithTimeout(t.Context(), time.Minute, func(ctx context.Context) error {
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)

		return nil
	})
	require.NoError(t, err)
}

func TestCtxWithTimeout_Expires(t *testing.T) {
	t.Parallel()

	err := util.CtxWithTimeout(t.Context(), time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()

		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
