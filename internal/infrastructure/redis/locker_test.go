package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-service/internal/domain"
	testhelpers "github.com/wms-platform/fulfillment-service/pkg/testing"
)

func TestLocker(t *testing.T) {
	testhelpers.SkipIfShort(t)
	ctx := testhelpers.CreateTestContext(t, time.Minute)

	container, err := testhelpers.NewRedisContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close(context.Background()) })

	client, err := NewClient(ctx, Config{Addr: container.Addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	locker := NewLocker(client)

	release, err := locker.Obtain(ctx, "recebimento:1", 5*time.Second)
	require.NoError(t, err)

	_, err = locker.Obtain(ctx, "recebimento:1", 5*time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLockNotObtained)

	other, err := locker.Obtain(ctx, "recebimento:2", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx), "releasing twice is harmless")

	again, err := locker.Obtain(ctx, "recebimento:1", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestLocker_Expires(t *testing.T) {
	testhelpers.SkipIfShort(t)
	ctx := testhelpers.CreateTestContext(t, time.Minute)

	container, err := testhelpers.NewRedisContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close(context.Background()) })

	client, err := NewClient(ctx, Config{Addr: container.Addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	locker := NewLocker(client)

	_, err = locker.Obtain(ctx, "ttl", 100*time.Millisecond)
	require.NoError(t, err)

	testhelpers.AssertEventually(t, func() bool {
		release, err := locker.Obtain(ctx, "ttl", time.Second)
		if err != nil {
			return false
		}
		_ = release(ctx)
		return true
	}, 5*time.Second, "lock should expire after its ttl")
}
