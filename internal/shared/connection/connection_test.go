package connection_test

import (
	"testing"
	"time"

	"go-payroll/internal/shared/connection"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectRedisWithRetry(t *testing.T) {
	connection.RetryDelay = time.Millisecond

	t.Run("reachable", func(t *testing.T) {
		mr := miniredis.RunT(t)

		rdb, err := connection.ConnectRedisWithRetry("redis://"+mr.Addr()+"/0", 2)

		require.NoError(t, err)
		defer rdb.Close()
		assert.Equal(t, mr.Addr(), rdb.Options().Addr)
	})

	t.Run("malformed url", func(t *testing.T) {
		_, err := connection.ConnectRedisWithRetry("localhost:6379", 1)
		assert.ErrorContains(t, err, "invalid REDIS_URL")
	})

	t.Run("gives up after retries", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := connection.ConnectRedisWithRetry("redis://"+addr, 2)
		assert.ErrorContains(t, err, "after 2 retries")
	})
}
