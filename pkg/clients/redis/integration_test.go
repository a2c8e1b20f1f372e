//go:build integration

// Integration tests for the Redis client against a real container.
//
//	go test -v -race -tags=integration ./pkg/clients/redis/...
package redis_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/StricklySoft/stricklysoft-auth/internal/testutil/containers"
	"github.com/StricklySoft/stricklysoft-auth/pkg/clients/redis"
	sserr "github.com/StricklySoft/stricklysoft-auth/pkg/errors"
)

// RedisIntegrationSuite shares one container across its tests; each test
// uses its own key prefix.
type RedisIntegrationSuite struct {
	suite.Suite
	ctx    context.Context
	client *redis.Client
}

func TestRedisIntegration(t *testing.T) {
	suite.Run(t, new(RedisIntegrationSuite))
}

func (s *RedisIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.client = containers.StartRedis(s.T())
}

func (s *RedisIntegrationSuite) key(suffix string) string {
	return fmt.Sprintf("%s:%s", s.T().Name(), suffix)
}

func (s *RedisIntegrationSuite) TestSetGetDel() {
	t := s.T()
	key := s.key("user")

	require.NoError(t, s.client.Set(s.ctx, key, `{"id":1}`, time.Minute))
	val, ok, err := s.client.Get(s.ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":1}`, val)

	n, err := s.client.Del(s.ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, ok, err = s.client.Get(s.ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func (s *RedisIntegrationSuite) TestExpiry() {
	t := s.T()
	key := s.key("short")

	require.NoError(t, s.client.Set(s.ctx, key, "v", 100*time.Millisecond))
	assert.Eventually(t, func() bool {
		_, ok, err := s.client.Get(s.ctx, key)
		return err == nil && !ok
	}, 5*time.Second, 50*time.Millisecond)
}

func (s *RedisIntegrationSuite) TestConcurrentAccess() {
	t := s.T()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := s.key(fmt.Sprint(i))
			assert.NoError(t, s.client.Set(s.ctx, key, fmt.Sprint(i), time.Minute))
			val, ok, err := s.client.Get(s.ctx, key)
			assert.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, fmt.Sprint(i), val)
		}(i)
	}
	wg.Wait()
}

func (s *RedisIntegrationSuite) TestTimeout() {
	t := s.T()
	ctx, cancel := context.WithTimeout(s.ctx, time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, _, err := s.client.Get(ctx, s.key("late"))
	require.Error(t, err)
	assert.True(t, sserr.IsTimeout(err), "got %v", err)
}

func (s *RedisIntegrationSuite) TestHealth() {
	require.NoError(s.T(), s.client.Health(s.ctx))
}
