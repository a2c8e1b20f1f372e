package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	sserr "github.com/StricklySoft/stricklysoft-auth/pkg/errors"
)

// ===========================================================================
// Mock Implementation
// ===========================================================================

type mockCmdable struct {
	mock.Mock
}

func (m *mockCmdable) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	return args.Get(0).(*redis.StatusCmd)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	return args.Get(0).(*redis.StringCmd)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)
	return args.Get(0).(*redis.IntCmd)
}

func (m *mockCmdable) Ping(ctx context.Context) *redis.StatusCmd {
	args := m.Called(ctx)
	return args.Get(0).(*redis.StatusCmd)
}

func (m *mockCmdable) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newStatusCmd(val string, err error) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(context.Background())
	if err != nil {
		cmd.SetErr(err)
	} else {
		cmd.SetVal(val)
	}
	return cmd
}

func newStringCmd(val string, err error) *redis.StringCmd {
	cmd := redis.NewStringCmd(context.Background())
	if err != nil {
		cmd.SetErr(err)
	} else {
		cmd.SetVal(val)
	}
	return cmd
}

func newIntCmd(val int64, err error) *redis.IntCmd {
	cmd := redis.NewIntCmd(context.Background())
	if err != nil {
		cmd.SetErr(err)
	} else {
		cmd.SetVal(val)
	}
	return cmd
}

func newTracedClient(t *testing.T, m *mockCmdable) (*Client, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	client := NewFromClient(m, &Config{DB: 2})
	client.tracer = tp.Tracer(tracerName)
	return client, rec
}

// ===========================================================================
// Construction
// ===========================================================================

func TestNewFromClient(t *testing.T) {
	t.Parallel()
	m := new(mockCmdable)

	client := NewFromClient(m, &Config{DB: 3})
	assert.Equal(t, 3, client.dbIndex)
	assert.NotNil(t, client.tracer)

	client = NewFromClient(m, nil)
	require.NotNil(t, client.config)
	assert.Equal(t, 0, client.dbIndex)
}

func TestNewClient_InvalidConfig(t *testing.T) {
	t.Parallel()
	_, err := NewClient(context.Background(), Config{URI: "http://localhost:6379"})
	require.Error(t, err)
	assert.Equal(t, sserr.CodeValidation, sserr.GetCode(err))
}

// ===========================================================================
// Commands
// ===========================================================================

func TestClient_Set(t *testing.T) {
	t.Parallel()
	m := new(mockCmdable)
	m.On("Set", mock.Anything, "auth:user:1", `{"id":1}`, time.Minute).
		Return(newStatusCmd("OK", nil))

	client, rec := newTracedClient(t, m)
	require.NoError(t, client.Set(context.Background(), "auth:user:1", `{"id":1}`, time.Minute))
	m.AssertExpectations(t)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "redis.Set", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
}

func TestClient_SetErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want sserr.Code
	}{
		{"readonly replica", errors.New("READONLY You can't write against a read only replica"), sserr.CodeInternalDatabase},
		{"deadline", context.DeadlineExceeded, sserr.CodeTimeoutDatabase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(mockCmdable)
			m.On("Set", mock.Anything, "k", "v", time.Duration(0)).Return(newStatusCmd("", tt.err))

			err := NewFromClient(m, nil).Set(context.Background(), "k", "v", 0)
			require.Error(t, err)
			var ssErr *sserr.Error
			require.True(t, errors.As(err, &ssErr))
			assert.Equal(t, tt.want, ssErr.Code)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestClient_GetHit(t *testing.T) {
	t.Parallel()
	m := new(mockCmdable)
	m.On("Get", mock.Anything, "k").Return(newStringCmd("v", nil))

	val, ok, err := NewFromClient(m, nil).Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", val)
	m.AssertExpectations(t)
}

func TestClient_GetMissIsNotAnError(t *testing.T) {
	t.Parallel()
	m := new(mockCmdable)
	m.On("Get", mock.Anything, "k").Return(newStringCmd("", redis.Nil))

	client, rec := newTracedClient(t, m)
	val, ok, err := client.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, val)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
}

func TestClient_GetError(t *testing.T) {
	t.Parallel()
	m := new(mockCmdable)
	m.On("Get", mock.Anything, "k").Return(newStringCmd("", errors.New("connection reset by peer")))

	client, rec := newTracedClient(t, m)
	_, ok, err := client.Get(context.Background(), "k")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, sserr.CodeInternalDatabase, sserr.GetCode(err))

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestClient_Del(t *testing.T) {
	t.Parallel()
	m := new(mockCmdable)
	m.On("Del", mock.Anything, []string{"a", "b"}).Return(newIntCmd(1, nil))

	n, err := NewFromClient(m, nil).Del(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	m.AssertExpectations(t)
}

// ===========================================================================
// Health and Close
// ===========================================================================

func TestClient_Health(t *testing.T) {
	t.Parallel()
	m := new(mockCmdable)
	m.On("Ping", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	})).Return(newStatusCmd("PONG", nil)).Once()
	m.On("Ping", mock.Anything).Return(newStatusCmd("", errors.New("connection refused"))).Once()

	client := NewFromClient(m, nil)
	require.NoError(t, client.Health(context.Background()))

	err := client.Health(context.Background())
	require.Error(t, err)
	assert.Equal(t, sserr.CodeUnavailableDependency, sserr.GetCode(err))
	m.AssertExpectations(t)
}

func TestClient_Close(t *testing.T) {
	t.Parallel()
	m := new(mockCmdable)
	m.On("Close").Return(nil)

	require.NoError(t, NewFromClient(m, nil).Close())
	m.AssertExpectations(t)
}

func TestWrapError(t *testing.T) {
	t.Parallel()
	assert.Nil(t, wrapError(nil, "msg"))
	assert.Equal(t, sserr.CodeTimeoutDatabase, wrapError(context.DeadlineExceeded, "msg").Code)
	assert.Equal(t, sserr.CodeInternalDatabase, wrapError(context.Canceled, "msg").Code)
}
