package auth_test

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/StricklySoft/stricklysoft-auth/internal/testutil/fixtures"
	"github.com/StricklySoft/stricklysoft-auth/pkg/auth"
	"github.com/StricklySoft/stricklysoft-auth/pkg/users"
)

func newGRPCService(t *testing.T) *auth.Service {
	t.Helper()
	store := users.NewMemoryStore()
	_, err := store.Create(context.Background(), fixtures.User())
	require.NoError(t, err)
	svc, err := auth.NewService(fixtures.AuthConfig(), store, nil, nil)
	require.NoError(t, err)
	return svc
}

// TestGRPCServer_MountedInterceptors serves the standard health service
// behind the gate and RequireIdentityUnary.
func TestGRPCServer_MountedInterceptors(t *testing.T) {
	t.Parallel()
	svc := newGRPCService(t)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			svc.Gate().UnaryServerInterceptor(),
			auth.RequireIdentityUnary(),
		),
		grpc.ChainStreamInterceptor(svc.Gate().StreamServerInterceptor()),
	)
	healthpb.RegisterHealthServer(srv, health.NewServer())
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	client := healthpb.NewHealthClient(conn)
	ctx := context.Background()

	_, err = client.Check(ctx, &healthpb.HealthCheckRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	res, err := svc.Login(ctx, auth.Credentials{Email: fixtures.UserEmail, Password: fixtures.UserPassword})
	require.NoError(t, err)
	authed := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+res.Tokens.AccessToken)

	out, err := client.Check(authed, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, out.GetStatus())
}

func ExampleGate_UnaryServerInterceptor() {
	svc, err := auth.NewService(fixtures.AuthConfig(), users.NewMemoryStore(), nil, nil)
	if err != nil {
		panic(err)
	}
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			svc.Gate().UnaryServerInterceptor(),
			auth.RequireIdentityUnary(),
		),
		grpc.ChainStreamInterceptor(svc.Gate().StreamServerInterceptor()),
	)
	healthpb.RegisterHealthServer(srv, health.NewServer())
	defer srv.Stop()
}
