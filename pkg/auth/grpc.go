package auth

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// UnaryServerInterceptor runs the gate for unary gRPC calls. The route is
// the full method name, so exempt entries look like "/pkg.Service/Method".
// Only a strict gate fails the call, with codes.Unauthenticated.
//
// Mount the gate first and any guards after it:
//
//	srv := grpc.NewServer(
//	    grpc.ChainUnaryInterceptor(
//	        svc.Gate().UnaryServerInterceptor(),
//	        auth.RequireIdentityUnary(),
//	    ),
//	    grpc.ChainStreamInterceptor(svc.Gate().StreamServerInterceptor()),
//	)
func (g *Gate) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, err := g.authenticateGRPC(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamServerInterceptor is the streaming form of
// [Gate.UnaryServerInterceptor].
func (g *Gate) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := g.authenticateGRPC(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: ctx})
	}
}

// RequireIdentityUnary fails anonymous unary calls with
// codes.Unauthenticated. Chain it after the gate interceptor.
func RequireIdentityUnary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := IdentityFromContext(ctx); !ok {
			return nil, status.Error(codes.Unauthenticated, "not authenticated")
		}
		return handler(ctx, req)
	}
}

func (g *Gate) authenticateGRPC(ctx context.Context, method string) (context.Context, error) {
	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(HeaderAuthorization); len(vals) > 0 {
			header = vals[0]
		}
	}
	ctx, state := g.Authenticate(ctx, method, header)
	if state == StateRejected {
		return ctx, status.Error(codes.Unauthenticated, "invalid or expired token")
	}
	return ctx, nil
}

// wrappedServerStream overrides Context so handlers see the identity.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
