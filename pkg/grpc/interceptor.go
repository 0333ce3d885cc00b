package grpc

import (
	"context"
	"crypto/subtle"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"liyu1981.xyz/iot-anchor-service/pkg/common"
)

func methodSet(methods []string) map[string]bool {
	return common.Reducer(methods,
		func(m map[string]bool, method string) map[string]bool {
			m[method] = true
			return m
		},
		map[string]bool{},
	)
}

// CreateRateLimitInterceptor limits the listed methods per the request's user_id field.
func (s *AnchorServer) CreateRateLimitInterceptor(targetMethods []string) grpc.UnaryServerInterceptor {
	targets := methodSet(targetMethods)

	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if targets[info.FullMethod] {
			if r, ok := req.(*structpb.Struct); ok {
				userID := r.GetFields()["user_id"].GetStringValue()
				if !s.CheckUserLimiter(userID) {
					return nil, status.Errorf(codes.ResourceExhausted, "rate limit exceeded")
				}
			}
		}

		return handler(ctx, req)
	}
}

// CreateAuthInterceptor requires "authorization: Bearer <InternalAPISecret>" metadata on the listed methods.
func (s *AnchorServer) CreateAuthInterceptor(targetMethods []string) grpc.UnaryServerInterceptor {
	targets := methodSet(targetMethods)

	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if targets[info.FullMethod] && !s.authorized(ctx) {
			return nil, status.Errorf(codes.Unauthenticated, "missing or invalid internal api secret")
		}

		return handler(ctx, req)
	}
}

func (s *AnchorServer) authorized(ctx context.Context) bool {
	if s.InternalAPISecret == "" {
		return false
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return false
	}
	for _, value := range md.Get("authorization") {
		token, ok := strings.CutPrefix(value, "Bearer ")
		if ok && subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(s.InternalAPISecret)) == 1 {
			return true
		}
	}
	return false
}

// ServerOptions wires the interceptors the way every AnchorServer is served.
func (s *AnchorServer) ServerOptions() []grpc.ServerOption {
	return []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			s.CreateAuthInterceptor([]string{ConfirmTransactionFullMethod}),
			s.CreateRateLimitInterceptor([]string{UploadToChainFullMethod}),
		),
	}
}
