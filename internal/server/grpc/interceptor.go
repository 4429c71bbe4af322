package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// loggingInterceptor logs every unary call with its status code. Failed
// calls other than NotFound are logged at warn level.
func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	args := []any{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start)}
	switch code {
	case codes.OK, codes.NotFound:
		s.logger.Debug(ctx, "grpc call", args...)
	default:
		s.logger.Warn(ctx, "grpc call failed", append(args, "error", err)...)
	}
	return resp, err
}
