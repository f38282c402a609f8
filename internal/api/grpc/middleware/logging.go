package middleware

import (
	"context"
	"log/slog"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/eventhub-server/internal/logger"
)

// InterceptorLogger adapts the application logger to go-grpc-middleware.
func InterceptorLogger(l *logger.Logger) logging.Logger {
	return logging.LoggerFunc(func(ctx context.Context, lvl logging.Level, msg string, fields ...any) {
		l.Log(ctx, slog.Level(lvl), "gRPC: "+msg, fields...)
	})
}

// Unary returns the unary interceptor chain: panic recovery innermost,
// then call logging.
func Unary(l *logger.Logger) []grpc.UnaryServerInterceptor {
	return []grpc.UnaryServerInterceptor{
		logging.UnaryServerInterceptor(InterceptorLogger(l), logging.WithLogOnEvents(logging.FinishCall)),
		recovery.UnaryServerInterceptor(recovery.WithRecoveryHandler(recoveryHandler(l))),
	}
}

// Stream is Unary for streaming calls such as Health/Watch.
func Stream(l *logger.Logger) []grpc.StreamServerInterceptor {
	return []grpc.StreamServerInterceptor{
		logging.StreamServerInterceptor(InterceptorLogger(l), logging.WithLogOnEvents(logging.FinishCall)),
		recovery.StreamServerInterceptor(recovery.WithRecoveryHandler(recoveryHandler(l))),
	}
}

func recoveryHandler(l *logger.Logger) recovery.RecoveryHandlerFunc {
	return func(p any) error {
		l.Error("gRPC: recovered from panic",
			"panic", p)
		return status.Error(codes.Internal, "internal server error")
	}
}
