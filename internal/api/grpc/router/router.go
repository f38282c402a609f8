package router

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/dtroode/eventhub-server/internal/api/grpc/middleware"
	"github.com/dtroode/eventhub-server/internal/logger"
)

// Router builds the operational gRPC server.
type Router struct {
	health *health.Server
	logger *logger.Logger
}

// New creates a Router around a health server whose status is owned by the
// caller.
func New(healthServer *health.Server, logger *logger.Logger) *Router {
	return &Router{
		health: healthServer,
		logger: logger,
	}
}

// Register returns a gRPC server with the health and reflection services
// and the logging and recovery interceptors installed.
func (r *Router) Register() *grpc.Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(middleware.Unary(r.logger)...),
		grpc.ChainStreamInterceptor(middleware.Stream(r.logger)...),
	)

	healthpb.RegisterHealthServer(s, r.health)
	reflection.Register(s)

	return s
}
