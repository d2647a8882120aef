package grpc

import (
	"context"
	"log/slog"
	"net"
	"time"

	ggrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const defaultGracefulShutdownTimeout = 5 * time.Second

// Server serves the lookup and health services.
type Server struct {
	grpcServer *ggrpc.Server
	health     *health.Server
	logger     *slog.Logger
}

// NewServer registers handler and a health service on a new gRPC server.
func NewServer(handler LookupServer, logger *slog.Logger, opts ...ggrpc.ServerOption) *Server {
	grpcServer := ggrpc.NewServer(opts...)
	RegisterLookupServer(grpcServer, handler)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, hs)

	return &Server{grpcServer: grpcServer, health: hs, logger: logger}
}

// SetDraining reports NOT_SERVING for every service.
func (s *Server) SetDraining() {
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
}

// Serve blocks until ctx is cancelled or the server fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		done := make(chan struct{})
		go func() {
			s.grpcServer.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(defaultGracefulShutdownTimeout):
			s.grpcServer.Stop()
		}
	}()

	s.logger.Info("gRPC server listening", "addr", ln.Addr().String())
	if err := s.grpcServer.Serve(ln); err != nil && err != ggrpc.ErrServerStopped {
		return err
	}
	return nil
}
