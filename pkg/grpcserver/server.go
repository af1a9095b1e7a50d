// Package grpcserver exposes the standard gRPC health service for load
// balancers and the service registry.
package grpcserver

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/example/zastore/pkg/config"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

type Server struct {
	config *config.ServerConfig
	logger *zap.Logger
	srv    *grpc.Server
	health *health.Server
}

func NewServer(cfg *config.ServerConfig, logger *zap.Logger) *Server {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	s := &Server{config: cfg, logger: logger.Named("grpc"), srv: srv, health: hs}
	s.setServing(false)
	return s
}

func (s *Server) setServing(ok bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(s.config.Name, status)
}

// SetServing flips the reported status of the process and its named service.
func (s *Server) SetServing(ok bool) {
	s.setServing(ok)
}

// Monitor runs checks every interval and reports NOT_SERVING while any fails.
// It returns when ctx is done.
func (s *Server) Monitor(ctx context.Context, interval time.Duration, checks map[string]Check) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	healthy := true
	for {
		ok := true
		for name, check := range checks {
			checkCtx, cancel := context.WithTimeout(ctx, interval)
			err := check(checkCtx)
			cancel()
			if err != nil {
				ok = false
				s.logger.Warn("Health check failed", zap.String("check", name), zap.Error(err))
			}
		}
		if ok != healthy {
			s.logger.Info("Serving status changed", zap.Bool("serving", ok))
			healthy = ok
		}
		s.setServing(ok)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Serve blocks until the listener fails or Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC health server started", zap.String("address", lis.Addr().String()))
	return s.srv.Serve(lis)
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(lis)
}

func (s *Server) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
