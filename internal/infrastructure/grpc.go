package infrastructure

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/krobus00/wind-gateway/internal/config"
	"github.com/krobus00/wind-gateway/internal/constant"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	addr   string
}

func NewGRPCServer(addr string, opts ...grpc.ServerOption) *GRPCServer {
	opts = append(opts, grpc.ChainUnaryInterceptor(grpcRecoveryInterceptor, grpcAccessLogInterceptor))
	server := grpc.NewServer(opts...)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)

	if config.Env != nil && config.Env.Env == constant.DevelopmentEnvironment {
		reflection.Register(server)
	}

	return &GRPCServer{server: server, health: healthServer, addr: addr}
}

func (g *GRPCServer) Server() *grpc.Server {
	return g.server
}

// SetServing flips the health status of service, "" is the whole server.
func (g *GRPCServer) SetServing(service string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	g.health.SetServingStatus(service, status)
}

func (g *GRPCServer) Start() error {
	lis, err := net.Listen("tcp", g.addr)
	if err != nil {
		return err
	}

	logrus.WithField("addr", g.addr).Info("grpc server starting")
	err = g.server.Serve(lis)
	if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}

	return nil
}

func (g *GRPCServer) Shutdown(ctx context.Context) error {
	g.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		g.server.Stop()
		return ctx.Err()
	}
}

func grpcRecoveryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			logrus.WithFields(logrus.Fields{
				"method": info.FullMethod,
				"panic":  recovered,
			}).Error("panic recovered in grpc handler")
			err = errors.New("internal server error")
		}
	}()

	return handler(ctx, req)
}

func grpcAccessLogInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	started := time.Now()
	resp, err := handler(ctx, req)

	entry := logrus.WithFields(logrus.Fields{
		"method":      info.FullMethod,
		"duration_ms": time.Since(started).Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Warn("grpc request failed")
	} else {
		entry.Info("grpc request handled")
	}

	return resp, err
}
