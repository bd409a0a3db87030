package grpc

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// ServiceName is the name the edit service reports health under.
const ServiceName = "storeadmin.ProductEdit"

type HealthServer struct {
	Server *grpc.Server
	health *health.Server
	log    *logrus.Logger
}

// NewHealthServer builds a gRPC server exposing the standard health service
// and reflection. Both the overall and the named service start NOT_SERVING.
func NewHealthServer(logger *logrus.Logger) *HealthServer {
	srv := grpc.NewServer(grpc.UnaryInterceptor(loggingInterceptor(logger)))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	logger.Info("gRPC health and reflection services registered")

	return &HealthServer{Server: srv, health: hs, log: logger}
}

func (h *HealthServer) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", st)
	h.health.SetServingStatus(ServiceName, st)
	h.log.Infof("gRPC health status set to %s", st)
}

// Shutdown marks every service NOT_SERVING and stops the server gracefully.
func (h *HealthServer) Shutdown() {
	h.health.Shutdown()
	h.Server.GracefulStop()
}

func loggingInterceptor(logger *logrus.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		entry := logger.WithFields(logrus.Fields{
			"method":   info.FullMethod,
			"code":     status.Code(err).String(),
			"duration": time.Since(start).String(),
		})
		if err != nil {
			entry.Warnf("gRPC request failed: %v", err)
		} else {
			entry.Debug("gRPC request completed")
		}
		return resp, err
	}
}
