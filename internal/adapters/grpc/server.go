package grpc

import (
	"context"

	"google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/application"
)

type ScoringInternalServer struct {
	grpc_health_v1.UnimplementedHealthServer
	service *application.Service
}

func NewScoringInternalServer(service *application.Service) *ScoringInternalServer {
	return &ScoringInternalServer{service: service}
}

func Register(server grpc.ServiceRegistrar, svc *ScoringInternalServer) {
	grpc_health_v1.RegisterHealthServer(server, svc)
}

func (s *ScoringInternalServer) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	_ = s.service
	_ = ctx
	_ = req
	return &grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING}, nil
}

func (s *ScoringInternalServer) Watch(req *grpc_health_v1.HealthCheckRequest, stream grpc_health_v1.Health_WatchServer) error {
	_ = s.service
	_ = req
	return stream.Send(&grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING})
}
