package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/ogurasousui/company-lifecycle/internal/adapters/grpc/handler"
	"github.com/ogurasousui/company-lifecycle/internal/core/company"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server は gRPC サーバーのライフサイクルを管理します。
type Server struct {
	listenAddr string
	grpcServer *grpc.Server
	health     *health.Server
}

// New は CompanyService と標準ヘルスチェックを登録した gRPC サーバーを構築します。
func New(listenAddr string, svc company.UseCase, verifier handler.ActorVerifier, logger zerolog.Logger, opts ...grpc.ServerOption) *Server {
	opts = append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			handler.UnaryLoggingInterceptor(logger),
			handler.UnaryAuthInterceptor(verifier),
		),
	}, opts...)
	srv := grpc.NewServer(opts...)

	handler.RegisterCompanyServiceServer(srv, handler.NewCompanyGrpcHandler(svc, logger))

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(handler.CompanyServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, healthSrv)

	return &Server{
		listenAddr: listenAddr,
		grpcServer: srv,
		health:     healthSrv,
	}
}

// Run はサーバーを起動し、コンテキストがキャンセルされると GracefulStop します。
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.listenAddr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve は lis で待ち受けます。
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		s.GracefulStop()
	}()

	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	return nil
}

// GracefulStop はヘルスチェックを NOT_SERVING にしてからサーバーを安全に停止します。
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
