package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/company-lifecycle/internal/platform/auth"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ActorVerifier は authorization メタデータから操作者 ID を取り出します。
type ActorVerifier interface {
	VerifyHeader(header string) (uuid.UUID, error)
}

// UnaryAuthInterceptor は CompanyService の呼び出しに対してベアラートークンを検証します。
// CheckCompany と CompanyService 以外のサービスは検証しません。
func UnaryAuthInterceptor(verifier ActorVerifier) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if !requiresActor(info.FullMethod) {
			return next(ctx, req)
		}

		var header string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get("authorization"); len(values) > 0 {
				header = values[0]
			}
		}

		actor, err := verifier.VerifyHeader(header)
		if err != nil {
			if errors.Is(err, auth.ErrMissingToken) {
				return nil, status.Error(codes.Unauthenticated, "missing bearer token")
			}
			return nil, status.Error(codes.Unauthenticated, "invalid bearer token")
		}
		return next(auth.WithActor(ctx, actor), req)
	}
}

func requiresActor(fullMethod string) bool {
	return strings.HasPrefix(fullMethod, "/"+CompanyServiceName+"/") && fullMethod != MethodCheckCompany
}

// UnaryLoggingInterceptor は呼び出し結果を zerolog で出力します。
func UnaryLoggingInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)

		code := status.Code(err)
		event := logger.Info()
		if code == codes.Internal || code == codes.Unknown {
			event = logger.Error()
		}
		event.
			Str("method", info.FullMethod).
			Str("code", code.String()).
			Dur("duration", time.Since(start)).
			Msg("grpc request")
		return resp, err
	}
}
