package handler

import (
	"errors"
	"sort"

	"github.com/ogurasousui/company-lifecycle/internal/adapters/validation"
	"github.com/ogurasousui/company-lifecycle/internal/core/company"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// statusError は err を gRPC ステータスに変換し、内部エラーはログに残します。
func (h *CompanyGrpcHandler) statusError(err error) error {
	st := toStatusError(err)
	if status.Code(st) == codes.Internal {
		h.logger.Error().Err(err).Msg("company rpc failed")
	}
	return st
}

func toStatusError(err error) error {
	var vErr *validation.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &vErr):
		return validationStatus(vErr)
	case errors.Is(err, company.ErrInvalidID),
		errors.Is(err, company.ErrInvalidShortName),
		errors.Is(err, company.ErrInvalidPageSize),
		errors.Is(err, company.ErrInvalidPageToken):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, company.ErrInvalidActor):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, company.ErrDuplicateEmail), errors.Is(err, company.ErrDuplicateShortName):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, company.ErrCompanyNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, company.ErrCompanyDeleted):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, company.ErrConcurrentModification):
		return status.Error(codes.Aborted, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// validationStatus は違反内容を BadRequest の詳細として付与します。
func validationStatus(vErr *validation.Error) error {
	fields := make([]string, 0, len(vErr.Violations))
	for field := range vErr.Violations {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	detail := &errdetails.BadRequest{}
	for _, field := range fields {
		detail.FieldViolations = append(detail.FieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       field,
			Description: vErr.Violations[field],
		})
	}

	st := status.New(codes.InvalidArgument, vErr.Error())
	withDetails, err := st.WithDetails(detail)
	if err != nil {
		return st.Err()
	}
	return withDetails.Err()
}
