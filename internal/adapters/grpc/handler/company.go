package handler

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/ogurasousui/company-lifecycle/internal/adapters/validation"
	"github.com/ogurasousui/company-lifecycle/internal/core/company"
	"github.com/ogurasousui/company-lifecycle/internal/platform/auth"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// CompanyGrpcHandler は CompanyService の gRPC 実装です。
type CompanyGrpcHandler struct {
	svc    company.UseCase
	logger zerolog.Logger
}

var _ CompanyServiceServer = (*CompanyGrpcHandler)(nil)

// NewCompanyGrpcHandler は CompanyGrpcHandler を生成します。
func NewCompanyGrpcHandler(svc company.UseCase, logger zerolog.Logger) *CompanyGrpcHandler {
	return &CompanyGrpcHandler{svc: svc, logger: logger}
}

// CreateCompany は会社を作成します。
func (h *CompanyGrpcHandler) CreateCompany(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	fields, err := toDomainFields(req)
	if err != nil {
		return nil, h.statusError(err)
	}

	actor, _ := auth.ActorFromContext(ctx)
	created, err := h.svc.CreateCompany(ctx, company.CreateCompanyInput{Fields: fields, ActorID: actor})
	if err != nil {
		return nil, h.statusError(err)
	}
	return companyResponse(created)
}

// UpdateCompany は会社の全属性を置き換えます。
func (h *CompanyGrpcHandler) UpdateCompany(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	id, err := idField(req)
	if err != nil {
		return nil, h.statusError(err)
	}
	fields, err := toDomainFields(req)
	if err != nil {
		return nil, h.statusError(err)
	}

	actor, _ := auth.ActorFromContext(ctx)
	updated, err := h.svc.UpdateCompany(ctx, company.UpdateCompanyInput{ID: id, Fields: fields, ActorID: actor})
	if err != nil {
		return nil, h.statusError(err)
	}
	return companyResponse(updated)
}

// ToggleCompanyActive は会社の有効状態を反転します。
func (h *CompanyGrpcHandler) ToggleCompanyActive(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	id, err := idField(req)
	if err != nil {
		return nil, h.statusError(err)
	}

	actor, _ := auth.ActorFromContext(ctx)
	toggled, err := h.svc.ToggleCompanyActive(ctx, company.ToggleCompanyActiveInput{ID: id, ActorID: actor})
	if err != nil {
		return nil, h.statusError(err)
	}
	return companyResponse(toggled)
}

// DeleteCompany は会社を論理削除します。
func (h *CompanyGrpcHandler) DeleteCompany(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	id, err := idField(req)
	if err != nil {
		return nil, h.statusError(err)
	}

	actor, _ := auth.ActorFromContext(ctx)
	deleted, err := h.svc.DeleteCompany(ctx, company.DeleteCompanyInput{ID: id, ActorID: actor})
	if err != nil {
		return nil, h.statusError(err)
	}
	return companyResponse(deleted)
}

// GetCompany は会社を取得します。
func (h *CompanyGrpcHandler) GetCompany(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	id, err := idField(req)
	if err != nil {
		return nil, h.statusError(err)
	}

	found, err := h.svc.GetCompany(ctx, company.GetCompanyInput{ID: id})
	if err != nil {
		return nil, h.statusError(err)
	}
	return companyResponse(found)
}

// CheckCompany は略称で会社を検索し、略称と外部 ID だけを返します。
func (h *CompanyGrpcHandler) CheckCompany(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	found, err := h.svc.FindCompanyByShortName(ctx, company.FindCompanyByShortNameInput{ShortName: stringField(req, "shortName")})
	if err != nil {
		return nil, h.statusError(err)
	}
	return newStruct(map[string]any{
		"shortName":  found.ShortName(),
		"externalId": found.ExternalID().String(),
	})
}

// ListActiveCompanies は有効な会社の一覧を返します。
func (h *CompanyGrpcHandler) ListActiveCompanies(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.list(ctx, req, h.svc.ListActiveCompanies)
}

// ListDeletedCompanies は論理削除済みの会社の一覧を返します。
func (h *CompanyGrpcHandler) ListDeletedCompanies(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.list(ctx, req, h.svc.ListDeletedCompanies)
}

func (h *CompanyGrpcHandler) list(ctx context.Context, req *structpb.Struct, fetch func(context.Context, company.ListCompaniesInput) (*company.ListCompaniesResult, error)) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	pageSize, err := intField(req, "pageSize")
	if err != nil {
		return nil, h.statusError(company.ErrInvalidPageSize)
	}

	result, err := fetch(ctx, company.ListCompaniesInput{
		PageSize:  int(pageSize),
		PageToken: stringField(req, "pageToken"),
	})
	if err != nil {
		return nil, h.statusError(err)
	}

	companies := make([]any, 0, len(result.Companies))
	for _, c := range result.Companies {
		companies = append(companies, toCompanyMap(c))
	}
	return newStruct(map[string]any{
		"companies":     companies,
		"nextPageToken": result.NextPageToken,
	})
}

func toDomainFields(req *structpb.Struct) (company.Fields, error) {
	apartment, err := optionalIntField(req, "apartmentNumber")
	if err != nil {
		return company.Fields{}, &validation.Error{Violations: validation.Violations{"apartmentNumber": "invalid_number"}}
	}

	fields := company.Fields{
		Email:           stringField(req, "email"),
		ShortName:       stringField(req, "shortName"),
		LongName:        stringField(req, "longName"),
		TaxNumber:       stringField(req, "taxNumber"),
		Country:         stringField(req, "country"),
		City:            stringField(req, "city"),
		PostalCode:      stringField(req, "postalCode"),
		Street:          stringField(req, "street"),
		BuildingNumber:  stringField(req, "buildingNumber"),
		ApartmentNumber: apartment,
		IsActive:        req.GetFields()["isActive"].GetBoolValue(),
	}
	if err := validation.ValidateCompany(fields); err != nil {
		return company.Fields{}, err
	}
	return fields, nil
}

func toCompanyMap(c *company.Company) map[string]any {
	s := c.Snapshot()
	m := map[string]any{
		"id":              strconv.FormatInt(s.ID, 10),
		"externalId":      s.ExternalID.String(),
		"email":           s.Email,
		"shortName":       s.ShortName,
		"longName":        s.LongName,
		"taxNumber":       s.TaxNumber,
		"country":         s.Country,
		"city":            s.City,
		"postalCode":      s.PostalCode,
		"street":          s.Street,
		"buildingNumber":  s.BuildingNumber,
		"apartmentNumber": nil,
		"isActive":        s.IsActive,
		"isDeleted":       s.IsDeleted,
		"isSystem":        s.IsSystem,
		"createdAt":       s.CreatedAt.Format(time.RFC3339Nano),
		"createdBy":       s.CreatedBy.String(),
		"version":         s.Version,
	}
	if s.ApartmentNumber != nil {
		m["apartmentNumber"] = *s.ApartmentNumber
	}
	if s.UpdatedAt != nil {
		m["updatedAt"] = s.UpdatedAt.Format(time.RFC3339Nano)
	}
	if s.DeletedAt != nil {
		m["deletedAt"] = s.DeletedAt.Format(time.RFC3339Nano)
	}
	if s.UpdatedBy != nil {
		m["updatedBy"] = s.UpdatedBy.String()
	}
	return m
}

func companyResponse(c *company.Company) (*structpb.Struct, error) {
	return newStruct(map[string]any{"company": toCompanyMap(c)})
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

// idField は "id" を数値または数字文字列として受け付けます。
func idField(req *structpb.Struct) (int64, error) {
	v, ok := req.GetFields()["id"]
	if !ok {
		return 0, company.ErrInvalidID
	}
	if s, isString := v.GetKind().(*structpb.Value_StringValue); isString {
		id, err := strconv.ParseInt(s.StringValue, 10, 64)
		if err != nil || id <= 0 {
			return 0, company.ErrInvalidID
		}
		return id, nil
	}
	id, err := toInt(v)
	if err != nil || id <= 0 {
		return 0, company.ErrInvalidID
	}
	return id, nil
}

func intField(req *structpb.Struct, name string) (int64, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, nil
	}
	return toInt(v)
}

func optionalIntField(req *structpb.Struct, name string) (*int, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return nil, nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, nil
	}
	n, err := toInt(v)
	if err != nil {
		return nil, err
	}
	value := int(n)
	return &value, nil
}

func toInt(v *structpb.Value) (int64, error) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) || math.Abs(n.NumberValue) > 1<<53 {
		return 0, status.Error(codes.InvalidArgument, "expected integer")
	}
	return int64(n.NumberValue), nil
}
