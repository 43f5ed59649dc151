package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// CompanyServiceName は gRPC のサービス名です。
const CompanyServiceName = "companylifecycle.v1.CompanyService"

// メソッドのフルネーム。
const (
	MethodCreateCompany        = "/" + CompanyServiceName + "/CreateCompany"
	MethodUpdateCompany        = "/" + CompanyServiceName + "/UpdateCompany"
	MethodToggleCompanyActive  = "/" + CompanyServiceName + "/ToggleCompanyActive"
	MethodDeleteCompany        = "/" + CompanyServiceName + "/DeleteCompany"
	MethodGetCompany           = "/" + CompanyServiceName + "/GetCompany"
	MethodCheckCompany         = "/" + CompanyServiceName + "/CheckCompany"
	MethodListActiveCompanies  = "/" + CompanyServiceName + "/ListActiveCompanies"
	MethodListDeletedCompanies = "/" + CompanyServiceName + "/ListDeletedCompanies"
)

// CompanyServiceServer は CompanyService のサーバー側インターフェースです。
// リクエストとレスポンスは google.protobuf.Struct で受け渡します。
type CompanyServiceServer interface {
	CreateCompany(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateCompany(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ToggleCompanyActive(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteCompany(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCompany(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CheckCompany(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListActiveCompanies(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListDeletedCompanies(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterCompanyServiceServer は CompanyService をサーバーに登録します。
func RegisterCompanyServiceServer(s grpc.ServiceRegistrar, srv CompanyServiceServer) {
	s.RegisterService(&CompanyServiceDesc, srv)
}

type unaryCall func(srv CompanyServiceServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CompanyServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CompanyServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// CompanyServiceDesc は CompanyService の grpc.ServiceDesc です。
var CompanyServiceDesc = grpc.ServiceDesc{
	ServiceName: CompanyServiceName,
	HandlerType: (*CompanyServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateCompany", Handler: unaryHandler(MethodCreateCompany, CompanyServiceServer.CreateCompany)},
		{MethodName: "UpdateCompany", Handler: unaryHandler(MethodUpdateCompany, CompanyServiceServer.UpdateCompany)},
		{MethodName: "ToggleCompanyActive", Handler: unaryHandler(MethodToggleCompanyActive, CompanyServiceServer.ToggleCompanyActive)},
		{MethodName: "DeleteCompany", Handler: unaryHandler(MethodDeleteCompany, CompanyServiceServer.DeleteCompany)},
		{MethodName: "GetCompany", Handler: unaryHandler(MethodGetCompany, CompanyServiceServer.GetCompany)},
		{MethodName: "CheckCompany", Handler: unaryHandler(MethodCheckCompany, CompanyServiceServer.CheckCompany)},
		{MethodName: "ListActiveCompanies", Handler: unaryHandler(MethodListActiveCompanies, CompanyServiceServer.ListActiveCompanies)},
		{MethodName: "ListDeletedCompanies", Handler: unaryHandler(MethodListDeletedCompanies, CompanyServiceServer.ListDeletedCompanies)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "companylifecycle/v1/company.proto",
}

// CompanyServiceClient は CompanyService のクライアントです。
type CompanyServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewCompanyServiceClient は CompanyServiceClient を生成します。
func NewCompanyServiceClient(cc grpc.ClientConnInterface) *CompanyServiceClient {
	return &CompanyServiceClient{cc: cc}
}

// Invoke は method を呼び出します。method には Method* 定数を指定します。
func (c *CompanyServiceClient) Invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
