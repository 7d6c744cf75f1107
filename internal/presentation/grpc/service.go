package grpc

// service.go hand-writes the service descriptor for mint.credit.v1.CreditEngineService.
// Messages are the application DTOs carried by the JSON codec.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/application/dto"
)

const serviceName = "mint.credit.v1.CreditEngineService"

// CreditEngineServiceServer is the server API for CreditEngineService.
type CreditEngineServiceServer interface {
	StartConfiguration(context.Context, *dto.StartConfigurationRequest) (*dto.ConfigurationResponse, error)
	SubmitStep(context.Context, *dto.SubmitStepRequest) (*dto.ConfigurationResponse, error)
	GoBack(context.Context, *dto.GoBackRequest) (*dto.ConfigurationResponse, error)
	GetConfiguration(context.Context, *dto.GetConfigurationRequest) (*dto.ConfigurationResponse, error)
	QuoteRepayment(context.Context, *dto.QuoteRepaymentRequest) (*dto.QuoteResponse, error)
	NextSalaryDate(context.Context, *dto.NextSalaryDateRequest) (*dto.NextSalaryDateResponse, error)
	AssessBorrower(context.Context, *dto.AssessBorrowerRequest) (*dto.AssessmentResponse, error)
	mustEmbedUnimplementedCreditEngineServiceServer()
}

// UnimplementedCreditEngineServiceServer provides forward-compatible default implementations.
type UnimplementedCreditEngineServiceServer struct{}

func (UnimplementedCreditEngineServiceServer) StartConfiguration(context.Context, *dto.StartConfigurationRequest) (*dto.ConfigurationResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method StartConfiguration not implemented")
}
func (UnimplementedCreditEngineServiceServer) SubmitStep(context.Context, *dto.SubmitStepRequest) (*dto.ConfigurationResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SubmitStep not implemented")
}
func (UnimplementedCreditEngineServiceServer) GoBack(context.Context, *dto.GoBackRequest) (*dto.ConfigurationResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GoBack not implemented")
}
func (UnimplementedCreditEngineServiceServer) GetConfiguration(context.Context, *dto.GetConfigurationRequest) (*dto.ConfigurationResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetConfiguration not implemented")
}
func (UnimplementedCreditEngineServiceServer) QuoteRepayment(context.Context, *dto.QuoteRepaymentRequest) (*dto.QuoteResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method QuoteRepayment not implemented")
}
func (UnimplementedCreditEngineServiceServer) NextSalaryDate(context.Context, *dto.NextSalaryDateRequest) (*dto.NextSalaryDateResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method NextSalaryDate not implemented")
}
func (UnimplementedCreditEngineServiceServer) AssessBorrower(context.Context, *dto.AssessBorrowerRequest) (*dto.AssessmentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method AssessBorrower not implemented")
}
func (UnimplementedCreditEngineServiceServer) mustEmbedUnimplementedCreditEngineServiceServer() {}

// RegisterCreditEngineServiceServer registers srv with the gRPC server.
func RegisterCreditEngineServiceServer(s grpclib.ServiceRegistrar, srv CreditEngineServiceServer) {
	s.RegisterService(&creditEngineServiceDesc, srv)
}

var creditEngineServiceDesc = grpclib.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*CreditEngineServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		unary("StartConfiguration", CreditEngineServiceServer.StartConfiguration),
		unary("SubmitStep", CreditEngineServiceServer.SubmitStep),
		unary("GoBack", CreditEngineServiceServer.GoBack),
		unary("GetConfiguration", CreditEngineServiceServer.GetConfiguration),
		unary("QuoteRepayment", CreditEngineServiceServer.QuoteRepayment),
		unary("NextSalaryDate", CreditEngineServiceServer.NextSalaryDate),
		unary("AssessBorrower", CreditEngineServiceServer.AssessBorrower),
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "mint/credit/v1/credit_engine.proto",
}

// FullMethod returns the fully qualified gRPC method name.
func FullMethod(method string) string {
	return "/" + serviceName + "/" + method
}

// unary builds the method descriptor that decodes Req and dispatches to call,
// running any configured interceptor.
func unary[Req, Resp any](method string, call func(CreditEngineServiceServer, context.Context, *Req) (*Resp, error)) grpclib.MethodDesc {
	return grpclib.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CreditEngineServiceServer), ctx, in)
			}
			info := &grpclib.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(method),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(CreditEngineServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
