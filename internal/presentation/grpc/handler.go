package grpc

import (
	"context"
	"encoding/json"
	"log/slog"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/application/dto"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/application/usecase"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/pkg/auth"
)

// ConfigurationTrailer carries the JSON session snapshot on rejected
// SubmitStep and GoBack calls, so clients can show the clamped amount and
// notice without a second round trip.
const ConfigurationTrailer = "configuration-bin"

// UseCases groups the application operations exposed over gRPC.
type UseCases struct {
	Start  *usecase.StartConfigurationUseCase
	Submit *usecase.SubmitStepUseCase
	GoBack *usecase.GoBackUseCase
	Get    *usecase.GetConfigurationUseCase
	Quote  *usecase.QuoteRepaymentUseCase
	Assess *usecase.AssessBorrowerUseCase
}

// CreditEngineHandler implements CreditEngineServiceServer.
type CreditEngineHandler struct {
	UnimplementedCreditEngineServiceServer
	uc     UseCases
	logger *slog.Logger
}

// NewCreditEngineHandler creates a handler over the given use cases.
func NewCreditEngineHandler(uc UseCases, logger *slog.Logger) *CreditEngineHandler {
	return &CreditEngineHandler{uc: uc, logger: logger}
}

func (h *CreditEngineHandler) StartConfiguration(ctx context.Context, req *dto.StartConfigurationRequest) (*dto.ConfigurationResponse, error) {
	borrowerID, err := borrowerFor(ctx, req.BorrowerID)
	if err != nil {
		return nil, err
	}
	req.BorrowerID = borrowerID
	resp, err := h.uc.Start.Execute(ctx, *req)
	if err != nil {
		return nil, h.toStatus(ctx, "StartConfiguration", err)
	}
	return &resp, nil
}

func (h *CreditEngineHandler) SubmitStep(ctx context.Context, req *dto.SubmitStepRequest) (*dto.ConfigurationResponse, error) {
	borrowerID, err := borrowerFor(ctx, req.BorrowerID)
	if err != nil {
		return nil, err
	}
	req.BorrowerID = borrowerID
	resp, err := h.uc.Submit.Execute(ctx, *req)
	if err != nil {
		h.attachConfiguration(ctx, resp)
		return nil, h.toStatus(ctx, "SubmitStep", err)
	}
	return &resp, nil
}

func (h *CreditEngineHandler) GoBack(ctx context.Context, req *dto.GoBackRequest) (*dto.ConfigurationResponse, error) {
	borrowerID, err := borrowerFor(ctx, req.BorrowerID)
	if err != nil {
		return nil, err
	}
	req.BorrowerID = borrowerID
	resp, err := h.uc.GoBack.Execute(ctx, *req)
	if err != nil {
		h.attachConfiguration(ctx, resp)
		return nil, h.toStatus(ctx, "GoBack", err)
	}
	return &resp, nil
}

func (h *CreditEngineHandler) GetConfiguration(ctx context.Context, req *dto.GetConfigurationRequest) (*dto.ConfigurationResponse, error) {
	borrowerID, err := borrowerFor(ctx, req.BorrowerID)
	if err != nil {
		return nil, err
	}
	req.BorrowerID = borrowerID
	resp, err := h.uc.Get.Execute(ctx, *req)
	if err != nil {
		return nil, h.toStatus(ctx, "GetConfiguration", err)
	}
	return &resp, nil
}

func (h *CreditEngineHandler) QuoteRepayment(ctx context.Context, req *dto.QuoteRepaymentRequest) (*dto.QuoteResponse, error) {
	resp, err := h.uc.Quote.Execute(ctx, *req)
	if err != nil {
		return nil, h.toStatus(ctx, "QuoteRepayment", err)
	}
	return &resp, nil
}

func (h *CreditEngineHandler) NextSalaryDate(ctx context.Context, req *dto.NextSalaryDateRequest) (*dto.NextSalaryDateResponse, error) {
	resp, err := h.uc.Quote.NextSalaryDate(ctx, *req)
	if err != nil {
		return nil, h.toStatus(ctx, "NextSalaryDate", err)
	}
	return &resp, nil
}

func (h *CreditEngineHandler) AssessBorrower(ctx context.Context, req *dto.AssessBorrowerRequest) (*dto.AssessmentResponse, error) {
	borrowerID, err := borrowerFor(ctx, req.BorrowerID)
	if err != nil {
		return nil, err
	}
	req.BorrowerID = borrowerID
	resp, err := h.uc.Assess.Execute(ctx, *req)
	if err != nil {
		return nil, h.toStatus(ctx, "AssessBorrower", err)
	}
	return &resp, nil
}

// borrowerFor resolves the borrower a call acts on. Borrowers may only act
// on themselves; credit officers and services may name any borrower.
func borrowerFor(ctx context.Context, requested string) (string, error) {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return requested, nil
	}
	own := claims.Borrower()
	if requested == "" || requested == own {
		return own, nil
	}
	if claims.HasRole(auth.RoleCreditOfficer) || claims.HasRole(auth.RoleService) {
		return requested, nil
	}
	return "", status.Error(codes.PermissionDenied, "cannot act on another borrower")
}

func (h *CreditEngineHandler) attachConfiguration(ctx context.Context, resp dto.ConfigurationResponse) {
	if resp.BorrowerID == "" {
		return
	}
	body, err := json.Marshal(resp)
	if err != nil {
		h.logger.WarnContext(ctx, "encode configuration trailer failed", "error", err)
		return
	}
	if err := grpclib.SetTrailer(ctx, metadata.Pairs(ConfigurationTrailer, string(body))); err != nil {
		h.logger.DebugContext(ctx, "set configuration trailer failed", "error", err)
	}
}
