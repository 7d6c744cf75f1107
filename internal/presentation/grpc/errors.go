package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/application/usecase"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/application/wizard"
	"github.com/MpumeleloTheAlgoHiver/onboardingmint/internal/domain/model"
)

// statusCode maps application errors onto gRPC codes.
func statusCode(err error) codes.Code {
	var (
		validation  *wizard.ValidationError
		capExceeded *wizard.CapExceededError
		persistence *wizard.PersistenceError
	)
	switch {
	case errors.As(err, &validation),
		errors.Is(err, usecase.ErrBorrowerRequired),
		errors.Is(err, wizard.ErrInvalidBackTarget):
		return codes.InvalidArgument
	case errors.As(err, &capExceeded),
		errors.Is(err, wizard.ErrAlreadyComplete):
		return codes.FailedPrecondition
	case errors.As(err, &persistence):
		return codes.Unavailable
	case errors.Is(err, usecase.ErrConfigurationNotPermitted):
		return codes.PermissionDenied
	case errors.Is(err, usecase.ErrSessionNotFound),
		errors.Is(err, model.ErrConfigurationNotFound):
		return codes.NotFound
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	default:
		return codes.Internal
	}
}

// toStatus converts err to a gRPC status. Internal errors are logged and
// their detail withheld from the caller.
func (h *CreditEngineHandler) toStatus(ctx context.Context, method string, err error) error {
	code := statusCode(err)
	if code == codes.Internal {
		h.logger.ErrorContext(ctx, "request failed", "method", method, "error", err)
		return status.Error(codes.Internal, "internal error")
	}
	h.logger.DebugContext(ctx, "request rejected", "method", method, "code", code.String(), "error", err)
	return status.Error(code, err.Error())
}
