package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	"github.com/secmon-lab/echonotes/pkg/domain/model"
)

type CostUseCase struct {
	repo interfaces.Repository
}

// ListByRequest returns the cost ledger rows recorded for one request
func (uc *CostUseCase) ListByRequest(ctx context.Context, requestID string) ([]*model.CostLedgerEntry, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "request ID is required")
	}

	entries, err := uc.repo.CostLedger().ListByRequestID(ctx, requestID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list cost ledger", goerr.V(RequestIDKey, requestID))
	}
	return entries, nil
}
