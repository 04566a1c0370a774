package usecases

import "context"

// ApprovalGate rejects callers that are not approved workers.
type ApprovalGate interface {
	RequireApproved(ctx context.Context, principal string) error
}
