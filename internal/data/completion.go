package data

import (
	"context"

	"github.com/anonpay/paylink-agent/internal/biz/repo"
	"github.com/anonpay/paylink-agent/internal/infra/llm"
)

// completionRepo implements the completion repository over the llm client
type completionRepo struct {
	client *llm.Client
}

// NewCompletionRepo creates a new completion repository
func NewCompletionRepo(client *llm.Client) repo.CompletionRepo {
	return &completionRepo{client: client}
}

// Complete sends a prompt to the completion API
func (r *completionRepo) Complete(ctx context.Context, prompt string) (string, error) {
	return r.client.Complete(ctx, prompt)
}
