package repo

import "context"

// CompletionRepo is the text-completion fallback interface.
// Implementations may be absent; callers must degrade to canned replies.
type CompletionRepo interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
