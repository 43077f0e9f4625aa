package data

import (
	"fmt"

	"github.com/anonpay/paylink-agent/internal/biz/repo"
	"github.com/anonpay/paylink-agent/internal/infra/fkey"
	"github.com/anonpay/paylink-agent/internal/infra/llm"
	"github.com/anonpay/paylink-agent/internal/infra/mesh"
	"github.com/anonpay/paylink-agent/internal/infra/payrail"
)

// Repositories contains all repositories
type Repositories struct {
	Transport  repo.TransportRepo
	Resolver   repo.ResolverRepo
	PayRail    repo.PayRailRepo
	Identity   repo.IdentityRepo
	Receipts   repo.ReceiptRepo
	Completion repo.CompletionRepo // nil when no key is configured
}

// NewRepositories creates all repositories
func NewRepositories(
	meshClient *mesh.Client,
	resolverClient *fkey.Client,
	payRailClient *payrail.Client,
	llmClient *llm.Client, // may be nil
	identityDBPath string,
	redisAddr string,
	redisPassword string,
) (*Repositories, error) {
	identityRepo, err := NewIdentityRepo(identityDBPath)
	if err != nil {
		return nil, err
	}

	var receipts repo.ReceiptRepo
	if redisAddr != "" {
		receipts, err = NewReceiptRepo(redisAddr, redisPassword)
		if err != nil {
			identityRepo.Close()
			return nil, err
		}
	} else {
		fmt.Println("[Data] No Redis configured, receipts will not be captured")
		receipts = NewNoopReceiptRepo()
	}

	repos := &Repositories{
		Transport: NewMeshRepo(meshClient),
		Resolver:  NewResolverRepo(resolverClient),
		PayRail:   NewPayRailRepo(payRailClient),
		Identity:  identityRepo,
		Receipts:  receipts,
	}
	if llmClient != nil {
		repos.Completion = NewCompletionRepo(llmClient)
	}
	return repos, nil
}
