package repo

import "context"

// Resolution is the result of an alias lookup
type Resolution struct {
	Registered  bool
	Address     string
	Attestation string // opaque ownership proof, verified externally
}

// ResolverRepo is the alias lookup service interface.
// Every sensitive operation performs a live lookup; callers never act on
// a cached address.
type ResolverRepo interface {
	Lookup(ctx context.Context, alias string) (*Resolution, error)
}
