// Package mcpserver exposes operator tools over MCP: alias lookups,
// payment-link minting and identity inspection, backed by the same
// clients the agent uses.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anonpay/paylink-agent/internal/biz/domain"
	"github.com/anonpay/paylink-agent/internal/biz/repo"
)

// PaylinkMCPServer provides MCP tools for operating the agent
type PaylinkMCPServer struct {
	server   *mcp.Server
	resolver repo.ResolverRepo
	payRail  repo.PayRailRepo
	identity repo.IdentityRepo
}

// NewServer creates a new paylink MCP server
func NewServer(resolver repo.ResolverRepo, payRail repo.PayRailRepo, identity repo.IdentityRepo) *PaylinkMCPServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "paylink-tools",
		Version: "v1.0.0",
	}, nil)

	s := &PaylinkMCPServer{
		server:   server,
		resolver: resolver,
		payRail:  payRail,
		identity: identity,
	}
	s.registerTools()
	return s
}

func (s *PaylinkMCPServer) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "resolve_alias",
		Description: "Resolve a payment alias to its current address and attestation status.",
	}, s.handleResolveAlias)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_payment_link",
		Description: "Mint a shareable payment link for an address and amount. Amount is a decimal string, max 4000.00.",
	}, s.handleCreateLink)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_identity",
		Description: "Get the stored identity record for a transport user ID.",
	}, s.handleGetIdentity)
}

// ResolveAliasInput is the input for resolve_alias
type ResolveAliasInput struct {
	Alias string `json:"alias" jsonschema:"description=The alias to resolve, with or without the .fkey.id suffix"`
}

// ResolveAliasOutput is the output for resolve_alias
type ResolveAliasOutput struct {
	Registered bool   `json:"registered"`
	Address    string `json:"address,omitempty"`
	Attested   bool   `json:"attested"`
	Error      string `json:"error,omitempty"`
}

func (s *PaylinkMCPServer) handleResolveAlias(ctx context.Context, req *mcp.CallToolRequest, input ResolveAliasInput) (*mcp.CallToolResult, ResolveAliasOutput, error) {
	alias := domain.NormalizeAlias(input.Alias)
	if !domain.ValidAlias(alias) {
		return nil, ResolveAliasOutput{Error: fmt.Sprintf("invalid alias %q", input.Alias)}, nil
	}

	res, err := s.resolver.Lookup(ctx, alias)
	if err != nil {
		return nil, ResolveAliasOutput{Error: err.Error()}, nil
	}
	return nil, ResolveAliasOutput{
		Registered: res.Registered,
		Address:    res.Address,
		Attested:   res.Attestation != "",
	}, nil
}

// CreateLinkInput is the input for create_payment_link
type CreateLinkInput struct {
	ToAddress string `json:"to_address" jsonschema:"description=Destination address"`
	Amount    string `json:"amount" jsonschema:"description=Decimal amount, e.g. 25.00"`
	Memo      string `json:"memo,omitempty" jsonschema:"description=Optional memo"`
}

// CreateLinkOutput is the output for create_payment_link
type CreateLinkOutput struct {
	PaymentURL string `json:"payment_url,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (s *PaylinkMCPServer) handleCreateLink(ctx context.Context, req *mcp.CallToolRequest, input CreateLinkInput) (*mcp.CallToolResult, CreateLinkOutput, error) {
	cents, err := domain.ParseAmount(input.Amount)
	if err != nil {
		return nil, CreateLinkOutput{Error: err.Error()}, nil
	}

	url, err := s.payRail.CreateLink(ctx, &repo.LinkRequest{
		ToAddress: input.ToAddress,
		Amount:    domain.FormatAmount(cents),
		Currency:  "USD",
		ChainID:   domain.ChainID,
		Memo:      input.Memo,
	})
	if err != nil {
		return nil, CreateLinkOutput{Error: err.Error()}, nil
	}
	return nil, CreateLinkOutput{PaymentURL: url}, nil
}

// GetIdentityInput is the input for get_identity
type GetIdentityInput struct {
	UserID string `json:"user_id" jsonschema:"description=The transport user identity"`
}

// GetIdentityOutput is the output for get_identity
type GetIdentityOutput struct {
	Alias    string `json:"alias,omitempty"`
	Address  string `json:"address,omitempty"`
	Attested bool   `json:"attested"`
	Error    string `json:"error,omitempty"`
}

func (s *PaylinkMCPServer) handleGetIdentity(ctx context.Context, req *mcp.CallToolRequest, input GetIdentityInput) (*mcp.CallToolResult, GetIdentityOutput, error) {
	record, err := s.identity.GetByUser(ctx, input.UserID)
	if err != nil {
		return nil, GetIdentityOutput{Error: err.Error()}, nil
	}
	if record == nil {
		return nil, GetIdentityOutput{Error: "no identity for user"}, nil
	}
	return nil, GetIdentityOutput{
		Alias:    record.Alias,
		Address:  record.Address,
		Attested: record.Attested,
	}, nil
}

// Run starts the MCP server with stdio transport
func (s *PaylinkMCPServer) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
