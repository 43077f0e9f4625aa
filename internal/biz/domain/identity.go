package domain

import (
	"strings"
	"time"
)

// AliasSuffix is the well-known resolver domain users paste alongside
// their bare alias.
const AliasSuffix = ".fkey.id"

// IdentityRecord represents the stored identity of an onboarded user.
// Mutated only by the freshness service; Address reflects the most recent
// successful resolution.
type IdentityRecord struct {
	UserID    string
	Alias     string
	Address   string
	Attested  bool
	UpdatedAt time.Time
}

// HasAlias checks if the record carries a usable alias
func (r *IdentityRecord) HasAlias() bool {
	return r != nil && r.Alias != ""
}

// NormalizeAlias canonicalizes user-supplied alias text: trims whitespace
// and a leading "@", lowercases, and strips the resolver suffix so that
// "TantoDefi.fkey.id" and "tantodefi" refer to the same alias.
func NormalizeAlias(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "@")
	s = strings.ToLower(s)
	s = strings.TrimSuffix(s, AliasSuffix)
	return s
}

// ValidAlias reports whether a normalized alias has a plausible shape:
// 2-30 characters from [a-z0-9_-]. Anything else falls through to
// general conversational handling instead of starting confirmation.
func ValidAlias(alias string) bool {
	if len(alias) < 2 || len(alias) > 30 {
		return false
	}
	for _, r := range alias {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}
