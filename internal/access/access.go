// Package access resolves the caller's company scope for candidate
// filtering. The identity service is an external collaborator; matching only
// needs the resolved scope.
package access

import (
	"context"

	"go.uber.org/zap"

	"github.com/tygershark/shiprecon/internal/model"
)

// Resolver is the external identity/access service: given a caller, the set
// of company ids the caller may view.
type Resolver interface {
	CompanyScopes(ctx context.Context, principal model.Principal) ([]string, error)
}

// Service resolves scopes with role shortcuts and a configurable failure
// posture.
type Service struct {
	resolver Resolver
	strict   bool
}

// NewService creates a scope service. strict controls what happens when the
// resolver fails: deny everything (true) or fall back to the caller's own
// company (false).
func NewService(resolver Resolver, strict bool) *Service {
	return &Service{resolver: resolver, strict: strict}
}

// ScopeFor resolves the caller's viewable companies. Super-admins get
// unrestricted scope; admins get their connected-company set from the
// resolver; everyone else sees exactly their own company.
func (s *Service) ScopeFor(ctx context.Context, principal model.Principal) model.Scope {
	switch principal.Role {
	case model.RoleSuperAdmin:
		return model.Scope{All: true}

	case model.RoleAdmin:
		companies, err := s.resolveAdmin(ctx, principal)
		if err != nil {
			zap.L().Warn("access: scope resolution failed",
				zap.String("user", principal.UserID),
				zap.Bool("strict", s.strict),
				zap.Error(err),
			)
			if s.strict {
				return model.Scope{Companies: map[string]bool{}}
			}
			return ownCompanyScope(principal)
		}
		scope := model.Scope{Companies: make(map[string]bool, len(companies)+1)}
		for _, id := range companies {
			scope.Companies[id] = true
		}
		if principal.CompanyID != "" {
			scope.Companies[principal.CompanyID] = true
		}
		return scope

	default:
		return ownCompanyScope(principal)
	}
}

// resolveAdmin prefers the principal's embedded connected-company set and
// falls back to the external resolver.
func (s *Service) resolveAdmin(ctx context.Context, principal model.Principal) ([]string, error) {
	if len(principal.ConnectedCompanyIDs) > 0 {
		return principal.ConnectedCompanyIDs, nil
	}
	if s.resolver == nil {
		return nil, nil
	}
	return s.resolver.CompanyScopes(ctx, principal)
}

func ownCompanyScope(principal model.Principal) model.Scope {
	if principal.CompanyID == "" {
		return model.Scope{Companies: map[string]bool{}}
	}
	return model.Scope{Companies: map[string]bool{principal.CompanyID: true}}
}
