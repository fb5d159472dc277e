package access

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"

	"github.com/tygershark/shiprecon/internal/model"
)

type stubResolver struct {
	companies []string
	err       error
}

func (s *stubResolver) CompanyScopes(ctx context.Context, principal model.Principal) ([]string, error) {
	return s.companies, s.err
}

func TestScopeFor_SuperAdmin(t *testing.T) {
	svc := NewService(&stubResolver{}, false)
	scope := svc.ScopeFor(context.Background(), model.Principal{Role: model.RoleSuperAdmin})
	assert.True(t, scope.All)
	assert.True(t, scope.Allows("any-company"))
}

func TestScopeFor_AdminEmbeddedConnections(t *testing.T) {
	svc := NewService(&stubResolver{err: eris.New("must not be called")}, false)
	scope := svc.ScopeFor(context.Background(), model.Principal{
		Role:                model.RoleAdmin,
		CompanyID:           "co-own",
		ConnectedCompanyIDs: []string{"co-1", "co-2"},
	})
	assert.True(t, scope.Allows("co-1"))
	assert.True(t, scope.Allows("co-2"))
	assert.True(t, scope.Allows("co-own"), "admin always sees their own company")
	assert.False(t, scope.Allows("co-3"))
}

func TestScopeFor_AdminViaResolver(t *testing.T) {
	svc := NewService(&stubResolver{companies: []string{"co-9"}}, false)
	scope := svc.ScopeFor(context.Background(), model.Principal{Role: model.RoleAdmin, CompanyID: "co-own"})
	assert.True(t, scope.Allows("co-9"))
	assert.False(t, scope.Allows("co-10"))
}

func TestScopeFor_RegularUser(t *testing.T) {
	svc := NewService(&stubResolver{companies: []string{"co-9"}}, false)
	scope := svc.ScopeFor(context.Background(), model.Principal{Role: model.RoleUser, CompanyID: "co-own"})
	assert.True(t, scope.Allows("co-own"))
	assert.False(t, scope.Allows("co-9"))
}

func TestScopeFor_ResolverFailureLenient(t *testing.T) {
	svc := NewService(&stubResolver{err: eris.New("identity service down")}, false)
	scope := svc.ScopeFor(context.Background(), model.Principal{Role: model.RoleAdmin, CompanyID: "co-own"})
	assert.True(t, scope.Allows("co-own"), "lenient mode falls back to own company")
	assert.False(t, scope.Allows("co-1"))
}

func TestScopeFor_ResolverFailureStrict(t *testing.T) {
	svc := NewService(&stubResolver{err: eris.New("identity service down")}, true)
	scope := svc.ScopeFor(context.Background(), model.Principal{Role: model.RoleAdmin, CompanyID: "co-own"})
	assert.False(t, scope.Allows("co-own"), "strict mode denies on resolution failure")
}
