package access

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutoria/auth/internal/models"
	"tutoria/auth/internal/security"
)

type stubValidator struct {
	claims *security.Claims
	err    error
}

func (v stubValidator) Validate(string) (*security.Claims, error) {
	return v.claims, v.err
}

func claimsWithRole(role string) *security.Claims {
	return &security.Claims{Role: role}
}

func TestDecide_PublicBypassesInvalidToken(t *testing.T) {
	tokens := stubValidator{err: security.ErrInvalidToken}

	decision := Decide(Descriptor{Public: true}, "!!not-a-token!!", tokens)

	assert.True(t, decision.Allow)
	assert.Nil(t, decision.Claims, "public access carries no principal")
}

func TestDecide_MissingToken(t *testing.T) {
	decision := Decide(Descriptor{Roles: []models.UserRole{models.UserRoleAdmin}}, "", stubValidator{})

	assert.False(t, decision.Allow)
	assert.Equal(t, ReasonUnauthenticated, decision.Reason)
	assert.Empty(t, decision.Required, "required roles are only disclosed on forbidden")
}

func TestDecide_InvalidToken(t *testing.T) {
	tokens := stubValidator{err: errors.New("boom")}

	decision := Decide(Descriptor{}, "some-token", tokens)

	assert.False(t, decision.Allow)
	assert.Equal(t, ReasonUnauthenticated, decision.Reason)
}

func TestDecide_EmptyRoleSetAllowsAnyAuthenticated(t *testing.T) {
	tokens := stubValidator{claims: claimsWithRole("student")}

	decision := Decide(Descriptor{}, "token", tokens)

	require.True(t, decision.Allow)
	require.NotNil(t, decision.Claims)
	assert.Equal(t, "student", decision.Claims.Role)
}

func TestDecide_RoleMatch(t *testing.T) {
	tokens := stubValidator{claims: claimsWithRole("tutor")}
	descriptor := Descriptor{Roles: []models.UserRole{models.UserRoleAdmin, models.UserRoleTutor}}

	decision := Decide(descriptor, "token", tokens)

	assert.True(t, decision.Allow)
}

func TestDecide_ForbiddenListsRequiredRoles(t *testing.T) {
	tokens := stubValidator{claims: claimsWithRole("student")}
	descriptor := Descriptor{Roles: []models.UserRole{models.UserRoleAdmin}}

	decision := Decide(descriptor, "token", tokens)

	assert.False(t, decision.Allow)
	assert.Equal(t, ReasonForbidden, decision.Reason)
	assert.Equal(t, []string{"admin"}, decision.Required)
	assert.Nil(t, decision.Claims)
}

func TestRequiredRoles_DedupedAndSorted(t *testing.T) {
	names := RequiredRoles([]models.UserRole{
		models.UserRoleTutor,
		models.UserRoleAdmin,
		models.UserRoleTutor,
		models.UserRoleAdmin,
	})

	assert.Equal(t, []string{"admin", "tutor"}, names)
}
