// Package access implements the per-operation authorization decision:
// public bypass, then token validation, then role membership.
package access

import (
	"sort"

	"tutoria/auth/internal/models"
	"tutoria/auth/internal/security"
)

// Descriptor is attached to an operation by the routing layer.
type Descriptor struct {
	// Public operations skip authentication entirely; a present but
	// invalid token must not fail them.
	Public bool
	// Roles allowed to invoke the operation. Empty means any
	// authenticated principal.
	Roles []models.UserRole
}

type DenyReason string

const (
	ReasonNone            DenyReason = ""
	ReasonUnauthenticated DenyReason = "unauthenticated"
	ReasonForbidden       DenyReason = "forbidden"
)

type Decision struct {
	Allow  bool
	Reason DenyReason
	// Required lists the role names that would have satisfied the check,
	// deduplicated and sorted. Only set on forbidden denials.
	Required []string
	// Claims is the authenticated principal; nil on public bypass and
	// on denials.
	Claims *security.Claims
}

type TokenValidator interface {
	Validate(token string) (*security.Claims, error)
}

// Decide runs the decision procedure for one inbound operation.
func Decide(d Descriptor, rawToken string, tokens TokenValidator) Decision {
	if d.Public {
		return Decision{Allow: true}
	}

	if rawToken == "" {
		return Decision{Reason: ReasonUnauthenticated}
	}

	claims, err := tokens.Validate(rawToken)
	if err != nil || claims == nil {
		return Decision{Reason: ReasonUnauthenticated}
	}

	if len(d.Roles) == 0 {
		return Decision{Allow: true, Claims: claims}
	}

	for _, role := range d.Roles {
		if string(role) == claims.Role {
			return Decision{Allow: true, Claims: claims}
		}
	}

	return Decision{Reason: ReasonForbidden, Required: RequiredRoles(d.Roles)}
}

// RequiredRoles returns the role names deduplicated and in sorted order,
// suitable for denial messages.
func RequiredRoles(roles []models.UserRole) []string {
	seen := make(map[string]struct{}, len(roles))
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		name := string(role)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
