package auth

import "strings"

// DefaultDisplayName is used when a verified session carries no name claim.
const DefaultDisplayName = "No Name"

// ResolvedIdentity is the caller identity reconstructed from a verified session on every request.
type ResolvedIdentity struct {
	UID     string `json:"uid"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	IsAdmin bool   `json:"is_admin"`
}

// IdentityFromSession maps a provider claim set onto a ResolvedIdentity.
// Missing optional claims fall back to defaults so partially provisioned accounts still resolve.
func IdentityFromSession(session VerifiedSession) ResolvedIdentity {
	name := strings.TrimSpace(stringClaim(session.Claims, ClaimName))
	if name == "" {
		name = DefaultDisplayName
	}
	isAdmin, _ := session.Claims[ClaimIsAdmin].(bool)
	return ResolvedIdentity{
		UID:     strings.TrimSpace(session.UID),
		Email:   stringClaim(session.Claims, ClaimEmail),
		Name:    name,
		Role:    stringClaim(session.Claims, ClaimRole),
		IsAdmin: isAdmin,
	}
}

func stringClaim(claims map[string]interface{}, key string) string {
	value, _ := claims[key].(string)
	return value
}
