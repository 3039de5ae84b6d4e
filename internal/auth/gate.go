package auth

// Decision is the outcome of an authorization check.
type Decision bool

const (
	Denied  Decision = false
	Allowed Decision = true
)

// RequireAdmin allows only authenticated callers carrying the admin claim.
func RequireAdmin(identity ResolvedIdentity, authenticated bool) Decision {
	if !authenticated || identity.UID == "" {
		return Denied
	}
	if !identity.IsAdmin {
		return Denied
	}
	return Allowed
}
