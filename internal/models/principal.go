package models

// Principal is the authenticated user making a request. It is rebuilt from
// the bearer token on every request and passed explicitly to services.
type Principal struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// Is reports whether the principal holds role r.
func (p Principal) Is(r Role) bool {
	return p.ID != "" && p.Role == r
}
