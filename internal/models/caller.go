package models

// Caller identifies who is invoking a command. It is resolved from the
// session by the HTTP layer and passed explicitly into every service call.
type Caller struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	PondokID *string  `json:"pondok_id,omitempty"`
}

func (c Caller) IsPusat() bool {
	return c.Role == RoleAdminPusat
}

// OwnsPondok reports whether the caller is the admin of the given pondok.
func (c Caller) OwnsPondok(pondokID string) bool {
	return c.Role == RoleAdminPondok && c.PondokID != nil && *c.PondokID == pondokID
}

// CanView reports whether the caller may read data belonging to pondokID.
func (c Caller) CanView(pondokID string) bool {
	return c.IsPusat() || c.OwnsPondok(pondokID)
}
