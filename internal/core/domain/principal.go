package domain

// Principal is the verified identity extracted from a session token.
// It is immutable for the lifetime of the request.
type Principal struct {
	UserID int64  `json:"user_id"`
	DNI    string `json:"dni"`
	RoleID int64  `json:"role_id"`
	Role   Role   `json:"role"`
}

func (p Principal) IsAdmin() bool      { return p.Role == RoleAdmin }
func (p Principal) IsBiochemist() bool { return p.Role == RoleBiochemist }
func (p Principal) IsPatient() bool    { return p.Role == RolePatient }
