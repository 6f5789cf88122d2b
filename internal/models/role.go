package models

// Role is the privilege level of a session.
type Role string

const (
	RoleInvalid Role = "invalid"
	RoleUser    Role = "user"
	RoleAdmin   Role = "admin"
)

var roleRank = map[Role]int{
	RoleInvalid: 0,
	RoleUser:    1,
	RoleAdmin:   2,
}

// ParseRole maps a stored role name to a Role; unknown names are invalid.
func ParseRole(s string) Role {
	r := Role(s)
	if _, ok := roleRank[r]; !ok {
		return RoleInvalid
	}
	return r
}

// AtLeast reports whether r grants everything min grants.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

func (r Role) String() string { return string(r) }
