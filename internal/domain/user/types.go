package user

import "errors"

var ErrInvalidRole = errors.New("invalid role")

// Role is carried in access tokens issued by the account service.
type Role string

const (
	RoleGuest   Role = "guest"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

var roleRank = map[Role]int{
	RoleGuest:   1,
	RoleManager: 2,
	RoleAdmin:   3,
}

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r ranks at or above minRole. Unknown roles rank below everything.
func (r Role) AtLeast(minRole Role) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	want, ok := roleRank[minRole]
	return ok && have >= want
}

// CanViewAnyReservation is reserved for hotel staff.
func (r Role) CanViewAnyReservation() bool {
	return r.AtLeast(RoleManager)
}

func NewRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", ErrInvalidRole
	}
	return role, nil
}
