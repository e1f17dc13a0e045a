package participant

import (
	"fmt"
	"strings"
)

// ID is the platform-assigned identifier of a roster member.
type ID string

func (id ID) String() string {
	return string(id)
}

// Role decides whether a participant's day counts toward scoring.
type Role string

const (
	RolePrimary Role = "primary"
	RoleReserve Role = "reserve"
)

var AllRoles = map[Role]struct{}{
	RolePrimary: {},
	RoleReserve: {},
}

func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := AllRoles[role]; !ok {
		return "", fmt.Errorf("unknown participant role: %q", raw)
	}
	return role, nil
}

func (r Role) Toggle() Role {
	if r == RolePrimary {
		return RoleReserve
	}
	return RolePrimary
}

// Participant is one roster entry of the current war day.
type Participant struct {
	ID          ID
	DisplayName string
	Mention     string
	Role        Role
	Position    int
}

func (p Participant) ValidateIdentity() error {
	if strings.TrimSpace(string(p.ID)) == "" {
		return fmt.Errorf("participant id is required")
	}
	if strings.TrimSpace(p.DisplayName) == "" {
		return fmt.Errorf("participant display name is required: %s", p.ID)
	}

	return nil
}
