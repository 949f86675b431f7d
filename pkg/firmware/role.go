package firmware

import (
	"fmt"
	"strings"
)

// Role identifies which node firmware a board runs in the mesh.
type Role string

const (
	RoleClient  Role = "client"
	RoleForward Role = "forward"
	RoleServer  Role = "server"
)

// Roles returns the closed set of supported roles in stable order.
func Roles() []Role {
	return []Role{RoleClient, RoleForward, RoleServer}
}

// ParseRole maps user input to a Role. It accepts "relay" as an alias
// for the forward role, matching the name used on the boards' silkscreen.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "client":
		return RoleClient, nil
	case "forward", "relay":
		return RoleForward, nil
	case "server":
		return RoleServer, nil
	}
	return "", fmt.Errorf("unknown role %q (expected client, forward or server)", s)
}

// ParseRoles maps a list of user inputs to roles, rejecting duplicates.
func ParseRoles(args []string) ([]Role, error) {
	roles := make([]Role, 0, len(args))
	seen := make(map[Role]bool, len(args))
	for _, a := range args {
		r, err := ParseRole(a)
		if err != nil {
			return nil, err
		}
		if seen[r] {
			return nil, fmt.Errorf("role %q given more than once", r)
		}
		seen[r] = true
		roles = append(roles, r)
	}
	return roles, nil
}
