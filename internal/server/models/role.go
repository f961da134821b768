package models

import (
	"fmt"
	"strings"
)

// Role is the kind of an account. Only the constants below are valid.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleMerchant Role = "MERCHANT"
	RoleCustomer Role = "CUSTOMER"
)

var roles = map[Role]struct{}{
	RoleAdmin:    {},
	RoleMerchant: {},
	RoleCustomer: {},
}

// ParseRole accepts a role name in any letter case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := roles[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	_, ok := roles[r]
	return ok
}

func (r Role) String() string { return string(r) }
