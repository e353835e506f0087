// Package domain holds GranjaPro's entities, their field-level rules and the
// error taxonomy shared by every layer.
package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Role is the closed set of identity roles.
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleOperator Role = "Operator"
)

// ParseRole decodes a role name, ignoring case. Anything else is rejected.
func ParseRole(s string) (Role, error) {
	for _, r := range []Role{RoleAdmin, RoleOperator} {
		if strings.EqualFold(strings.TrimSpace(s), string(r)) {
			return r, nil
		}
	}
	return "", invalid("unknown role %q (want Admin or Operator)", s)
}

const (
	MinNameLength     = 3
	MinPasswordLength = 6
)

var digestShape = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Identity is a named principal with a password digest and a role.
// The plaintext password is never stored.
type Identity struct {
	ID             string
	Name           string
	PasswordDigest string
	Role           Role
	Active         bool
}

// DigestFunc is the one-way function applied to plaintext passwords.
type DigestFunc func(plaintext string) string

// ValidateName checks an identity name: non-blank, at least MinNameLength characters.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return invalid("name must not be blank")
	}
	if utf8.RuneCountInString(trimmed) < MinNameLength {
		return invalid("name must have at least %d characters", MinNameLength)
	}
	return nil
}

// ValidatePassword checks a plaintext password before it is hashed.
func ValidatePassword(plaintext string) error {
	if strings.TrimSpace(plaintext) == "" {
		return invalid("password must not be blank")
	}
	if utf8.RuneCountInString(plaintext) < MinPasswordLength {
		return invalid("password must have at least %d characters", MinPasswordLength)
	}
	return nil
}

// NewIdentity builds an active identity from user input. The id is left empty
// for the credential store to assign.
func NewIdentity(name, plaintext string, role Role, digest DigestFunc) (Identity, error) {
	if err := ValidateName(name); err != nil {
		return Identity{}, err
	}
	if err := ValidatePassword(plaintext); err != nil {
		return Identity{}, err
	}
	role, err := ParseRole(string(role))
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		Name:           strings.TrimSpace(name),
		PasswordDigest: digest(plaintext),
		Role:           role,
		Active:         true,
	}, nil
}

// RestoreIdentity rebuilds an identity from stored fields, taking the digest as is.
func RestoreIdentity(id, name, passwordDigest string, role Role, active bool) (Identity, error) {
	if strings.TrimSpace(id) == "" {
		return Identity{}, invalid("identity id must not be blank")
	}
	if err := ValidateName(name); err != nil {
		return Identity{}, err
	}
	if !digestShape.MatchString(passwordDigest) {
		return Identity{}, invalid("identity %s has a malformed password digest", id)
	}
	role, err := ParseRole(string(role))
	if err != nil {
		return Identity{}, err
	}
	return Identity{ID: id, Name: name, PasswordDigest: passwordDigest, Role: role, Active: active}, nil
}

func (i Identity) HasRole(r Role) bool { return i.Role == r }

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

func (i Identity) IsOperator() bool { return i.Role == RoleOperator }

// String never includes the digest.
func (i Identity) String() string {
	return fmt.Sprintf("%s (%s, active=%t)", i.Name, i.Role, i.Active)
}
