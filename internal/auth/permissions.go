package auth

import (
	"encoding/json"
	"fmt"
	"sort"

	"gamepanel/internal/constants"
)

// PermissionSet is the resolved permissions of a role. It has two variants:
// the "all" set, which grants every permission unconditionally, and an
// explicit set of permission names. The stored wildcard string is parsed into
// the "all" variant once, here, and nowhere else.
type PermissionSet struct {
	all   bool
	perms map[string]struct{}
}

// AllPermissions returns the set granting everything.
func AllPermissions() PermissionSet {
	return PermissionSet{all: true}
}

// NewPermissionSet returns an explicit set of the given permissions.
func NewPermissionSet(perms ...string) PermissionSet {
	set := PermissionSet{perms: make(map[string]struct{}, len(perms))}
	for _, p := range perms {
		if p != "" {
			set.perms[p] = struct{}{}
		}
	}
	return set
}

// ParsePermissionSet converts a stored permission list into a set.
// Any occurrence of the wildcard yields the "all" variant.
func ParsePermissionSet(stored []string) PermissionSet {
	for _, p := range stored {
		if p == constants.PermissionWildcard {
			return AllPermissions()
		}
	}
	return NewPermissionSet(stored...)
}

// ValidatePermissions rejects names outside the catalogue. The wildcard is accepted.
func ValidatePermissions(perms []string) error {
	for _, p := range perms {
		if p == constants.PermissionWildcard {
			continue
		}
		if !isKnownPermission(p) {
			return fmt.Errorf("%w: unknown permission %q", ErrRoleInvalid, p)
		}
	}
	return nil
}

func isKnownPermission(p string) bool {
	for _, known := range constants.AllPermissions {
		if p == known {
			return true
		}
	}
	return false
}

// IsAll reports whether the set grants every permission.
func (s PermissionSet) IsAll() bool {
	return s.all
}

// Allows reports whether the set grants required. Explicit sets never grant
// the empty permission.
func (s PermissionSet) Allows(required string) bool {
	if s.all {
		return true
	}
	if required == "" {
		return false
	}
	_, ok := s.perms[required]
	return ok
}

// Len returns the number of explicit members; the "all" set reports the catalogue size.
func (s PermissionSet) Len() int {
	if s.all {
		return len(constants.AllPermissions)
	}
	return len(s.perms)
}

// Expanded returns the concrete permissions granted, sorted. The "all" set
// expands to the full catalogue and never contains the wildcard.
func (s PermissionSet) Expanded() []string {
	var out []string
	if s.all {
		out = append(out, constants.AllPermissions...)
	} else {
		out = make([]string, 0, len(s.perms))
		for p := range s.perms {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// Stored returns the persisted representation.
func (s PermissionSet) Stored() []string {
	if s.all {
		return []string{constants.PermissionWildcard}
	}
	return s.Expanded()
}

func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Stored())
}

func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var stored []string
	if err := json.Unmarshal(data, &stored); err != nil {
		return err
	}
	*s = ParsePermissionSet(stored)
	return nil
}
