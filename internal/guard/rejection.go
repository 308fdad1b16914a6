// Package guard validates user-supplied strings before they reach a
// collaborator: console commands, filesystem paths, upload filenames and
// search patterns. Guards never execute anything and never touch the
// filesystem beyond resolving paths.
package guard

import (
	"errors"
	"fmt"
)

// Rule identifiers carried by a Rejection.
const (
	RuleEmpty             = "empty"
	RuleTooLong           = "too_long"
	RuleControlChar       = "control_char"
	RuleMissingSlash      = "missing_slash"
	RuleUnknownVerb       = "unknown_verb"
	RuleForbiddenChar     = "forbidden_char"
	RuleSubstitution      = "substitution"
	RuleOutsideRoot       = "outside_root"
	RuleUnresolvable      = "unresolvable"
	RuleInvalidName       = "invalid_name"
	RuleNestedQuantifier  = "nested_quantifier"
	RuleTooManyQuantifier = "too_many_quantifiers"
	RuleTooManyGroups     = "too_many_groups"
	RuleBackreference     = "backreference"
	RuleInvalidSyntax     = "invalid_syntax"
	RuleUnknownMode       = "unknown_mode"
)

// Rejection is a guard refusal. Reason describes which rule the input broke
// and is safe to show to users: it never contains the input itself or any
// resolved filesystem path.
type Rejection struct {
	Guard  string
	Rule   string
	Reason string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s rejected: %s", r.Guard, r.Reason)
}

func reject(guard, rule, format string, args ...interface{}) *Rejection {
	return &Rejection{Guard: guard, Rule: rule, Reason: fmt.Sprintf(format, args...)}
}

// AsRejection extracts a Rejection from err.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
