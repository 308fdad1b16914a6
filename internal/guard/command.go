package guard

import (
	"sort"
	"strings"
	"unicode"

	"gamepanel/internal/constants"
)

// CommandGuard validates console commands against a verb allow-list and a
// metacharacter blacklist. Commands are never run through a shell, but the
// blacklist still applies.
type CommandGuard struct {
	verbs     map[string]struct{}
	maxLength int
}

// NewCommandGuard creates a guard allowing the given verbs. A nil slice
// selects the built-in allow-list.
func NewCommandGuard(verbs []string) *CommandGuard {
	if verbs == nil {
		verbs = constants.AllowedCommandVerbs
	}
	g := &CommandGuard{
		verbs:     make(map[string]struct{}, len(verbs)),
		maxLength: constants.CommandMaxLength,
	}
	for _, v := range verbs {
		g.verbs[v] = struct{}{}
	}
	return g
}

// Verbs returns the allowed verbs, sorted.
func (g *CommandGuard) Verbs() []string {
	out := make([]string, 0, len(g.verbs))
	for v := range g.verbs {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Validate returns nil if raw may be passed to the container-exec
// collaborator, or a *Rejection naming the violated rule.
func (g *CommandGuard) Validate(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return reject(constants.GuardCommand, RuleEmpty, "command is empty")
	}
	if len(raw) > g.maxLength {
		return reject(constants.GuardCommand, RuleTooLong, "command exceeds %d characters", g.maxLength)
	}
	for _, r := range raw {
		// Newlines would smuggle a second command past the verb check.
		if unicode.IsControl(r) {
			return reject(constants.GuardCommand, RuleControlChar, "command contains control characters")
		}
	}
	if !strings.HasPrefix(raw, "/") {
		return reject(constants.GuardCommand, RuleMissingSlash, "command must start with /")
	}
	if strings.Contains(raw, "$(") || strings.Contains(raw, "${") {
		return reject(constants.GuardCommand, RuleSubstitution, "command substitution is not allowed")
	}
	if i := strings.IndexAny(raw, constants.CommandForbiddenChars); i >= 0 {
		return reject(constants.GuardCommand, RuleForbiddenChar, "character %q is not allowed", raw[i])
	}

	verb := strings.Fields(raw)[0]
	if _, ok := g.verbs[verb]; !ok {
		return reject(constants.GuardCommand, RuleUnknownVerb, "command is not on the allow-list")
	}
	return nil
}
