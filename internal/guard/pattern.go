package guard

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"gamepanel/internal/constants"
)

// PatternLimits bounds the matching cost of a search pattern.
type PatternLimits struct {
	MaxLength      int
	MaxQuantifiers int
	MaxGroups      int
}

// DefaultPatternLimits are the production bounds.
var DefaultPatternLimits = PatternLimits{
	MaxLength:      constants.PatternMaxLength,
	MaxQuantifiers: constants.PatternMaxQuantifiers,
	MaxGroups:      constants.PatternMaxGroups,
}

// Pattern is a search expression that passed the safety checks and compiled.
type Pattern struct {
	Mode   string
	Source string // the translated regular expression
	re     *regexp.Regexp
}

// Match reports whether name matches the pattern.
func (p *Pattern) Match(name string) bool {
	return p.re.MatchString(name)
}

var repeatRegex = regexp.MustCompile(`^\{\d+(,\d*)?\}`)

// CompilePattern checks expr for bounded matching cost in the given mode and
// compiles it. Plaintext matches case-insensitive substrings, globs match
// whole names case-insensitively, regexes are used as given. Globs are
// translated first and the translation goes through the same checks.
func CompilePattern(expr, mode string) (*Pattern, error) {
	return DefaultPatternLimits.Compile(expr, mode)
}

// CheckPattern runs the safety checks on a regular expression without compiling it.
func CheckPattern(expr string) error {
	return DefaultPatternLimits.Check(expr)
}

// Compile is CompilePattern with these limits.
func (l PatternLimits) Compile(expr, mode string) (*Pattern, error) {
	if expr == "" {
		return nil, reject(constants.GuardPattern, RuleEmpty, "pattern is empty")
	}
	if n := utf8.RuneCountInString(expr); n > l.MaxLength {
		return nil, reject(constants.GuardPattern, RuleTooLong, "pattern exceeds %d characters", l.MaxLength)
	}

	var source string
	switch mode {
	case constants.PatternModePlain, "":
		mode = constants.PatternModePlain
		source = "(?i)" + regexp.QuoteMeta(expr)
	case constants.PatternModeGlob:
		translated, err := translateGlob(expr)
		if err != nil {
			return nil, err
		}
		source = "(?i)" + translated
	case constants.PatternModeRegex:
		source = expr
	default:
		return nil, reject(constants.GuardPattern, RuleUnknownMode, "unknown pattern mode")
	}

	if mode != constants.PatternModePlain {
		if err := l.checkStructure(source); err != nil {
			return nil, err
		}
	}

	re, err := regexp.Compile(source)
	if err != nil {
		return nil, reject(constants.GuardPattern, RuleInvalidSyntax, "pattern is not a valid expression")
	}
	return &Pattern{Mode: mode, Source: source, re: re}, nil
}

// Check applies the length and structure limits to a regular expression.
func (l PatternLimits) Check(expr string) error {
	if expr == "" {
		return reject(constants.GuardPattern, RuleEmpty, "pattern is empty")
	}
	if utf8.RuneCountInString(expr) > l.MaxLength {
		return reject(constants.GuardPattern, RuleTooLong, "pattern exceeds %d characters", l.MaxLength)
	}
	return l.checkStructure(expr)
}

type groupFrame struct {
	quantified bool // contains a quantifier at any depth
}

// checkStructure scans the expression once, counting groups and quantifiers
// outside character classes and tracking whether each group contains a
// quantifier, so that a quantifier applied to such a group is caught as
// nested.
func (l PatternLimits) checkStructure(expr string) error {
	var (
		stack       []groupFrame
		top         = groupFrame{}
		groups      int
		quantifiers int
		inClass     bool
		// what the next quantifier would apply to
		lastWasGroup      bool
		lastGroup         groupFrame
		lastWasQuantifier bool
	)

	for i := 0; i < len(expr); i++ {
		c := expr[i]

		if inClass {
			switch c {
			case '\\':
				i++
			case ']':
				inClass = false
			}
			continue
		}

		switch c {
		case '\\':
			if i+1 < len(expr) {
				next := expr[i+1]
				if (next >= '1' && next <= '9') || next == 'k' {
					return reject(constants.GuardPattern, RuleBackreference, "backreferences are not allowed")
				}
				i++
				if (next == 'p' || next == 'P' || next == 'x') && i+1 < len(expr) && expr[i+1] == '{' {
					if end := strings.IndexByte(expr[i+1:], '}'); end >= 0 {
						i += end + 1
					}
				}
			}
			lastWasGroup, lastWasQuantifier = false, false

		case '[':
			inClass = true
			// a leading ] (or ^]) is a literal member
			if i+1 < len(expr) && expr[i+1] == '^' {
				i++
			}
			if i+1 < len(expr) && expr[i+1] == ']' {
				i++
			}
			lastWasGroup, lastWasQuantifier = false, false

		case '(':
			if strings.HasPrefix(expr[i:], "(?P=") {
				return reject(constants.GuardPattern, RuleBackreference, "backreferences are not allowed")
			}
			groups++
			if groups > l.MaxGroups {
				return reject(constants.GuardPattern, RuleTooManyGroups, "pattern has more than %d groups", l.MaxGroups)
			}
			stack = append(stack, top)
			top = groupFrame{}
			if i+1 < len(expr) && expr[i+1] == '?' {
				i++ // group flags, not a quantifier
			}
			lastWasGroup, lastWasQuantifier = false, false

		case ')':
			closed := top
			if len(stack) > 0 {
				top = stack[len(stack)-1]
				stack = stack[:len(stack)-1]
			}
			if closed.quantified {
				top.quantified = true
			}
			lastWasGroup, lastGroup, lastWasQuantifier = true, closed, false

		case '*', '+', '?', '{':
			if c == '{' {
				m := repeatRegex.FindString(expr[i:])
				if m == "" {
					lastWasGroup, lastWasQuantifier = false, false
					continue // literal brace
				}
				i += len(m) - 1
			} else if c == '?' && lastWasQuantifier {
				lastWasQuantifier = false
				continue // lazy modifier
			}

			quantifiers++
			if quantifiers > l.MaxQuantifiers {
				return reject(constants.GuardPattern, RuleTooManyQuantifier, "pattern has more than %d quantifiers", l.MaxQuantifiers)
			}
			if lastWasGroup && lastGroup.quantified {
				return reject(constants.GuardPattern, RuleNestedQuantifier, "nested quantifiers are not allowed")
			}
			top.quantified = true
			lastWasGroup, lastWasQuantifier = false, true

		default:
			lastWasGroup, lastWasQuantifier = false, false
		}
	}
	return nil
}

// translateGlob converts a shell glob into an anchored regular expression.
// * and ? do not cross directory separators; ** does.
func translateGlob(glob string) (string, error) {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			if i+1 < len(glob) && glob[i+1] == '*' {
				for i+1 < len(glob) && glob[i+1] == '*' {
					i++
				}
				b.WriteString(".*")
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		case '[':
			end := strings.IndexByte(glob[i+1:], ']')
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class := glob[i+1 : i+1+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			if class == "" || class == "^" {
				return "", reject(constants.GuardPattern, RuleInvalidSyntax, "empty character class")
			}
			b.WriteString("[")
			b.WriteString(strings.ReplaceAll(class, `\`, `\\`))
			b.WriteString("]")
			i += end + 1
		case '\\':
			if i+1 < len(glob) {
				i++
				b.WriteString(regexp.QuoteMeta(glob[i : i+1]))
			} else {
				b.WriteString(`\\`)
			}
		default:
			b.WriteString(regexp.QuoteMeta(glob[i : i+1]))
		}
	}
	b.WriteString("$")
	return b.String(), nil
}
