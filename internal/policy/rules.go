package policy

import (
	"fmt"
	"regexp"
)

// Rule is one named pattern in a rule list. Patterns are regular
// expressions matched case-insensitively against template text.
type Rule struct {
	Name    string `json:"name" yaml:"name"`
	Pattern string `json:"pattern" yaml:"pattern"`
}

// RuleSet holds both pattern lists the scanner checks against.
type RuleSet struct {
	SensitiveDataPatterns []Rule `json:"sensitiveDataPatterns" yaml:"sensitive_data_patterns"`
	SpamLanguagePatterns  []Rule `json:"spamLanguagePatterns" yaml:"spam_language_patterns"`
}

// RuleSetUpdate is a partial rule-set replacement. A nil list leaves the
// scanner's current list untouched; a non-nil list replaces it wholesale,
// so an explicit empty list clears that list.
type RuleSetUpdate struct {
	SensitiveDataPatterns []Rule `json:"sensitiveDataPatterns" yaml:"sensitive_data_patterns"`
	SpamLanguagePatterns  []Rule `json:"spamLanguagePatterns" yaml:"spam_language_patterns"`
}

// Merged returns a copy of the set with the update's non-nil lists applied.
func (s RuleSet) Merged(update RuleSetUpdate) RuleSet {
	out := RuleSet{
		SensitiveDataPatterns: cloneRules(s.SensitiveDataPatterns),
		SpamLanguagePatterns:  cloneRules(s.SpamLanguagePatterns),
	}
	if update.SensitiveDataPatterns != nil {
		out.SensitiveDataPatterns = cloneRules(update.SensitiveDataPatterns)
	}
	if update.SpamLanguagePatterns != nil {
		out.SpamLanguagePatterns = cloneRules(update.SpamLanguagePatterns)
	}
	return out
}

// DefaultRuleSet returns the built-in pattern lists. These cover the common
// payment, identity and credential requests for the sensitive list, and the
// usual urgency and hard-sell phrasing for the spam list.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		SensitiveDataPatterns: []Rule{
			{Name: "credit card request", Pattern: "credit card"},
			{Name: "card number request", Pattern: "card number"},
			{Name: "cvv request", Pattern: "cvv"},
			{Name: "password request", Pattern: "password"},
			{Name: "otp request", Pattern: "\\botp\\b"},
			{Name: "verification code request", Pattern: "verification code"},
			{Name: "pin request", Pattern: "pin number"},
			{Name: "social security request", Pattern: "social security"},
			{Name: "bank account request", Pattern: "bank account"},
		},
		SpamLanguagePatterns: []Rule{
			{Name: "hard sell", Pattern: "buy now"},
			{Name: "urgency act now", Pattern: "act now"},
			{Name: "urgency limited time", Pattern: "limited time"},
			{Name: "urgency last chance", Pattern: "last chance"},
			{Name: "free money", Pattern: "free money"},
			{Name: "cash prize", Pattern: "cash prize"},
			{Name: "prize bait", Pattern: "you have won"},
			{Name: "guarantee claim", Pattern: "100% guaranteed"},
			{Name: "click bait", Pattern: "click here"},
		},
	}
}

type compiledRule struct {
	name string
	re   *regexp.Regexp
}

// compileRules validates and compiles a rule list. Every pattern must
// compile before any rule is accepted, so a bad update never half-applies.
func compileRules(rules []Rule) ([]compiledRule, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		if r.Name == "" {
			return nil, fmt.Errorf("rule %d: name is required", i)
		}
		if r.Pattern == "" {
			return nil, fmt.Errorf("rule %q: pattern is required", r.Name)
		}
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %q: invalid pattern: %w", r.Name, err)
		}
		compiled = append(compiled, compiledRule{name: r.Name, re: re})
	}
	return compiled, nil
}

func cloneRules(rules []Rule) []Rule {
	if rules == nil {
		return nil
	}
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}
