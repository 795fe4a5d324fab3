package policy

import "sync"

// List identifies which rule list a match came from.
type List string

const (
	ListSensitiveData List = "sensitive_data"
	ListSpamLanguage  List = "spam_language"
)

// Match is one rule that fired during a scan.
type Match struct {
	List List   `json:"list"`
	Name string `json:"name"`
}

// maxScanBytes bounds the amount of text scanned per field. Template text
// arrives from untrusted callers and the platform rejects anything near this
// size anyway.
const maxScanBytes = 4096

// compiledSet is an immutable snapshot of the rule set with its compiled
// patterns. The scanner swaps whole snapshots so in-flight scans always see
// a consistent pair of lists.
type compiledSet struct {
	rules     RuleSet
	sensitive []compiledRule
	spam      []compiledRule
}

// Scanner checks text fragments against the configured pattern lists.
// It is safe for concurrent use; SetRules replaces the active snapshot
// atomically.
type Scanner struct {
	mu      sync.RWMutex
	current *compiledSet
}

// NewScanner returns a scanner seeded with the given rule set. Invalid
// patterns in the seed are rejected.
func NewScanner(set RuleSet) (*Scanner, error) {
	compiled, err := compile(set)
	if err != nil {
		return nil, err
	}
	return &Scanner{current: compiled}, nil
}

// MustNewScanner is NewScanner for rule sets known to be valid, such as the
// built-in defaults.
func MustNewScanner(set RuleSet) *Scanner {
	s, err := NewScanner(set)
	if err != nil {
		panic(err)
	}
	return s
}

func compile(set RuleSet) (*compiledSet, error) {
	sensitive, err := compileRules(set.SensitiveDataPatterns)
	if err != nil {
		return nil, err
	}
	spam, err := compileRules(set.SpamLanguagePatterns)
	if err != nil {
		return nil, err
	}
	return &compiledSet{
		rules: RuleSet{
			SensitiveDataPatterns: cloneRules(set.SensitiveDataPatterns),
			SpamLanguagePatterns:  cloneRules(set.SpamLanguagePatterns),
		},
		sensitive: sensitive,
		spam:      spam,
	}, nil
}

// Rules returns a copy of the effective rule set.
func (s *Scanner) Rules() RuleSet {
	s.mu.RLock()
	set := s.current
	s.mu.RUnlock()
	return RuleSet{
		SensitiveDataPatterns: cloneRules(set.rules.SensitiveDataPatterns),
		SpamLanguagePatterns:  cloneRules(set.rules.SpamLanguagePatterns),
	}
}

// SetRules replaces exactly the lists present in the update, keeping the
// other list at its previous value. All new patterns are compiled before the
// swap; on error the active set is left unchanged.
func (s *Scanner) SetRules(update RuleSetUpdate) error {
	var sensitive, spam []compiledRule
	var err error
	if update.SensitiveDataPatterns != nil {
		if sensitive, err = compileRules(update.SensitiveDataPatterns); err != nil {
			return err
		}
	}
	if update.SpamLanguagePatterns != nil {
		if spam, err = compileRules(update.SpamLanguagePatterns); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := &compiledSet{
		rules:     s.current.rules,
		sensitive: s.current.sensitive,
		spam:      s.current.spam,
	}
	if update.SensitiveDataPatterns != nil {
		next.rules.SensitiveDataPatterns = cloneRules(update.SensitiveDataPatterns)
		next.sensitive = sensitive
	}
	if update.SpamLanguagePatterns != nil {
		next.rules.SpamLanguagePatterns = cloneRules(update.SpamLanguagePatterns)
		next.spam = spam
	}
	s.current = next
	return nil
}

// Replace swaps in a complete rule set, validating it first.
func (s *Scanner) Replace(set RuleSet) error {
	compiled, err := compile(set)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.current = compiled
	s.mu.Unlock()
	return nil
}

// Scan reports every rule that matches the text, one match per rule.
// Matching is case-insensitive. Text beyond maxScanBytes is ignored.
func (s *Scanner) Scan(text string) []Match {
	if text == "" {
		return nil
	}
	if len(text) > maxScanBytes {
		text = text[:maxScanBytes]
	}

	s.mu.RLock()
	set := s.current
	s.mu.RUnlock()

	var matches []Match
	for _, r := range set.sensitive {
		if r.re.MatchString(text) {
			matches = append(matches, Match{List: ListSensitiveData, Name: r.name})
		}
	}
	for _, r := range set.spam {
		if r.re.MatchString(text) {
			matches = append(matches, Match{List: ListSpamLanguage, Name: r.name})
		}
	}
	return matches
}
