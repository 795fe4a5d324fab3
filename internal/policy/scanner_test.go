package policy

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanner_Scan(t *testing.T) {
	s := MustNewScanner(DefaultRuleSet())

	tests := []struct {
		name string
		text string
		want []Match
	}{
		{
			name: "empty text",
			text: "",
			want: nil,
		},
		{
			name: "clean text",
			text: "Your order has shipped and should arrive on Thursday.",
			want: nil,
		},
		{
			name: "case insensitive spam match",
			text: "BUY NOW while stocks last",
			want: []Match{{List: ListSpamLanguage, Name: "hard sell"}},
		},
		{
			name: "multiple sensitive matches",
			text: "Reply with your password and the CVV on the back of the card.",
			want: []Match{
				{List: ListSensitiveData, Name: "cvv request"},
				{List: ListSensitiveData, Name: "password request"},
			},
		},
		{
			name: "repeated phrase fires the rule once",
			text: "buy now, buy now and buy now",
			want: []Match{{List: ListSpamLanguage, Name: "hard sell"}},
		},
		{
			name: "otp requires a word boundary",
			text: "Join us for a hotpot dinner tonight.",
			want: nil,
		},
		{
			name: "otp as its own word",
			text: "Your OTP is 123456.",
			want: []Match{{List: ListSensitiveData, Name: "otp request"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ElementsMatch(t, tt.want, s.Scan(tt.text))
		})
	}
}

func TestScanner_Scan_SensitiveListFirst(t *testing.T) {
	s := MustNewScanner(DefaultRuleSet())

	matches := s.Scan("Send your password and buy now")

	require.Len(t, matches, 2)
	assert.Equal(t, Match{List: ListSensitiveData, Name: "password request"}, matches[0])
	assert.Equal(t, Match{List: ListSpamLanguage, Name: "hard sell"}, matches[1])
}

func TestScanner_Scan_TruncatesLongText(t *testing.T) {
	s := MustNewScanner(DefaultRuleSet())

	t.Run("phrase beyond the scan window is ignored", func(t *testing.T) {
		text := strings.Repeat("x", 5000) + " buy now"
		assert.Empty(t, s.Scan(text))
	})

	t.Run("phrase inside the scan window is found", func(t *testing.T) {
		text := "buy now " + strings.Repeat("x", 5000)
		assert.ElementsMatch(t, []Match{{List: ListSpamLanguage, Name: "hard sell"}}, s.Scan(text))
	})
}

func TestScanner_SetRules(t *testing.T) {
	t.Run("partial update replaces only the named list", func(t *testing.T) {
		s := MustNewScanner(DefaultRuleSet())

		err := s.SetRules(RuleSetUpdate{
			SpamLanguagePatterns: []Rule{{Name: "flash sale", Pattern: "flash sale"}},
		})
		require.NoError(t, err)

		assert.Empty(t, s.Scan("buy now"))
		assert.ElementsMatch(t, []Match{{List: ListSpamLanguage, Name: "flash sale"}}, s.Scan("Flash Sale starts at noon"))
		assert.ElementsMatch(t, []Match{{List: ListSensitiveData, Name: "password request"}}, s.Scan("enter your password"))

		rules := s.Rules()
		assert.Equal(t, DefaultRuleSet().SensitiveDataPatterns, rules.SensitiveDataPatterns)
		assert.Equal(t, []Rule{{Name: "flash sale", Pattern: "flash sale"}}, rules.SpamLanguagePatterns)
	})

	t.Run("empty update changes nothing", func(t *testing.T) {
		s := MustNewScanner(DefaultRuleSet())

		require.NoError(t, s.SetRules(RuleSetUpdate{}))

		assert.Equal(t, DefaultRuleSet(), s.Rules())
	})

	t.Run("explicit empty list clears it", func(t *testing.T) {
		s := MustNewScanner(DefaultRuleSet())

		err := s.SetRules(RuleSetUpdate{SensitiveDataPatterns: []Rule{}})
		require.NoError(t, err)

		assert.Empty(t, s.Scan("enter your password"))
		assert.NotEmpty(t, s.Scan("buy now"))
	})

	t.Run("invalid pattern rejects the whole update", func(t *testing.T) {
		s := MustNewScanner(DefaultRuleSet())

		err := s.SetRules(RuleSetUpdate{
			SensitiveDataPatterns: []Rule{{Name: "iban request", Pattern: "iban"}},
			SpamLanguagePatterns:  []Rule{{Name: "broken", Pattern: "("}},
		})
		require.Error(t, err)

		assert.Equal(t, DefaultRuleSet(), s.Rules())
		assert.Empty(t, s.Scan("iban"))
	})

	t.Run("missing rule name is rejected", func(t *testing.T) {
		s := MustNewScanner(DefaultRuleSet())

		err := s.SetRules(RuleSetUpdate{SpamLanguagePatterns: []Rule{{Pattern: "deal"}}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name is required")
	})
}

func TestScanner_Replace(t *testing.T) {
	s := MustNewScanner(DefaultRuleSet())

	next := RuleSet{
		SensitiveDataPatterns: []Rule{{Name: "iban request", Pattern: "iban"}},
		SpamLanguagePatterns:  []Rule{{Name: "flash sale", Pattern: "flash sale"}},
	}
	require.NoError(t, s.Replace(next))

	assert.Equal(t, next, s.Rules())
	assert.Empty(t, s.Scan("buy now"))
	assert.NotEmpty(t, s.Scan("share your IBAN"))

	err := s.Replace(RuleSet{SpamLanguagePatterns: []Rule{{Name: "broken", Pattern: "("}}})
	require.Error(t, err)
	assert.Equal(t, next, s.Rules())
}

func TestScanner_RulesReturnsCopy(t *testing.T) {
	s := MustNewScanner(DefaultRuleSet())

	rules := s.Rules()
	rules.SpamLanguagePatterns[0] = Rule{Name: "mutated", Pattern: "mutated"}

	assert.Equal(t, DefaultRuleSet(), s.Rules())
	assert.NotEmpty(t, s.Scan("buy now"))
}

func TestScanner_ConcurrentScanAndUpdate(t *testing.T) {
	s := MustNewScanner(DefaultRuleSet())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.Scan("buy now and enter your password")
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = s.SetRules(RuleSetUpdate{
					SpamLanguagePatterns: []Rule{{Name: "flash sale", Pattern: "flash sale"}},
				})
				_ = s.Replace(DefaultRuleSet())
			}
		}()
	}
	wg.Wait()

	// Whichever write landed last, the scanner must still hold a complete set.
	rules := s.Rules()
	assert.NotEmpty(t, rules.SensitiveDataPatterns)
	assert.NotEmpty(t, rules.SpamLanguagePatterns)
}
