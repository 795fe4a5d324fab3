package validation

import (
	"context"
	"testing"

	"whatsapp-crm/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(policy.MustNewScanner(policy.DefaultRuleSet()))
}

func validTemplate() *Template {
	return &Template{
		Name:     "order_ready",
		Category: CategoryUtility,
		Language: "en_US",
		Components: Components{
			Body: &Body{Text: "Hello {{1}}, your order {{2}} is ready for pickup at our store."},
		},
		SampleValues: map[string]string{"1": "Ana", "2": "8841"},
	}
}

func TestEngine_Validate_ValidTemplate(t *testing.T) {
	e := newTestEngine(t)

	result := e.Validate(context.Background(), validTemplate())

	assert.True(t, result.IsValid)
	require.NotNil(t, result.Errors)
	assert.Empty(t, result.Errors)
}

func TestEngine_Validate_MissingRequiredFields(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name       string
		tpl        *Template
		wantFields []string
	}{
		{
			name:       "nil template",
			tpl:        nil,
			wantFields: []string{"name", "category", "components.body.text"},
		},
		{
			name:       "empty template",
			tpl:        &Template{},
			wantFields: []string{"name", "category", "components.body.text"},
		},
		{
			name: "body present but empty",
			tpl: &Template{
				Name:       "greeting",
				Category:   CategoryMarketing,
				Components: Components{Body: &Body{Text: ""}},
			},
			wantFields: []string{"components.body.text"},
		},
		{
			name: "only category missing",
			tpl: &Template{
				Name:       "greeting",
				Components: Components{Body: &Body{Text: "Welcome to our store, we are glad you joined."}},
			},
			wantFields: []string{"category"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := e.Validate(context.Background(), tt.tpl)

			assert.False(t, result.IsValid)
			require.Len(t, result.Errors, len(tt.wantFields))

			var fields []string
			for _, err := range result.Errors {
				assert.Equal(t, CodeMissingRequiredField, err.Code)
				fields = append(fields, err.Field)
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}
}

// A failure in one stage must not hide findings from the others.
func TestEngine_Validate_AllStagesReport(t *testing.T) {
	e := newTestEngine(t)

	tpl := &Template{
		Category: CategoryMarketing,
		Components: Components{
			Body:    &Body{Text: "Act now! Your package {{2}} is waiting at the depot."},
			Buttons: []Button{{Type: ButtonURL, Text: "Open", URL: "not-a-url"}},
		},
	}

	result := e.Validate(context.Background(), tpl)

	assert.False(t, result.IsValid)
	assert.ElementsMatch(t, []Code{
		CodeMissingRequiredField,
		CodeNonSequentialPlaceholders,
		CodeInvalidButtonURL,
		CodePolicyViolationSpamLanguage,
	}, errorCodes(result.Errors))
}

func TestEngine_Validate_SpamAndSensitiveTogether(t *testing.T) {
	e := newTestEngine(t)

	tpl := validTemplate()
	tpl.Components.Body = &Body{Text: "Buy now! Enter your credit card to get started."}

	result := e.Validate(context.Background(), tpl)

	assert.False(t, result.IsValid)
	assert.ElementsMatch(t, []Code{
		CodePolicyViolationSpamLanguage,
		CodePolicyViolationSensitiveData,
	}, errorCodes(result.Errors))
}

func TestEngine_Validate_PolicyScansEveryTextField(t *testing.T) {
	e := newTestEngine(t)

	tpl := &Template{
		Name:     "seasonal_promo",
		Category: CategoryMarketing,
		Components: Components{
			Header:  &Header{Type: HeaderText, Text: "Limited time offer"},
			Body:    &Body{Text: "Our spring collection has arrived in every store near you."},
			Footer:  &Footer{Text: "Click here to stop"},
			Buttons: []Button{{Type: ButtonQuickReply, Text: "Free money"}},
		},
	}

	result := e.Validate(context.Background(), tpl)

	require.Len(t, result.Errors, 3)
	var fields []string
	for _, err := range result.Errors {
		assert.Equal(t, CodePolicyViolationSpamLanguage, err.Code)
		fields = append(fields, err.Field)
	}
	assert.ElementsMatch(t, []string{
		"components.header.text",
		"components.footer.text",
		"components.buttons[0].text",
	}, fields)
}

func TestEngine_Validate_SensitiveDataMessages(t *testing.T) {
	e := newTestEngine(t)

	tpl := validTemplate()
	tpl.Components.Body = &Body{Text: "Please reply with your password and OTP to continue."}

	result := e.Validate(context.Background(), tpl)

	require.Len(t, result.Errors, 2)
	for _, err := range result.Errors {
		assert.Equal(t, CodePolicyViolationSensitiveData, err.Code)
		assert.Equal(t, "components.body.text", err.Field)
		assert.Contains(t, err.Message, "sensitive data")
	}
}

func TestEngine_SetPolicyRules(t *testing.T) {
	e := newTestEngine(t)

	defaults := e.PolicyRules()
	require.NotEmpty(t, defaults.SensitiveDataPatterns)
	require.NotEmpty(t, defaults.SpamLanguagePatterns)

	t.Run("partial update replaces only the given list", func(t *testing.T) {
		err := e.SetPolicyRules(policy.RuleSetUpdate{
			SpamLanguagePatterns: []policy.Rule{{Name: "winter push", Pattern: "winter sale"}},
		})
		require.NoError(t, err)

		rules := e.PolicyRules()
		assert.Len(t, rules.SpamLanguagePatterns, 1)
		assert.Equal(t, defaults.SensitiveDataPatterns, rules.SensitiveDataPatterns)

		tpl := validTemplate()
		tpl.Components.Body = &Body{Text: "Our WINTER SALE starts tomorrow across all stores."}
		result := e.Validate(context.Background(), tpl)
		assert.ElementsMatch(t, []Code{CodePolicyViolationSpamLanguage}, errorCodes(result.Errors))

		// The old spam list is gone.
		tpl.Components.Body = &Body{Text: "Buy now and pick any of our new seasonal flavors."}
		result = e.Validate(context.Background(), tpl)
		assert.True(t, result.IsValid)
	})

	t.Run("invalid pattern rejects the whole update", func(t *testing.T) {
		before := e.PolicyRules()

		err := e.SetPolicyRules(policy.RuleSetUpdate{
			SensitiveDataPatterns: []policy.Rule{{Name: "broken", Pattern: "("}},
		})
		require.Error(t, err)
		assert.Equal(t, before, e.PolicyRules())
	})

	t.Run("explicit empty list clears it", func(t *testing.T) {
		err := e.SetPolicyRules(policy.RuleSetUpdate{
			SensitiveDataPatterns: []policy.Rule{},
		})
		require.NoError(t, err)

		tpl := validTemplate()
		tpl.Components.Body = &Body{Text: "Your password reset link expires in fifteen minutes."}
		result := e.Validate(context.Background(), tpl)
		assert.True(t, result.IsValid)
	})
}
