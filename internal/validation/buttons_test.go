package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateButtons_EmptyCollection(t *testing.T) {
	assert.Empty(t, ValidateButtons(nil))
	assert.Empty(t, ValidateButtons([]Button{}))
}

func TestValidateButtons_ValidCollections(t *testing.T) {
	tests := []struct {
		name    string
		buttons []Button
	}{
		{
			name: "three quick replies",
			buttons: []Button{
				{Type: ButtonQuickReply, Text: "Yes"},
				{Type: ButtonQuickReply, Text: "No"},
				{Type: ButtonQuickReply, Text: "Maybe later"},
			},
		},
		{
			name: "url plus phone",
			buttons: []Button{
				{Type: ButtonURL, Text: "Visit store", URL: "https://example.com/store"},
				{Type: ButtonPhoneNumber, Text: "Call us", PhoneNumber: "+14155552671"},
			},
		},
		{
			name: "url with placeholder in path",
			buttons: []Button{
				{Type: ButtonURL, Text: "Track order", URL: "https://example.com/track/{{1}}"},
			},
		},
		{
			name: "text at the length limit",
			buttons: []Button{
				{Type: ButtonQuickReply, Text: strings.Repeat("x", 25)},
			},
		},
		{
			name: "multibyte text counted in runes",
			buttons: []Button{
				{Type: ButtonQuickReply, Text: strings.Repeat("ñ", 25)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, ValidateButtons(tt.buttons))
		})
	}
}

func TestValidateButtons_ClassAndCountRules(t *testing.T) {
	tests := []struct {
		name      string
		buttons   []Button
		wantCodes []Code
	}{
		{
			name: "quick reply mixed with cta",
			buttons: []Button{
				{Type: ButtonQuickReply, Text: "Yes"},
				{Type: ButtonURL, Text: "Visit", URL: "https://example.com"},
			},
			wantCodes: []Code{CodeMixedButtonTypes},
		},
		{
			name: "too many quick replies",
			buttons: []Button{
				{Type: ButtonQuickReply, Text: "One"},
				{Type: ButtonQuickReply, Text: "Two"},
				{Type: ButtonQuickReply, Text: "Three"},
				{Type: ButtonQuickReply, Text: "Four"},
			},
			wantCodes: []Code{CodeTooManyQuickReplyButtons},
		},
		{
			name: "too many cta buttons",
			buttons: []Button{
				{Type: ButtonURL, Text: "Shop", URL: "https://example.com/shop"},
				{Type: ButtonURL, Text: "Help", URL: "https://example.com/help"},
				{Type: ButtonPhoneNumber, Text: "Call", PhoneNumber: "+14155552671"},
			},
			wantCodes: []Code{CodeTooManyCTAButtons},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateButtons(tt.buttons)

			assert.ElementsMatch(t, tt.wantCodes, errorCodes(errs))
			for _, e := range errs {
				assert.Equal(t, "components.buttons", e.Field)
			}
		})
	}
}

func TestValidateButtons_TextRules(t *testing.T) {
	t.Run("missing text", func(t *testing.T) {
		errs := ValidateButtons([]Button{{Type: ButtonQuickReply, Text: ""}})

		require.Len(t, errs, 1)
		assert.Equal(t, CodeButtonTextRequired, errs[0].Code)
		assert.Equal(t, "components.buttons[0].text", errs[0].Field)
	})

	t.Run("two empty texts are not duplicates", func(t *testing.T) {
		errs := ValidateButtons([]Button{
			{Type: ButtonQuickReply, Text: ""},
			{Type: ButtonQuickReply, Text: ""},
		})

		assert.ElementsMatch(t, []Code{CodeButtonTextRequired, CodeButtonTextRequired}, errorCodes(errs))
	})

	t.Run("text over the limit", func(t *testing.T) {
		errs := ValidateButtons([]Button{{Type: ButtonQuickReply, Text: strings.Repeat("x", 26)}})

		require.Len(t, errs, 1)
		assert.Equal(t, CodeButtonTextTooLong, errs[0].Code)
	})

	t.Run("duplicate text is case-insensitive", func(t *testing.T) {
		errs := ValidateButtons([]Button{
			{Type: ButtonQuickReply, Text: "Yes"},
			{Type: ButtonQuickReply, Text: "YES"},
		})

		require.Len(t, errs, 2)
		assert.Equal(t, CodeDuplicateButtonText, errs[0].Code)
		assert.Equal(t, "components.buttons[0].text", errs[0].Field)
		assert.Equal(t, CodeDuplicateButtonText, errs[1].Code)
		assert.Equal(t, "components.buttons[1].text", errs[1].Field)
	})
}

func TestValidateButtons_URLRules(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantCodes []Code
	}{
		{
			name:      "missing url",
			url:       "",
			wantCodes: []Code{CodeButtonURLRequired},
		},
		{
			name:      "wrong scheme",
			url:       "ftp://example.com/files",
			wantCodes: []Code{CodeInvalidButtonURL},
		},
		{
			name:      "no scheme",
			url:       "example.com/offer",
			wantCodes: []Code{CodeInvalidButtonURL},
		},
		{
			name:      "scheme without host",
			url:       "https://",
			wantCodes: []Code{CodeInvalidButtonURL},
		},
		{
			name:      "https with host",
			url:       "https://example.com",
			wantCodes: nil,
		},
		{
			name:      "http with host",
			url:       "http://example.com/promo",
			wantCodes: nil,
		},
		{
			name:      "placeholder in query",
			url:       "https://example.com/redeem?code={{1}}",
			wantCodes: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateButtons([]Button{{Type: ButtonURL, Text: "Open", URL: tt.url}})

			assert.ElementsMatch(t, tt.wantCodes, errorCodes(errs))
			for _, e := range errs {
				assert.Equal(t, "components.buttons[0].url", e.Field)
			}
		})
	}
}

func TestValidateButtons_PhoneRules(t *testing.T) {
	tests := []struct {
		name      string
		phone     string
		wantCodes []Code
	}{
		{
			name:      "missing phone",
			phone:     "",
			wantCodes: []Code{CodeButtonPhoneRequired},
		},
		{
			name:      "too short",
			phone:     "+1",
			wantCodes: []Code{CodeInvalidPhoneFormat},
		},
		{
			name:      "no plus prefix",
			phone:     "14155552671",
			wantCodes: []Code{CodeInvalidPhoneFormat},
		},
		{
			name:      "leading zero after plus",
			phone:     "+04155552671",
			wantCodes: []Code{CodeInvalidPhoneFormat},
		},
		{
			name:      "separators are not allowed",
			phone:     "+1 415 555 2671",
			wantCodes: []Code{CodeInvalidPhoneFormat},
		},
		{
			name:      "valid e164",
			phone:     "+1234567890",
			wantCodes: nil,
		},
		{
			name:      "valid long e164",
			phone:     "+447911123456",
			wantCodes: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateButtons([]Button{{Type: ButtonPhoneNumber, Text: "Call", PhoneNumber: tt.phone}})

			assert.ElementsMatch(t, tt.wantCodes, errorCodes(errs))
			for _, e := range errs {
				assert.Equal(t, "components.buttons[0].phoneNumber", e.Field)
			}
		})
	}
}

func TestValidateButtons_ErrorsAccumulatePerButton(t *testing.T) {
	errs := ValidateButtons([]Button{
		{Type: ButtonURL, Text: strings.Repeat("x", 30), URL: "not-a-url"},
	})

	assert.ElementsMatch(t, []Code{CodeButtonTextTooLong, CodeInvalidButtonURL}, errorCodes(errs))
}
