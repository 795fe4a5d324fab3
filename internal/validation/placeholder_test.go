package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// errorCodes flattens an error list to its codes for order-independent
// comparison.
func errorCodes(errs []ValidationError) []Code {
	codes := make([]Code, 0, len(errs))
	for _, e := range errs {
		codes = append(codes, e.Code)
	}
	return codes
}

func TestExtractPlaceholders(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []int
	}{
		{
			name: "empty text",
			text: "",
			want: nil,
		},
		{
			name: "no placeholders",
			text: "Your package has arrived at the store.",
			want: nil,
		},
		{
			name: "two placeholders in order",
			text: "Hi {{1}}, your order {{2}} shipped",
			want: []int{1, 2},
		},
		{
			name: "order of appearance preserved",
			text: "{{2}} then {{1}}",
			want: []int{2, 1},
		},
		{
			name: "duplicates are not collapsed",
			text: "{{1}} and {{1}} and {{2}}",
			want: []int{1, 1, 2},
		},
		{
			name: "malformed tokens are not extracted",
			text: "{1} {{}} {{name}} %s",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractPlaceholders(tt.text))
		})
	}
}

func TestValidatePlaceholders_BodyText(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantCodes []Code
	}{
		{
			name:      "well formed placeholders",
			text:      "Hello {{1}}, your order {{2}} is ready",
			wantCodes: nil,
		},
		{
			name:      "plain text without placeholders",
			text:      "Your table reservation is confirmed for tonight.",
			wantCodes: nil,
		},
		{
			name:      "repeated index is allowed",
			text:      "Hi {{1}}, yes {{1}}, your code {{2}} works",
			wantCodes: nil,
		},
		{
			name:      "empty placeholder",
			text:      "Hello {{}} world",
			wantCodes: []Code{CodeEmptyPlaceholder},
		},
		{
			name:      "named placeholder",
			text:      "Hello {{name}}, welcome aboard",
			wantCodes: []Code{CodeNamedPlaceholder},
		},
		{
			name:      "single brace token",
			text:      "Hello {1}, welcome aboard",
			wantCodes: []Code{CodeInvalidPlaceholderFormat},
		},
		{
			name:      "printf specifier",
			text:      "Your code is %s for today",
			wantCodes: []Code{CodeFormatSpecifier},
		},
		{
			name:      "adjacent placeholders",
			text:      "Use codes {{1}}{{2}} at checkout",
			wantCodes: []Code{CodeStackedPlaceholders},
		},
		{
			name:      "leading placeholder",
			text:      "{{1}} points were added to your account",
			wantCodes: []Code{CodeLeadingPlaceholder},
		},
		{
			name:      "trailing placeholder",
			text:      "Your delivery code is {{1}}",
			wantCodes: []Code{CodeTrailingPlaceholder},
		},
		{
			name:      "gap in numbering",
			text:      "Hello {{1}}, your order {{3}} is ready",
			wantCodes: []Code{CodeNonSequentialPlaceholders},
		},
		{
			name:      "numbering must start at one",
			text:      "Offer {{2}} ends on Friday",
			wantCodes: []Code{CodeNonSequentialPlaceholders},
		},
		{
			name:      "zero index is not sequential",
			text:      "Offer {{0}} ends on Friday",
			wantCodes: []Code{CodeNonSequentialPlaceholders},
		},
		{
			name:      "leading and trailing reported together",
			text:      "{{1}} and {{2}}",
			wantCodes: []Code{CodeLeadingPlaceholder, CodeTrailingPlaceholder},
		},
		{
			name:      "independent codes accumulate",
			text:      "{{}} {{name}} {1} %s fine",
			wantCodes: []Code{CodeEmptyPlaceholder, CodeNamedPlaceholder, CodeInvalidPlaceholderFormat, CodeFormatSpecifier},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Components{Body: &Body{Text: tt.text}}
			errs := ValidatePlaceholders(c)

			assert.ElementsMatch(t, tt.wantCodes, errorCodes(errs))
			for _, e := range errs {
				assert.Equal(t, "components.body.text", e.Field)
				assert.NotEmpty(t, e.Message)
			}
		})
	}
}

func TestValidatePlaceholders_SingleErrorScenario(t *testing.T) {
	// A numbering gap must surface as exactly one error on the body field.
	c := &Components{Body: &Body{Text: "Hello {{1}}, your order {{3}} is ready"}}
	errs := ValidatePlaceholders(c)

	require.Len(t, errs, 1)
	assert.Equal(t, CodeNonSequentialPlaceholders, errs[0].Code)
	assert.Equal(t, "components.body.text", errs[0].Field)
}

func TestValidatePlaceholders_Header(t *testing.T) {
	t.Run("text header is checked", func(t *testing.T) {
		c := &Components{
			Header: &Header{Type: HeaderText, Text: "Hello {{customer}}"},
			Body:   &Body{Text: "Your order {{1}} is packed and ready"},
		}
		errs := ValidatePlaceholders(c)

		require.Len(t, errs, 1)
		assert.Equal(t, "components.header.text", errs[0].Field)
		assert.Equal(t, CodeNamedPlaceholder, errs[0].Code)
	})

	t.Run("media header text is ignored", func(t *testing.T) {
		c := &Components{
			Header: &Header{Type: HeaderImage, Text: "{{bad}}"},
			Body:   &Body{Text: "Your order {{1}} is packed and ready"},
		}
		assert.Empty(t, ValidatePlaceholders(c))
	})

	t.Run("header and body errors carry distinct fields", func(t *testing.T) {
		c := &Components{
			Header: &Header{Type: HeaderText, Text: "{{}} hi"},
			Body:   &Body{Text: "Hello {1} there"},
		}
		errs := ValidatePlaceholders(c)

		require.Len(t, errs, 2)
		fields := []string{errs[0].Field, errs[1].Field}
		assert.ElementsMatch(t, []string{"components.header.text", "components.body.text"}, fields)
	})
}

func TestValidatePlaceholders_NilComponents(t *testing.T) {
	assert.Empty(t, ValidatePlaceholders(nil))
	assert.Empty(t, ValidatePlaceholders(&Components{}))
}
