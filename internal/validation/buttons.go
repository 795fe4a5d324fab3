package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxButtonTextLen = 25
	maxQuickReplies  = 3
	maxCTAButtons    = 2
)

// phoneRe is E.164: a leading +, a first digit 1-9, and 7-15 digits total
// with no separators.
var phoneRe = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

// ValidateButtons checks the button collection. A nil or empty collection is
// valid. Collection-level checks (class mixing, counts) fire once; every
// button is then checked on its own, so a single button can accumulate
// several errors.
func ValidateButtons(buttons []Button) []ValidationError {
	if len(buttons) == 0 {
		return nil
	}

	var errs []ValidationError

	quickReplies := 0
	ctas := 0
	for _, b := range buttons {
		switch b.Type {
		case ButtonQuickReply:
			quickReplies++
		case ButtonURL, ButtonPhoneNumber:
			ctas++
		}
	}

	if quickReplies > 0 && ctas > 0 {
		errs = append(errs, ValidationError{
			Field:   "components.buttons",
			Code:    CodeMixedButtonTypes,
			Message: "Quick reply buttons cannot be mixed with call-to-action buttons",
		})
	}
	if quickReplies > maxQuickReplies {
		errs = append(errs, ValidationError{
			Field:   "components.buttons",
			Code:    CodeTooManyQuickReplyButtons,
			Message: fmt.Sprintf("A template can have at most %d quick reply buttons", maxQuickReplies),
		})
	}
	if ctas > maxCTAButtons {
		errs = append(errs, ValidationError{
			Field:   "components.buttons",
			Code:    CodeTooManyCTAButtons,
			Message: fmt.Sprintf("A template can have at most %d call-to-action buttons", maxCTAButtons),
		})
	}

	// Case-insensitive text collision counts; empty texts are covered by the
	// required check instead.
	textCount := make(map[string]int, len(buttons))
	for _, b := range buttons {
		if b.Text != "" {
			textCount[strings.ToLower(b.Text)]++
		}
	}

	for i, b := range buttons {
		textField := fmt.Sprintf("components.buttons[%d].text", i)

		if b.Text == "" {
			errs = append(errs, ValidationError{
				Field:   textField,
				Code:    CodeButtonTextRequired,
				Message: "Button text is required",
			})
		} else {
			if utf8.RuneCountInString(b.Text) > maxButtonTextLen {
				errs = append(errs, ValidationError{
					Field:   textField,
					Code:    CodeButtonTextTooLong,
					Message: fmt.Sprintf("Button text cannot exceed %d characters", maxButtonTextLen),
				})
			}
			if textCount[strings.ToLower(b.Text)] > 1 {
				errs = append(errs, ValidationError{
					Field:   textField,
					Code:    CodeDuplicateButtonText,
					Message: "Button text duplicates another button in this template",
				})
			}
		}

		switch b.Type {
		case ButtonURL:
			urlField := fmt.Sprintf("components.buttons[%d].url", i)
			if b.URL == "" {
				errs = append(errs, ValidationError{
					Field:   urlField,
					Code:    CodeButtonURLRequired,
					Message: "URL buttons require a url",
				})
			} else if !validButtonURL(b.URL) {
				errs = append(errs, ValidationError{
					Field:   urlField,
					Code:    CodeInvalidButtonURL,
					Message: "Button URL must start with http:// or https:// and be well formed",
				})
			}
		case ButtonPhoneNumber:
			phoneField := fmt.Sprintf("components.buttons[%d].phoneNumber", i)
			if b.PhoneNumber == "" {
				errs = append(errs, ValidationError{
					Field:   phoneField,
					Code:    CodeButtonPhoneRequired,
					Message: "Phone number buttons require a phoneNumber",
				})
			} else if !phoneRe.MatchString(b.PhoneNumber) {
				errs = append(errs, ValidationError{
					Field:   phoneField,
					Code:    CodeInvalidPhoneFormat,
					Message: "Phone number must be E.164, e.g. +14155552671",
				})
			}
		}
	}

	return errs
}

// validButtonURL accepts http(s) URLs with a host. A {{1}} placeholder in
// the path or query is allowed, so it is neutralized before parsing.
func validButtonURL(raw string) bool {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return false
	}
	neutral := strings.NewReplacer("{{", "", "}}", "").Replace(raw)
	u, err := url.Parse(neutral)
	if err != nil {
		return false
	}
	return u.Host != ""
}
