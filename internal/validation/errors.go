package validation

// Code identifies one validation rule. The set is closed: rule violations
// are always reported through one of these codes, never as Go errors.
type Code string

const (
	CodeMissingRequiredField Code = "MISSING_REQUIRED_FIELD"

	// Placeholder codes.
	CodeInvalidPlaceholderFormat  Code = "INVALID_PLACEHOLDER_FORMAT"
	CodeEmptyPlaceholder          Code = "EMPTY_PLACEHOLDER"
	CodeNamedPlaceholder          Code = "NAMED_PLACEHOLDER"
	CodeFormatSpecifier           Code = "FORMAT_SPECIFIER"
	CodeStackedPlaceholders       Code = "STACKED_PLACEHOLDERS"
	CodeLeadingPlaceholder        Code = "LEADING_PLACEHOLDER"
	CodeTrailingPlaceholder       Code = "TRAILING_PLACEHOLDER"
	CodeNonSequentialPlaceholders Code = "NON_SEQUENTIAL_PLACEHOLDERS"

	// Button codes.
	CodeMixedButtonTypes         Code = "MIXED_BUTTON_TYPES"
	CodeTooManyQuickReplyButtons Code = "TOO_MANY_QUICK_REPLY_BUTTONS"
	CodeTooManyCTAButtons        Code = "TOO_MANY_CTA_BUTTONS"
	CodeButtonTextRequired       Code = "BUTTON_TEXT_REQUIRED"
	CodeButtonTextTooLong        Code = "BUTTON_TEXT_TOO_LONG"
	CodeDuplicateButtonText      Code = "DUPLICATE_BUTTON_TEXT"
	CodeButtonURLRequired        Code = "BUTTON_URL_REQUIRED"
	CodeInvalidButtonURL         Code = "INVALID_BUTTON_URL"
	CodeButtonPhoneRequired      Code = "BUTTON_PHONE_REQUIRED"
	CodeInvalidPhoneFormat       Code = "INVALID_PHONE_FORMAT"

	// Policy codes.
	CodePolicyViolationSensitiveData Code = "POLICY_VIOLATION_SENSITIVE_DATA"
	CodePolicyViolationSpamLanguage  Code = "POLICY_VIOLATION_SPAM_LANGUAGE"
)

// ValidationError is one detected rule violation. Field is a dotted path
// that uniquely locates the offending value, e.g. "components.body.text" or
// "components.buttons[2].text", so a UI can highlight it.
type ValidationError struct {
	Field   string `json:"field"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// Result is the outcome of one validation pass.
type Result struct {
	IsValid bool              `json:"isValid"`
	Errors  []ValidationError `json:"errors"`
}
