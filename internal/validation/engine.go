package validation

import (
	"context"
	"fmt"

	"whatsapp-crm/internal/policy"
)

// Engine composes the placeholder, button and policy checks into a single
// validation pass over a template document. It is safe for concurrent use;
// the mutable policy rules live inside the scanner.
type Engine struct {
	scanner *policy.Scanner
}

func NewEngine(scanner *policy.Scanner) *Engine {
	return &Engine{scanner: scanner}
}

// Validate runs every check and merges the errors into one result. No stage
// short-circuits another: a template with a bad button list still gets its
// body scanned for policy violations. Missing required fields produce one
// coarse error each, and the deeper checks simply see nothing for that field.
// The context is accepted so future checks can call out of process.
func (e *Engine) Validate(ctx context.Context, tpl *Template) Result {
	if tpl == nil {
		tpl = &Template{}
	}

	errs := make([]ValidationError, 0, 8)
	errs = append(errs, precheck(tpl)...)
	errs = append(errs, ValidatePlaceholders(&tpl.Components)...)
	errs = append(errs, ValidateButtons(tpl.Components.Buttons)...)
	errs = append(errs, e.scanPolicy(tpl)...)

	return Result{IsValid: len(errs) == 0, Errors: errs}
}

// CalculateQualityScore scores the template using the engine's current
// policy rules for the compliance category.
func (e *Engine) CalculateQualityScore(tpl *Template) QualityScore {
	return calculateQualityScore(tpl, e.scanner)
}

// SetPolicyRules swaps the lists present in update, leaving absent lists
// untouched. The update is rejected as a whole if any pattern fails to
// compile.
func (e *Engine) SetPolicyRules(update policy.RuleSetUpdate) error {
	return e.scanner.SetRules(update)
}

// PolicyRules returns a copy of the effective rule set.
func (e *Engine) PolicyRules() policy.RuleSet {
	return e.scanner.Rules()
}

func precheck(tpl *Template) []ValidationError {
	var errs []ValidationError
	if tpl.Name == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Code:    CodeMissingRequiredField,
			Message: "Template name is required",
		})
	}
	if tpl.Category == "" {
		errs = append(errs, ValidationError{
			Field:   "category",
			Code:    CodeMissingRequiredField,
			Message: "Template category is required",
		})
	}
	if tpl.Components.Body == nil || tpl.Components.Body.Text == "" {
		errs = append(errs, ValidationError{
			Field:   "components.body.text",
			Code:    CodeMissingRequiredField,
			Message: "Template body text is required",
		})
	}
	return errs
}

// scanPolicy runs the policy scanner over every text-bearing field. Each
// matched rule yields one error per field it matched in.
func (e *Engine) scanPolicy(tpl *Template) []ValidationError {
	if e.scanner == nil {
		return nil
	}

	var errs []ValidationError
	scan := func(field, text string) {
		for _, m := range e.scanner.Scan(text) {
			errs = append(errs, policyError(field, m))
		}
	}

	if h := tpl.Components.Header; h != nil && h.Type == HeaderText {
		scan("components.header.text", h.Text)
	}
	if b := tpl.Components.Body; b != nil {
		scan("components.body.text", b.Text)
	}
	if f := tpl.Components.Footer; f != nil {
		scan("components.footer.text", f.Text)
	}
	for i, b := range tpl.Components.Buttons {
		scan(fmt.Sprintf("components.buttons[%d].text", i), b.Text)
	}
	return errs
}

func policyError(field string, m policy.Match) ValidationError {
	if m.List == policy.ListSensitiveData {
		return ValidationError{
			Field:   field,
			Code:    CodePolicyViolationSensitiveData,
			Message: fmt.Sprintf("Content appears to request sensitive data: %s", m.Name),
		}
	}
	return ValidationError{
		Field:   field,
		Code:    CodePolicyViolationSpamLanguage,
		Message: fmt.Sprintf("Content contains spam-like language: %s", m.Name),
	}
}
