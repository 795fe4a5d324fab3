package validation

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	// placeholderRe matches well-formed numbered placeholders like {{1}}.
	placeholderRe = regexp.MustCompile(`\{\{(\d+)\}\}`)

	// doubleBraceRe matches any double-brace token, well-formed or not, so
	// malformed ones can be classified and stripped before the single-brace
	// scan.
	doubleBraceRe = regexp.MustCompile(`\{\{([^{}]*)\}\}`)

	// singleBraceRe matches single-brace tokens such as {1} or {name} in
	// text that has already had its double-brace tokens removed.
	singleBraceRe = regexp.MustCompile(`\{[^{}]*\}`)

	// formatSpecRe matches printf-style specifiers that belong to other
	// templating systems.
	formatSpecRe = regexp.MustCompile(`%[sdif]`)

	// stackedRe matches two numbered placeholders with nothing between them.
	stackedRe = regexp.MustCompile(`\{\{\d+\}\}\{\{\d+\}\}`)

	leadingRe  = regexp.MustCompile(`^\{\{\d+\}\}`)
	trailingRe = regexp.MustCompile(`\{\{\d+\}\}$`)

	digitsRe = regexp.MustCompile(`^\d+$`)
)

// ExtractPlaceholders returns the number of every well-formed {{n}} token in
// order of appearance, without deduplication. Malformed tokens ({1}, {{}},
// {{name}}, %s) are not extracted; they surface as format errors instead.
func ExtractPlaceholders(text string) []int {
	matches := placeholderRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	indices := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		indices = append(indices, n)
	}
	return indices
}

// ValidatePlaceholders checks placeholder usage in the header text (TEXT
// headers only) and the body text. Each code fires at most once per field,
// and the codes are independent: one text can report several of them.
func ValidatePlaceholders(c *Components) []ValidationError {
	var errs []ValidationError
	if c == nil {
		return errs
	}
	if c.Header != nil && c.Header.Type == HeaderText && c.Header.Text != "" {
		errs = append(errs, checkPlaceholderText("components.header.text", c.Header.Text)...)
	}
	if c.Body != nil && c.Body.Text != "" {
		errs = append(errs, checkPlaceholderText("components.body.text", c.Body.Text)...)
	}
	return errs
}

// checkPlaceholderText runs every placeholder rule against one text field.
func checkPlaceholderText(field, text string) []ValidationError {
	var errs []ValidationError

	var sawEmpty, sawNamed bool
	for _, m := range doubleBraceRe.FindAllStringSubmatch(text, -1) {
		inner := strings.TrimSpace(m[1])
		switch {
		case inner == "":
			sawEmpty = true
		case !digitsRe.MatchString(inner):
			sawNamed = true
		}
	}
	if sawEmpty {
		errs = append(errs, ValidationError{
			Field:   field,
			Code:    CodeEmptyPlaceholder,
			Message: "Empty placeholder {{}} is not allowed",
		})
	}
	if sawNamed {
		errs = append(errs, ValidationError{
			Field:   field,
			Code:    CodeNamedPlaceholder,
			Message: "Named placeholders are not supported; use numbered placeholders like {{1}}",
		})
	}

	// Strip double-brace tokens first so a {{1}} does not read as a pair of
	// stray single braces.
	stripped := doubleBraceRe.ReplaceAllString(text, "\x00")
	if singleBraceRe.MatchString(stripped) {
		errs = append(errs, ValidationError{
			Field:   field,
			Code:    CodeInvalidPlaceholderFormat,
			Message: "Invalid placeholder format; use double braces like {{1}}",
		})
	}

	if formatSpecRe.MatchString(text) {
		errs = append(errs, ValidationError{
			Field:   field,
			Code:    CodeFormatSpecifier,
			Message: "Printf-style specifiers like %s are not supported; use {{1}} placeholders",
		})
	}

	if stackedRe.MatchString(text) {
		errs = append(errs, ValidationError{
			Field:   field,
			Code:    CodeStackedPlaceholders,
			Message: "Placeholders must be separated by at least one character",
		})
	}

	trimmed := strings.TrimSpace(text)
	if leadingRe.MatchString(trimmed) {
		errs = append(errs, ValidationError{
			Field:   field,
			Code:    CodeLeadingPlaceholder,
			Message: "Template text cannot start with a placeholder",
		})
	}
	if trailingRe.MatchString(trimmed) {
		errs = append(errs, ValidationError{
			Field:   field,
			Code:    CodeTrailingPlaceholder,
			Message: "Template text cannot end with a placeholder",
		})
	}

	if !sequential(ExtractPlaceholders(text)) {
		errs = append(errs, ValidationError{
			Field:   field,
			Code:    CodeNonSequentialPlaceholders,
			Message: "Placeholders must be numbered sequentially starting from {{1}}",
		})
	}

	return errs
}

// sequential reports whether the sorted unique index set is exactly 1..k.
func sequential(indices []int) bool {
	if len(indices) == 0 {
		return true
	}
	unique := make([]int, 0, len(indices))
	seen := make(map[int]bool, len(indices))
	for _, n := range indices {
		if !seen[n] {
			seen[n] = true
			unique = append(unique, n)
		}
	}
	sort.Ints(unique)
	for i, n := range unique {
		if n != i+1 {
			return false
		}
	}
	return true
}
