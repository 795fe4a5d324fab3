package api

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Template names follow the provider's convention: lowercase letters,
// digits and underscores.
var templateNameRe = regexp.MustCompile(`^[a-z0-9_]+$`)

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("templatename", func(fl validator.FieldLevel) bool {
		return templateNameRe.MatchString(fl.Field().String())
	})
	return v
}
