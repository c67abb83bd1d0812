package api

import (
	"github.com/go-playground/validator/v10"
)

// apiValidate checks request messages against their validate tags.
var apiValidate *validator.Validate

func init() {
	apiValidate = validator.New(validator.WithRequiredStructEnabled())
}

// Validate checks a request message. The returned error lists every
// failing field.
func Validate(msg any) error {
	return apiValidate.Struct(msg)
}
