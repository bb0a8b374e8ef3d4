package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"storefront/internal/models"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validationError converts validator output into an error wrapping models.ErrValidation.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, e := range verrs {
			parts = append(parts, fmt.Sprintf("field '%s' failed on the '%s' tag", e.Namespace(), e.Tag()))
		}
		return models.Validationf("%s", strings.Join(parts, "; "))
	}
	return models.Validationf("%v", err)
}
