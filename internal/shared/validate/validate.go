// Package validate exposes a shared go-playground validator instance.
package validate

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"restaurant-service/internal/shared/apperr"
)

var (
	v    *validator.Validate
	once sync.Once
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
	})
	return v
}

// Struct validates s and converts field failures into a single apperr validation error.
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return err
	}
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, describe(f))
	}
	return apperr.Invalid("%s", strings.Join(msgs, "; "))
}

func describe(f validator.FieldError) string {
	switch f.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", f.Field())
	case "gt", "gte", "min":
		return fmt.Sprintf("%s must be at least %s", f.Field(), f.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", f.Field(), f.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", f.Field(), f.Param())
	default:
		return fmt.Sprintf("%s failed %s", f.Field(), f.Tag())
	}
}
