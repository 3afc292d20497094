package rest

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"analytics-service/internal/core/domain"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// в сообщениях используем имена из JSON
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		_ = validate.RegisterValidation("export_column", func(fl validator.FieldLevel) bool {
			return domain.ExportColumn(fl.Field().String()).IsValid()
		})
	})
	return validate
}

// validateStruct returns nil or one human readable message per failed field.
func validateStruct(s interface{}) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, validationMessage(fe))
	}
	return errors.New(strings.Join(messages, "; "))
}

func validationMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "export_column":
		return fmt.Sprintf("%s: unknown column %q", field, fe.Value())
	case "unique":
		return fmt.Sprintf("%s must not contain duplicates", field)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must contain at most %s items", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
