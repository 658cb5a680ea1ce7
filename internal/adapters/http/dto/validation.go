package dto

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/brianfending/contact-service/internal/domain"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared request validator. Field errors carry the
// JSON name of the field.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}

			return name
		})
	})

	return validate
}

// BindAndValidate decodes the JSON body into v and checks its validate tags.
//
// A body over the size limit is returned untouched so HandleError answers
// 413. Any other decoding failure reads as missing fields. A tag failure
// names the first offending field.
func BindAndValidate(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}

		return domain.NewValidationError("", domain.MessageFieldsRequired)
	}

	var fieldErrs validator.ValidationErrors
	if err := Validator().Struct(v); err != nil {
		if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
			return domain.NewValidationError("", domain.MessageFieldsRequired)
		}

		fe := fieldErrs[0]

		return domain.NewValidationError(fe.Field(), fieldSentence(fe))
	}

	return nil
}

// fieldSentence renders e.g. "Message must be at most 10000 characters".
func fieldSentence(fe validator.FieldError) string {
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}

	var rule string

	switch fe.Tag() {
	case "required":
		rule = "is required"
	case "min":
		rule = "must be at least " + fe.Param() + unit
	case "max":
		rule = "must be at most " + fe.Param() + unit
	case "email":
		rule = "must be a valid email address"
	default:
		rule = "is invalid"
	}

	r, size := utf8.DecodeRuneInString(fe.Field())

	return string(unicode.ToUpper(r)) + fe.Field()[size:] + " " + rule
}
