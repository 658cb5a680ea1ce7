package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	_ "time/tzdata" // timezone rules on images without zoneinfo

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator names fields by their koanf keys, so a failure reads
// contact.jira.api_token rather than Contact.Jira.APIToken.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return strings.ToLower(f.Name)
		}

		return name
	})

	return v
}

// FieldError is one invalid setting.
type FieldError struct {
	// Key is the dotted koanf key, e.g. server.port.
	Key     string
	Problem string
}

func (e *FieldError) Error() string {
	return e.Key + " " + e.Problem
}

// Validate checks every setting and reports all failures at once, each as a
// *FieldError joined under one error. The service refuses to start on any.
func (c *Config) Validate() error {
	err := validate.Struct(c)

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, &FieldError{Key: settingKey(fe.Namespace()), Problem: problem(fe)})
	}

	return fmt.Errorf("config validation failed: %w", errors.Join(errs...))
}

// settingKey drops the root struct name: "Config.server.port" becomes "server.port".
func settingKey(namespace string) string {
	_, key, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}

	return key
}

func problem(fe validator.FieldError) string {
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if":
		field, value, _ := strings.Cut(param, " ")
		return fmt.Sprintf("is required when %s is %s", strings.ToLower(field), value)
	case "required_with":
		return fmt.Sprintf("is required when %s is set", strings.ToLower(param))
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "oneof":
		return "must be one of: " + param
	case "url":
		return "must be a valid URL"
	case "email":
		return "must be a valid email address"
	case "hostname":
		return "must be a valid hostname"
	case "hostname|url":
		return "must be a host name or URL"
	case "http_url":
		return "must be an http or https origin"
	case "timezone":
		return "must be an IANA time zone name"
	default:
		return "failed validation: " + fe.Tag()
	}
}
