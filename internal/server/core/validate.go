package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate is the shared validator for inbound payloads
var Validate = validator.New()

// ValidationDetails renders validator errors as a single readable line
func ValidationDetails(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err.Error()
	}

	var details strings.Builder
	for _, err := range errs {
		if details.Len() > 0 {
			details.WriteString("; ")
		}
		switch err.Tag() {
		case "required":
			details.WriteString(fmt.Sprintf("%s is required", err.Field()))
		case "oneof":
			details.WriteString(fmt.Sprintf("%s must be one of [%s]", err.Field(), err.Param()))
		case "len":
			details.WriteString(fmt.Sprintf("%s must be exactly %s characters", err.Field(), err.Param()))
		case "alphanum":
			details.WriteString(fmt.Sprintf("%s must be alphanumeric", err.Field()))
		case "min":
			if err.Type().Kind() == reflect.String {
				details.WriteString(fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param()))
			} else {
				details.WriteString(fmt.Sprintf("%s must be at least %s", err.Field(), err.Param()))
			}
		case "max":
			if err.Type().Kind() == reflect.String {
				details.WriteString(fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param()))
			} else {
				details.WriteString(fmt.Sprintf("%s must be at most %s", err.Field(), err.Param()))
			}
		default:
			details.WriteString(fmt.Sprintf("%s failed %s validation", err.Field(), err.Tag()))
		}
	}
	return details.String()
}
