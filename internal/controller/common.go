package controller

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type errorResponse struct {
	Reason string `json:"reason"`
}

func getAllErrorMessages(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "Input data is not formed correctly"
	}

	var builder strings.Builder
	for _, fe := range validationErrors {
		builder.WriteString(fmt.Sprintf("'%s': %s\n", fe.Field(), getMessage(fe)))
	}

	return builder.String()
}

func getMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "number", "numeric":
		return "should be a number"
	case "oneof":
		return "should have value in: " + fe.Param()
	case "gte", "min":
		return "should be greater or equal than " + fe.Param()
	case "lte", "max":
		return "should be less or equal than " + fe.Param()
	}

	return "incorrect value passed"
}
