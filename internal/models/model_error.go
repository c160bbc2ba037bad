package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ModelError est le corps renvoyé pour toute erreur de validation (400).
type ModelError struct {
	Detail []string `json:"detail,omitempty"`
}

func NewModelError(messages ...string) ModelError {
	return ModelError{Detail: messages}
}

// ModelErrorFrom convertit une erreur de binding gin en ModelError.
// Les erreurs du validator donnent un message par champ, le reste un seul message.
func ModelErrorFrom(err error) ModelError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewModelError(err.Error())
	}

	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, fieldMessage(fe))
	}
	return ModelError{Detail: details}
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	// "Cart.Items[0].Description" -> "Items[0].Description"
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "min":
		return fmt.Sprintf("The field %s must have a minimum length of '%s'.", field, fe.Param())
	case "max":
		return fmt.Sprintf("The field %s must have a maximum length of '%s'.", field, fe.Param())
	case "gte":
		return fmt.Sprintf("The field %s must be greater than or equal to %s.", field, fe.Param())
	default:
		return fmt.Sprintf("The field %s is invalid (%s).", field, fe.Tag())
	}
}
