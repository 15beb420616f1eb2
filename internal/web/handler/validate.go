package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// ValidationError describes one failed field of a request body.
type ValidationError struct {
	FailedField string `json:"failed_field"`
	Tag         string `json:"tag"`
	Value       any    `json:"value"`
}

// BadRequestError is returned by Bind for bodies that fail to parse or validate.
type BadRequestError struct {
	Message string            `json:"err_msg"`
	Fields  []ValidationError `json:"fields,omitempty"`
}

func (e *BadRequestError) Error() string {
	return e.Message
}

var validate = validator.New() //nolint:gochecknoglobals

// Validate performs validation on the provided data and returns the failed fields.
func Validate(data any) []ValidationError {
	var out []ValidationError

	var errs validator.ValidationErrors
	if !errors.As(validate.Struct(data), &errs) {
		return nil
	}

	for _, err := range errs {
		out = append(out, ValidationError{
			FailedField: err.Field(),
			Tag:         err.Tag(),
			Value:       err.Value(),
		})
	}

	return out
}

// Bind decodes the json body of c into req and validates it.
func Bind(c fiber.Ctx, req any) error {
	if err := c.Bind().JSON(req); err != nil {
		return &BadRequestError{Message: "invalid request body"}
	}

	if fields := Validate(req); len(fields) > 0 {
		return &BadRequestError{Message: "validation failed", Fields: fields}
	}

	return nil
}
