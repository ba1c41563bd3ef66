package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator checks bound structs against their `validate` tags and
// reports failures in a ModelState keyed by the `form` tag name.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	// decimal.Decimal is validated as its exact string form by the decimal_* rules
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	for tag, fn := range decimalRules {
		// Tags are fixed and non-empty, registration cannot fail
		_ = v.RegisterValidation(tag, fn)
	}

	return &Validator{validate: v}
}

var decimalRules = map[string]validator.Func{
	"decimal_gte": func(fl validator.FieldLevel) bool {
		d, limit, ok := decimalParam(fl)
		return ok && d.GreaterThanOrEqual(limit)
	},
	"decimal_lte": func(fl validator.FieldLevel) bool {
		d, limit, ok := decimalParam(fl)
		return ok && d.LessThanOrEqual(limit)
	},
	"decimal_scale": func(fl validator.FieldLevel) bool {
		d, ok := decimalField(fl)
		if !ok {
			return false
		}
		places, err := strconv.ParseInt(fl.Param(), 10, 32)
		if err != nil {
			return false
		}
		return d.Equal(d.Truncate(int32(places)))
	},
}

func decimalField(fl validator.FieldLevel) (decimal.Decimal, bool) {
	if fl.Field().Kind() != reflect.String {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(fl.Field().String())
	return d, err == nil
}

func decimalParam(fl validator.FieldLevel) (decimal.Decimal, decimal.Decimal, bool) {
	d, ok := decimalField(fl)
	if !ok {
		return d, decimal.Decimal{}, false
	}
	limit, err := decimal.NewFromString(fl.Param())
	return d, limit, err == nil
}

// Validate runs struct validation on model and records failures in state.
// Errors other than validation failures are returned.
func (v *Validator) Validate(model any, state *ModelState) error {
	err := v.validate.Struct(model)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("failed to validate %T: %w", model, err)
	}

	for _, fieldErr := range validationErrors {
		state.AddError(fieldErr.Field(), message(fieldErr))
	}
	return nil
}

// message renders a human readable message for a failed rule
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", fe.Field())
	case "max":
		return fmt.Sprintf("The %s field must be at most %s characters.", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("The %s field must be at least %s characters.", fe.Field(), fe.Param())
	case "gte", "decimal_gte":
		return fmt.Sprintf("The %s field must be greater than or equal to %s.", fe.Field(), fe.Param())
	case "decimal_lte":
		return fmt.Sprintf("The %s field must be less than or equal to %s.", fe.Field(), fe.Param())
	case "decimal_scale":
		return fmt.Sprintf("The %s field must have at most %s decimal places.", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("The %s field failed on rule %s.", fe.Field(), fe.Tag())
	}
}
