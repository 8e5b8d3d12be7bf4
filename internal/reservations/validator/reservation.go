package validator

import (
	"errors"
	"fmt"
	"reflect"
	"roomly/pkg/logger"
	"roomly/pkg/model"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Details maps each violated field to its message, for AppError details.
func (v ValidationErrors) Details() map[string]any {
	details := make(map[string]any, len(v))
	for _, err := range v {
		details[err.Field] = err.Message
	}
	return details
}

type ReservationValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReservationValidator(log *logger.Logger) *ReservationValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	if err := v.RegisterValidation("notblank", validateNotBlank); err != nil {
		log.Fatal("Failed to register 'notblank' validator",
			"error", err,
		)
	}

	return &ReservationValidator{
		validate: v,
		logger:   log,
	}
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Validate checks a booking intent together with the identity making it.
func (v *ReservationValidator) Validate(req *model.ReservationRequest, requester *model.Requester) error {
	var validationErrors ValidationErrors

	if req == nil {
		return ValidationErrors{{Field: "body", Message: "reservation request is required"}}
	}

	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return err
		}
		validationErrors = append(validationErrors, v.translateValidationErrors(validationErrs)...)
	}

	if req.Title != "" && v.validate.Var(req.Title, "notblank") != nil {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "title",
			Message: "title cannot be blank",
		})
	}

	switch {
	case requester == nil:
		validationErrors = append(validationErrors, ValidationError{
			Field:   "requester",
			Message: "an authenticated requester is required",
		})
	case v.validate.Var(requester.Email, "required,email") != nil:
		validationErrors = append(validationErrors, ValidationError{
			Field:   "requester.email",
			Message: "requester must have a valid e-mail",
		})
	}

	if len(validationErrors) > 0 {
		return validationErrors
	}
	return nil
}

// ValidateRoom checks a room definition loaded by the seed tool.
func (v *ReservationValidator) ValidateRoom(room *model.Room) error {
	if err := v.validate.Struct(room); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *ReservationValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", err.Field(), toJSONName(err.Param()))
		case "email":
			message = fmt.Sprintf("%s must be a valid e-mail address", err.Field())
		case "url":
			message = fmt.Sprintf("%s must be a valid URL", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}

// toJSONName turns a Go field name such as StartTime into start_time.
func toJSONName(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
