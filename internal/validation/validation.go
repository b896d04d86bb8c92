package validation

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/julianstephens/streakline/internal/constants"
	"github.com/julianstephens/streakline/internal/errors"
	"github.com/julianstephens/streakline/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	if err := Validate.RegisterValidation("frequency", validateFrequency); err != nil {
		panic(fmt.Sprintf("failed to register frequency validator: %v", err))
	}
}

func validateFrequency(fl validator.FieldLevel) bool {
	return models.Frequency(fl.Field().String()).Valid()
}

// Credentials is the sign-in / sign-up form
type Credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// HabitForm is the add-habit form
type HabitForm struct {
	Name      string `validate:"required"`
	Frequency string `validate:"frequency"`
}

// messages maps field/tag pairs to the text shown to the user
var messages = map[string]string{
	"Email.required":      "Email is required",
	"Email.email":         "Please enter a valid email address",
	"Password.required":   "Password is required",
	"Password.min":        fmt.Sprintf("Password must be at least %d characters long", constants.MinPasswordLength),
	"Name.required":       "Habit name is required",
	"Frequency.frequency": "Frequency must be one of daily, weekly, monthly",
}

// ValidateCredentials checks an email/password pair before any remote call.
// Whitespace-only values count as missing.
func ValidateCredentials(email, password string) error {
	return validateStruct(Credentials{
		Email:    strings.TrimSpace(email),
		Password: passwordValue(password),
	})
}

// ValidateHabit checks a new habit's name and frequency.
func ValidateHabit(name string, freq models.Frequency) error {
	return validateStruct(HabitForm{
		Name:      strings.TrimSpace(name),
		Frequency: string(freq),
	})
}

// HabitName rejects blank names.
func HabitName(name string) error {
	return ValidateHabit(name, models.FrequencyDaily)
}

func Frequency(s string) error {
	return validateStruct(HabitForm{Name: "-", Frequency: s})
}

// passwordValue keeps the password as typed unless it is blank
func passwordValue(p string) string {
	if strings.TrimSpace(p) == "" {
		return ""
	}
	return p
}

func validateStruct(v any) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	// Report the first failure, in field declaration order
	fe := fieldErrs[0]
	key := fe.Field() + "." + fe.Tag()
	msg, ok := messages[key]
	if !ok {
		msg = fmt.Sprintf("%s is invalid", fe.Field())
	}
	return errors.NewValidation(strings.ToLower(fe.Field()), msg)
}
