// Package validator provides the custom validation rules shared by the
// ingest pipeline and the admin API's query binding.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	tickerRegex       = regexp.MustCompile(`^[A-Za-z0-9._-]{1,20}$`)
	exchangeNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 ._-]{0,63}$`)
)

// New returns a validator with every custom rule registered.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	registerRules(v)
	return v
}

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		registerRules(v)
	}
}

func registerRules(v *validator.Validate) {
	_ = v.RegisterValidation("key_type", validateKeyType)
	_ = v.RegisterValidation("ticker", validateTicker)
	_ = v.RegisterValidation("exchange_name", validateExchangeName)
}

func validateKeyType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "STR", "INT":
		return true
	}
	return false
}

func validateTicker(fl validator.FieldLevel) bool {
	return tickerRegex.MatchString(fl.Field().String())
}

func validateExchangeName(fl validator.FieldLevel) bool {
	return exchangeNameRegex.MatchString(fl.Field().String())
}
