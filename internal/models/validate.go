package models

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/sqve/avalanche/internal/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func configValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			if name := strings.SplitN(field.Tag.Get("toml"), ",", 2)[0]; name != "" && name != "-" {
				return name
			}
			return field.Name
		})
		_ = validate.RegisterValidation("conflict_mode", func(fl validator.FieldLevel) bool {
			if fl.Field().Kind() != reflect.Int {
				return false
			}
			_, ok := conflictModeNames[ConflictMode(fl.Field().Int())]
			return ok
		})
	})
	return validate
}

// Validate checks the UpdateConfig invariants. Invalid values are rejected
// with CONFIG_INVALID rather than clamped.
func (c UpdateConfig) Validate() error {
	err := configValidator().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return errors.ErrConfigInvalid(fieldErrs[0].Field(), err).
			WithContext("value", fieldErrs[0].Value())
	}
	return errors.ErrConfigInvalid("update_config", err)
}
