package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/shengjiex98/pwcet-safety/utilization"
	"github.com/shengjiex98/pwcet-safety/utils"
)

// validate is the shared validator instance used across the package.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	if err := validate.RegisterValidation("distribution", validateDistribution); err != nil {
		panic(fmt.Sprintf("failed to register distribution validator: %v", err))
	}
	validate.RegisterStructValidation(validateHorizon, Config{})
}

func validateDistribution(fl validator.FieldLevel) bool {
	_, err := utilization.ParseDistribution(fl.Field().String())
	return err == nil
}

// validateHorizon requires every phase cycle to fit the horizon exactly.
func validateHorizon(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	if cfg.Phases > 0 && cfg.Horizon%cfg.Phases != 0 {
		sl.ReportError(cfg.Horizon, "Horizon", "Horizon", "phasemultiple", fmt.Sprint(cfg.Phases))
	}
}

// Validate checks the configuration. Failures are configuration errors.
func Validate(cfg *Config) error {
	if cfg == nil {
		return utils.ConfigErrorf("configuration is nil")
	}
	if err := validate.Struct(cfg); err != nil {
		return utils.NewError(utils.ErrorTypeConfiguration, "invalid configuration", err)
	}
	return nil
}
