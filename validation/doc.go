// Package validation provides struct and programmatic validation.
//
// Struct tag validation uses go-playground/validator with a shared instance.
// Packages extend it with their own tags from init:
//
//	validation.RegisterValidation("envoverride", isEnvOverride, "must be NAME or NAME=VALUE")
//	err := validation.Validate(cmd)
//
// Programmatic validation collects field errors:
//
//	v := validation.New()
//	v.Required("name", cfg.Name).Min("retries", cfg.Retries, 0)
//	err := v.Validate()
package validation
