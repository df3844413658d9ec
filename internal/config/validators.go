package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// RegisterGraphValidators registers the one custom struct-tag validator
// this package needs ("actortype"), mirroring the teacher's
// RegisterGraphValidators (which registers "unitparams"/"condparams"/
// "modelformat"). The tag rejects an empty actor type and, when registry
// is non-nil, a type that registry has no factory for, before
// compilation is attempted.
func RegisterGraphValidators(v *validator.Validate, registry *ActorRegistry) error {
	if err := v.RegisterValidation("actortype", actorTypeValidator(registry)); err != nil {
		return fmt.Errorf("register actortype validator: %w", err)
	}
	return nil
}

// validateConfig runs struct-tag validation over cfg using a fresh
// validator.Validate instance bound to registry's "actortype" closure.
// A fresh instance per call keeps the closure's registry reference
// correct without a package-level singleton that would otherwise need
// its own synchronization against concurrent Compile calls against
// different registries.
func validateConfig(cfg GraphConfig, registry *ActorRegistry) error {
	v := validator.New()
	if err := RegisterGraphValidators(v, registry); err != nil {
		return err
	}
	return v.Struct(cfg)
}

// actorTypeValidator returns a validator.Func that rejects an actor type
// string not registered in registry. Binding the registry into the
// closure lets the same struct tag validate against whichever registry
// a given Loader was constructed with.
func actorTypeValidator(registry *ActorRegistry) validator.Func {
	return func(fl validator.FieldLevel) bool {
		t := fl.Field().String()
		if t == "" {
			return false
		}
		if registry == nil {
			return true
		}
		return registry.Has(t)
	}
}
