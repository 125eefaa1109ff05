package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration for structural and semantic errors.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, ve := range verrs {
				msgs = append(msgs, friendlyMessage(ve))
			}
			return fmt.Errorf("%s", strings.Join(msgs, "; "))
		}
		return err
	}
	return validateNiFiServers(cfg.NiFiServers)
}

// validateNiFiServers enforces cross-entry rules the tag validator cannot
// express.
func validateNiFiServers(servers []NiFiServerConfig) error {
	seen := make(map[string]struct{}, len(servers))
	for i, s := range servers {
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("nifi_servers[%d]: duplicate server id %q", i, s.ID)
		}
		seen[s.ID] = struct{}{}

		if s.Username != "" && s.Password == "" {
			return fmt.Errorf("nifi_servers[%d] (%s): username set without password", i, s.ID)
		}
	}
	return nil
}

func friendlyMessage(ve validator.FieldError) string {
	field := ve.Namespace()
	switch ve.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, ve.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, ve.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, ve.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, ve.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, ve.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, ve.Param())
	default:
		return fmt.Sprintf("%s failed validation rule %q", field, ve.Tag())
	}
}
