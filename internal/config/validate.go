package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fgeck/gomysqlmb/internal/models"
	"github.com/fgeck/gomysqlmb/internal/naming"
	"github.com/fgeck/gomysqlmb/internal/services/scheduler"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate performs validation on the loaded configuration.
func Validate(cfg *models.MaintenanceConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if err := getValidator().Struct(cfg); err != nil {
		return translate(err)
	}

	if _, err := naming.ParseDateFormat(cfg.Options.DateFormat); err != nil {
		return fmt.Errorf("options.date_format: %w", err)
	}

	for i, entry := range cfg.Schedule {
		if _, err := scheduler.ParseSpec(entry.Spec); err != nil {
			return fmt.Errorf("schedule[%d]: %w", i, err)
		}
	}

	return nil
}

// needsCredentials reports whether action talks to the server.
func needsCredentials(cfg *models.MaintenanceConfig, action string) bool {
	switch action {
	case models.ActionCleanup, "validate":
		return false
	case models.ActionList:
		return cfg.Options.ListType != models.ListTypeBackup
	case "schedule":
		for _, entry := range cfg.Schedule {
			if entry.Action != models.ActionCleanup {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// ValidateFor validates cfg and checks that action has the credentials it needs.
func ValidateFor(cfg *models.MaintenanceConfig, action string) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	if needsCredentials(cfg, action) && (cfg.Credentials.User == "" || cfg.Credentials.Password == "") {
		return fmt.Errorf("please provide at least a password for MySQL user %q", cfg.Credentials.User)
	}

	if action == "schedule" && len(cfg.Schedule) == 0 {
		return fmt.Errorf("schedule requires at least one entry")
	}

	return nil
}

var messages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email address",
	"alphanum": "must be alphanumeric",
}

var messagesWithParam = map[string]string{
	"oneof": "must be one of: %s",
	"gte":   "must be greater than or equal to %s",
	"lte":   "must be less than or equal to %s",
	"gt":    "must be greater than %s",
}

func translate(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	parts := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		field := strings.TrimPrefix(fe.Namespace(), "MaintenanceConfig.")
		msg, ok := messages[fe.Tag()]
		if !ok {
			if tmpl, hasParam := messagesWithParam[fe.Tag()]; hasParam {
				msg = fmt.Sprintf(tmpl, fe.Param())
			} else {
				msg = fmt.Sprintf("failed %q validation", fe.Tag())
			}
		}
		parts = append(parts, fmt.Sprintf("%s %s", field, msg))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(parts, "; "))
}
