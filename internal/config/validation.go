package config

import (
	"fmt"
	"net/url"
	"strings"
)

// BackendNameSeparator splits qualified tool names into backend and action,
// so it may never appear inside a backend name.
const BackendNameSeparator = "_"

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateBackendName checks that name can be used as the prefix of a
// qualified name and as the host part of a resource URI.
func ValidateBackendName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return ValidationError{Field: "name", Value: name, Message: "is required for backend"}
	case len(name) > 100:
		return ValidationError{Field: "name", Value: name, Message: "must not exceed 100 characters"}
	case strings.Contains(name, BackendNameSeparator):
		return ValidationError{Field: "name", Value: name, Message: fmt.Sprintf("cannot contain %q", BackendNameSeparator)}
	case strings.ContainsAny(name, " /\t"):
		return ValidationError{Field: "name", Value: name, Message: "cannot contain spaces or slashes"}
	}
	return nil
}

// ValidateEndpoint checks that raw is an absolute URL with a scheme and host.
func ValidateEndpoint(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return ValidationError{Field: "url", Value: raw, Message: fmt.Sprintf("is not a valid URL: %v", err)}
	}
	if u.Scheme == "" || u.Host == "" {
		return ValidationError{Field: "url", Value: raw, Message: "must be an absolute URL with scheme and host"}
	}
	return nil
}

// Validate checks the whole configuration and returns every problem found.
func (c HubConfig) Validate() error {
	var errs ValidationErrors

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs.Add("server.port", "must be between 1 and 65535", c.Server.Port)
	}
	if c.Server.ShutdownTimeout < 0 {
		errs.Add("server.shutdownTimeout", "must not be negative", c.Server.ShutdownTimeout)
	}
	if strings.TrimSpace(c.Bridge.Command) == "" {
		errs.Add("bridge.command", "is required")
	}
	switch c.Forwarding.Mode {
	case ForwardingSimulated, ForwardingRemote:
	default:
		errs.Add("forwarding.mode", fmt.Sprintf("must be one of: %s, %s", ForwardingSimulated, ForwardingRemote), c.Forwarding.Mode)
	}

	seen := make(map[string]bool, len(c.Backends))
	for i, def := range c.Backends {
		field := fmt.Sprintf("backends[%d]", i)
		if err := ValidateBackendName(def.Name); err != nil {
			errs.Add(field+".name", err.(ValidationError).Message, def.Name)
			continue
		}
		if seen[def.Name] {
			errs.Add(field+".name", "is a duplicate", def.Name)
		}
		seen[def.Name] = true
		if err := ValidateEndpoint(def.URL); err != nil {
			errs.Add(field+".url", err.(ValidationError).Message, def.URL)
		}
	}

	if errs.HasErrors() {
		return FormatValidationError("config", "", errs)
	}
	return nil
}

// FormatValidationError creates a consistent validation error message
func FormatValidationError(entityType, entityName string, err error) error {
	if err == nil {
		return nil
	}

	if entityName != "" {
		return fmt.Errorf("validation failed for %s '%s': %w", entityType, entityName, err)
	}
	return fmt.Errorf("validation failed for %s: %w", entityType, err)
}
