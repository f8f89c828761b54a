package config

import (
	"fmt"
	"net/url"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// statusSchemes are the DSN schemes the status store understands.
var statusSchemes = map[string]bool{
	"postgres":   true,
	"postgresql": true,
	"sqlite":     true,
	"memory":     true,
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString("config validation failed:\n")
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

// Validator validates configuration against the embedded CUE schema.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewValidator creates a new configuration validator.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()

	// Compile the embedded schema
	schema := ctx.CompileBytes(configSchemaCUE)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	if !def.Exists() {
		return nil, fmt.Errorf("config schema has no #Config definition")
	}

	return &Validator{
		ctx:    ctx,
		schema: def,
	}, nil
}

// Validate validates the given configuration: structural checks against the
// CUE schema first, then the rules CUE cannot express (URL and DSN parsing).
func (v *Validator) Validate(cfg *Config) error {
	var errs ValidationErrors

	// Structural validation against the schema.
	encoded := v.ctx.Encode(cfg)
	if err := encoded.Err(); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := v.schema.Unify(encoded).Validate(cue.Concrete(false)); err != nil {
		errs = append(errs, ValidationError{
			Field:   "config",
			Message: err.Error(),
		})
	}

	// Store URL must parse with a scheme when set.
	if cfg.Store.URL != "" {
		u, err := url.Parse(cfg.Store.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "store.url",
				Message: "must be an absolute URL (e.g. https://api.example.org)",
			})
		}
	}

	// Status DSN scheme must name a known driver when set.
	if cfg.StatusDB.DSN != "" {
		scheme, _, found := strings.Cut(cfg.StatusDB.DSN, "://")
		if !found || !statusSchemes[scheme] {
			errs = append(errs, ValidationError{
				Field:   "statusdb.dsn",
				Message: "scheme must be one of: postgres, postgresql, sqlite, memory",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ValidateFile validates a configuration file at the given path.
func (v *Validator) ValidateFile(path string) error {
	loader := NewLoader()
	cfg, err := loader.Load(path)
	if err != nil {
		return fmt.Errorf("loading config file: %w", err)
	}

	return v.Validate(cfg)
}
