package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a *ValidationError
// when one or more problems are found, allowing callers to inspect all issues.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateLLM(cfg, ve)
	validateRouting(cfg, ve)
	validateSearch(cfg, ve)
	validateGateway(cfg, ve)
	validateHistory(cfg, ve)
	validateSessions(cfg, ve)
	validateLogger(cfg, ve)
	validateTracer(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

var validProviderTypes = map[string]bool{
	"openai":    true,
	"anthropic": true,
}

func validateLLM(cfg *Config, ve *ValidationError) {
	if cfg.LLM.DefaultProvider == "" {
		ve.Add("llm.default_provider must not be empty")
	}

	seen := map[string]bool{}
	foundDefault := false
	for i, p := range cfg.LLM.Providers {
		if p.Name == "" {
			ve.Add("llm.providers[%d].name must not be empty", i)
			continue
		}
		if seen[p.Name] {
			ve.Add("llm.providers[%d]: duplicate provider name %q", i, p.Name)
		}
		seen[p.Name] = true
		if !validProviderTypes[p.Type] {
			ve.Add("llm.providers[%d] (%s): unknown type %q", i, p.Name, p.Type)
		}
		if p.ConnTimeout < 0 || p.RespTimeout < 0 {
			ve.Add("llm.providers[%d] (%s): timeouts must be >= 0", i, p.Name)
		}
		if p.Name == cfg.LLM.DefaultProvider {
			foundDefault = true
		}
	}
	if len(cfg.LLM.Providers) > 0 && !foundDefault {
		ve.Add("llm.default_provider %q not found among configured providers", cfg.LLM.DefaultProvider)
	}

	if cfg.LLM.CircuitBreaker.Enabled && cfg.LLM.CircuitBreaker.MaxFailures == 0 {
		ve.Add("llm.circuit_breaker.max_failures must be > 0 when enabled")
	}
}

func validateRouting(cfg *Config, ve *ValidationError) {
	if cfg.Routing.SupportThreshold < 0 || cfg.Routing.SupportThreshold > 1 {
		ve.Add("routing.support_threshold must be in [0,1]")
	}
	if cfg.Routing.SuccessThreshold < 0 || cfg.Routing.SuccessThreshold > 1 {
		ve.Add("routing.success_threshold must be in [0,1]")
	}
	if cfg.Routing.MaxSupporting < 0 {
		ve.Add("routing.max_supporting must be >= 0")
	}
}

func validateSearch(cfg *Config, ve *ValidationError) {
	switch cfg.Search.Backend {
	case "searxng":
		if cfg.Search.BaseURL == "" {
			ve.Add("search.base_url must not be empty for the searxng backend")
		}
	case "noop", "":
	default:
		ve.Add("search.backend %q is not supported (searxng, noop)", cfg.Search.Backend)
	}
	if cfg.Search.MaxResults <= 0 {
		ve.Add("search.max_results must be > 0")
	}
}

func validateGateway(cfg *Config, ve *ValidationError) {
	if !cfg.Gateway.Enabled {
		return
	}
	if cfg.Gateway.Addr == "" {
		ve.Add("gateway.addr must not be empty when the gateway is enabled")
	}
	if cfg.Gateway.RateLimit.Enabled {
		if cfg.Gateway.RateLimit.RequestsPerMinute <= 0 {
			ve.Add("gateway.rate_limit.requests_per_minute must be > 0 when enabled")
		}
		if cfg.Gateway.RateLimit.Burst <= 0 {
			ve.Add("gateway.rate_limit.burst must be > 0 when enabled")
		}
	}
}

func validateHistory(cfg *Config, ve *ValidationError) {
	switch cfg.History.Driver {
	case "sqlite":
		if cfg.History.Path == "" {
			ve.Add("history.path must not be empty for the sqlite driver")
		}
	case "none", "":
	default:
		ve.Add("history.driver %q is not supported (sqlite, none)", cfg.History.Driver)
	}
}

func validateSessions(cfg *Config, ve *ValidationError) {
	if cfg.Sessions.MaxIdle <= 0 {
		ve.Add("sessions.max_idle must be > 0")
	}
	if cfg.Sessions.MaxSessions < 0 {
		ve.Add("sessions.max_sessions must be >= 0")
	}
	if cfg.Sessions.ReapSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Sessions.ReapSchedule); err != nil {
			ve.Add("sessions.reap_schedule: %v", err)
		}
	}
}

func validateLogger(cfg *Config, ve *ValidationError) {
	switch strings.ToLower(cfg.Logger.Level) {
	case "debug", "info", "warn", "warning", "error", "":
	default:
		ve.Add("logger.level %q is not supported", cfg.Logger.Level)
	}
	switch strings.ToLower(cfg.Logger.Format) {
	case "text", "json", "":
	default:
		ve.Add("logger.format %q is not supported (text, json)", cfg.Logger.Format)
	}
}

func validateTracer(cfg *Config, ve *ValidationError) {
	if !cfg.Tracer.Enabled {
		return
	}
	switch cfg.Tracer.Exporter {
	case "stdout", "noop", "":
	default:
		ve.Add("tracer.exporter %q is not supported (stdout, noop)", cfg.Tracer.Exporter)
	}
}
