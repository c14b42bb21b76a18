package config

import (
	"fmt"
	"strings"

	"github.com/marmos91/scaffold/pkg/validation"
)

// CodeConfigError identifies configuration failures.
const CodeConfigError = "CONFIG_ERROR"

// ConfigError reports an invalid environment. It is fatal at startup.
type ConfigError struct {
	Code   string
	Report *validation.Error
}

func newConfigError(report *validation.Error) *ConfigError {
	return &ConfigError{
		Code:   CodeConfigError,
		Report: report,
	}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %d issue(s)", len(e.Report.Issues))
}

// Unwrap exposes the underlying validation report.
func (e *ConfigError) Unwrap() error {
	return e.Report
}

// Issues returns the individual problems.
func (e *ConfigError) Issues() []validation.Issue {
	return e.Report.Issues
}

// FriendlyString renders the report for humans:
//
//	Invalid configuration
//	- "PORT" Expected numeric string
func (e *ConfigError) FriendlyString() string {
	var b strings.Builder
	b.WriteString("Invalid configuration")
	for _, issue := range e.Report.Issues {
		fmt.Fprintf(&b, "\n- %q %s", issue.PathString(), issue.Message)
	}
	return b.String()
}
