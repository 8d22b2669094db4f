// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be
	// surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "output.kind",
// "transactions.file.path"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a
// single error in contexts that expect one.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Validate performs static validation of a Pipeline. It does not mutate the
// pipeline; it returns a slice of Issue values. Callers decide whether to
// treat warnings as fatal.
func Validate(p Pipeline) []Issue {
	var issues []Issue

	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(p.Job) == "" {
		add(SeverityWarning, "job", "empty job name; metrics and logs will use a generic label")
	}

	if p.Year == 0 {
		add(SeverityError, "year", "target year is required")
	} else if p.Year < 1900 || p.Year > 2200 {
		add(SeverityWarning, "year", "year %d looks implausible", p.Year)
	}

	validateSource(&issues, "transactions", p.Transactions)
	validateSource(&issues, "nomenclature", p.Nomenclature)

	switch p.Output.Kind {
	case "csv":
		if p.Output.CSV.DailyPath == "" {
			add(SeverityError, "output.csv.daily_path", "required for csv output")
		}
		if p.Output.CSV.ClientPath == "" {
			add(SeverityError, "output.csv.client_path", "required for csv output")
		}
	case "sqlite", "postgres":
		if p.Output.DB.DSN == "" {
			add(SeverityError, "output.db.dsn", "required for %s output", p.Output.Kind)
		}
		if p.Output.DB.DailyTable == "" {
			add(SeverityError, "output.db.daily_table", "required for %s output", p.Output.Kind)
		}
		if p.Output.DB.ClientTable == "" {
			add(SeverityError, "output.db.client_table", "required for %s output", p.Output.Kind)
		}
	case "":
		add(SeverityError, "output.kind", "output kind is required")
	default:
		add(SeverityError, "output.kind", "unknown output kind %q", p.Output.Kind)
	}

	if p.Runtime.Workers < 0 {
		add(SeverityError, "runtime.workers", "must be >= 0")
	}
	if p.Runtime.PartitionSize < 0 {
		add(SeverityError, "runtime.partition_size", "must be >= 0")
	}
	if p.Runtime.KeyShards < 0 {
		add(SeverityError, "runtime.key_shards", "must be >= 0")
	}
	if p.Retry.MaxRetries < -1 {
		add(SeverityError, "retry.max_retries", "must be >= -1")
	}

	return issues
}

// HasErrors reports whether any issue in the slice has error severity.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

func validateSource(issues *[]Issue, path string, s Source) {
	add := func(sev IssueSeverity, sub, format string, args ...any) {
		*issues = append(*issues, Issue{
			Severity: sev,
			Path:     path + sub,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	switch s.Kind {
	case "file":
		if s.File.Path == "" {
			add(SeverityError, ".file.path", "required for file source")
		}
	case "http":
		if s.HTTP.URL == "" {
			add(SeverityError, ".http.url", "required for http source")
		} else if !strings.HasPrefix(s.HTTP.URL, "http://") && !strings.HasPrefix(s.HTTP.URL, "https://") {
			add(SeverityError, ".http.url", "must start with http:// or https://")
		}
	case "":
		add(SeverityError, ".kind", "source kind is required")
	default:
		add(SeverityError, ".kind", "unknown source kind %q", s.Kind)
	}
}
