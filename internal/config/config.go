// Package config holds the run configuration of the decorate-blocks command.
//
// The file is optional JSON; command-line flags override whatever it sets.
//
//	{
//	  "job": "site-build",
//	  "selector": "div.picture-link",
//	  "missing_image_message": "Please add at least one image to this block.",
//	  "metrics": {"backend": "datadog", "tags": ["service:site"], "flush_every_seconds": 30}
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"pictureblock/internal/block"
	"pictureblock/internal/page"

	"github.com/andybalholm/cascadia"
)

// Config is the decoded configuration file.
type Config struct {
	Job                 string  `json:"job,omitempty"`
	Selector            string  `json:"selector,omitempty"`
	MissingImageMessage string  `json:"missing_image_message,omitempty"`
	Metrics             Metrics `json:"metrics"`
}

// Metrics selects and tunes the metrics backend.
type Metrics struct {
	Backend           string   `json:"backend,omitempty"` // "", "none", "datadog"
	Tags              []string `json:"tags,omitempty"`
	FlushEverySeconds int      `json:"flush_every_seconds,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Job:                 "decorate-blocks",
		Selector:            page.DefaultSelector,
		MissingImageMessage: block.DefaultMissingImageMessage,
	}
}

// Load reads path and overlays it on Default().
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config json: %w", err)
	}
	return cfg, nil
}

// FlushEvery converts FlushEverySeconds; zero lets the backend pick.
func (m Metrics) FlushEvery() time.Duration {
	if m.FlushEverySeconds <= 0 {
		return 0
	}
	return time.Duration(m.FlushEverySeconds) * time.Second
}

// PageOptions maps the configuration onto page decoration options.
func (c Config) PageOptions() page.Options {
	return page.Options{
		Selector: c.Selector,
		Block:    block.Options{MissingImageMessage: c.MissingImageMessage},
	}
}

// Severity classifies a validation Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding. Path uses the JSON field names.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate checks c and returns every finding, errors first.
func Validate(c Config) []Issue {
	var errs, warns []Issue

	sel := strings.TrimSpace(c.Selector)
	if sel == "" {
		errs = append(errs, Issue{SeverityError, "selector", "must not be empty"})
	} else if _, err := cascadia.Compile(sel); err != nil {
		errs = append(errs, Issue{SeverityError, "selector", fmt.Sprintf("invalid css selector: %v", err)})
	}

	switch c.Metrics.Backend {
	case "", "none", "datadog":
	default:
		errs = append(errs, Issue{SeverityError, "metrics.backend", fmt.Sprintf("unknown backend %q (want none|datadog)", c.Metrics.Backend)})
	}

	if c.Metrics.FlushEverySeconds < 0 {
		errs = append(errs, Issue{SeverityError, "metrics.flush_every_seconds", "must be >= 0"})
	}

	if strings.TrimSpace(c.MissingImageMessage) == "" {
		warns = append(warns, Issue{SeverityWarning, "missing_image_message", "empty; the default message will be shown"})
	}
	if strings.TrimSpace(c.Job) == "" {
		warns = append(warns, Issue{SeverityWarning, "job", "empty; metrics use the default job tag"})
	}

	return append(errs, warns...)
}
