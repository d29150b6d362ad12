// Package runtimeconfig produces the config.js script that exposes the API
// base URL to the client bundle and wires it into the served index.html.
package runtimeconfig

import (
	"encoding/json"
	"os"
	"strings"
)

const (
	// EnvAPIBase is read once at startup.
	EnvAPIBase = "API_BASE"
	// DefaultAPIBase is used when EnvAPIBase is unset or blank.
	DefaultAPIBase = "http://localhost:8080"

	placeholder      = "${API_BASE}"
	shortPlaceholder = "$API_BASE"

	// DefaultTemplate is written when no template file exists.
	DefaultTemplate = "globalThis.RUNTIME_CONFIG = { API_BASE: \"" + placeholder + "\" };\n"
)

// RuntimeConfig is resolved once at startup and never mutated afterwards.
type RuntimeConfig struct {
	APIBase string `json:"API_BASE"`
}

// New returns a RuntimeConfig for base, falling back to DefaultAPIBase.
func New(base string) RuntimeConfig {
	base = strings.TrimSpace(base)
	if base == "" {
		base = DefaultAPIBase
	}
	return RuntimeConfig{APIBase: base}
}

// FromEnv reads EnvAPIBase through lookup. A nil lookup means os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) RuntimeConfig {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, _ := lookup(EnvAPIBase)
	return New(v)
}

// Render substitutes the API base into tmpl. The value is escaped for a
// double-quoted JavaScript string literal.
func (c RuntimeConfig) Render(tmpl string) string {
	val := jsStringContent(c.APIBase)
	out := strings.ReplaceAll(tmpl, placeholder, val)
	return strings.ReplaceAll(out, shortPlaceholder, val)
}

// Script renders the default template.
func (c RuntimeConfig) Script() string {
	return c.Render(DefaultTemplate)
}

func jsStringContent(s string) string {
	b, err := json.Marshal(s)
	if err != nil || len(b) < 2 {
		return ""
	}
	return string(b[1 : len(b)-1])
}
