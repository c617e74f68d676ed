package mcp

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/spf13/cast"
)

// Tool names, in catalog declaration order
const (
	ToolSearchCrates          = "search_crates"
	ToolGetCrateInfo          = "get_crate_info"
	ToolGetCrateVersions      = "get_crate_versions"
	ToolGetCrateDependencies  = "get_crate_dependencies"
	ToolGetCrateDocumentation = "get_crate_documentation"
)

// toolCatalog returns the fixed tool catalog. The slice order is the
// order tools/list advertises, so it must stay stable.
func toolCatalog() []Tool {
	return []Tool{
		{
			Name:        ToolSearchCrates,
			Description: "Search for Rust crates on crates.io",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"query": {
						Type:        "string",
						Description: "Search query",
					},
					"limit": {
						Type:        "integer",
						Description: "Maximum number of results (default 10, values above 100 are clamped)",
					},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        ToolGetCrateInfo,
			Description: "Get detailed information about a Rust crate",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"name": {
						Type:        "string",
						Description: "Name of the crate",
					},
				},
				Required: []string{"name"},
			},
		},
		{
			Name:        ToolGetCrateVersions,
			Description: "Get the version history of a Rust crate, newest first",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"name": {
						Type:        "string",
						Description: "Name of the crate",
					},
					"limit": {
						Type:        "integer",
						Description: "Maximum number of versions to return",
					},
				},
				Required: []string{"name"},
			},
		},
		{
			Name:        ToolGetCrateDependencies,
			Description: "Get the dependencies of a specific version of a Rust crate",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"name": {
						Type:        "string",
						Description: "Name of the crate",
					},
					"version": {
						Type:        "string",
						Description: "Crate version (defaults to the latest release)",
					},
				},
				Required: []string{"name"},
			},
		},
		{
			Name:        ToolGetCrateDocumentation,
			Description: "Get documentation for a Rust crate from docs.rs",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"name": {
						Type:        "string",
						Description: "Name of the crate",
					},
					"version": {
						Type:        "string",
						Description: "Crate version (defaults to the latest release)",
					},
					"path": {
						Type:        "string",
						Description: "Module path below the crate root, e.g. \"de\" for serde::de",
					},
				},
				Required: []string{"name"},
			},
		},
	}
}

// UnknownToolError reports a tools/call naming no catalog entry
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("no tool named %q", e.Name)
}

// ArgumentError reports a missing or mistyped tool argument. Field
// names the offending argument.
type ArgumentError struct {
	Field  string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("argument %q %s", e.Field, e.Reason)
}

// requiredStringArg extracts a required string argument. Non-string
// values are rejected rather than coerced.
func requiredStringArg(args map[string]interface{}, field string) (string, error) {
	v, ok := args[field]
	if !ok || v == nil {
		return "", &ArgumentError{Field: field, Reason: "is required"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &ArgumentError{Field: field, Reason: "must be a string"}
	}
	if s == "" {
		return "", &ArgumentError{Field: field, Reason: "must not be empty"}
	}
	return s, nil
}

// stringArg extracts an optional string argument, "" when absent
func stringArg(args map[string]interface{}, field string) (string, error) {
	v, ok := args[field]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &ArgumentError{Field: field, Reason: "must be a string"}
	}
	return s, nil
}

// intArg extracts an optional integer argument. JSON numbers arrive as
// float64, so values are coerced through cast; anything non-numeric is
// rejected.
func intArg(args map[string]interface{}, field string, fallback int) (int, error) {
	v, ok := args[field]
	if !ok || v == nil {
		return fallback, nil
	}
	switch v.(type) {
	case bool, map[string]interface{}, []interface{}, string:
		return 0, &ArgumentError{Field: field, Reason: "must be an integer"}
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, &ArgumentError{Field: field, Reason: "must be an integer"}
	}
	return n, nil
}
