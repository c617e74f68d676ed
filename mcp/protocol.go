// Package mcp implements the Model Context Protocol server side: the
// lifecycle state machine, the fixed tool catalog, the dispatcher, and
// the newline-delimited stdio transport.
package mcp

import (
	"github.com/google/jsonschema-go/jsonschema"
)

// Version is the Model Context Protocol revision this server speaks
const Version = "2024-11-05"

// Role represents the sender or recipient of messages and data in a conversation
type Role string

const (
	// RoleUser represents the user
	RoleUser Role = "user"

	// RoleAssistant represents the assistant
	RoleAssistant Role = "assistant"
)

// Content types
type (
	// Annotations represents optional annotations for objects
	Annotations struct {
		// Describes who the intended customer of this object or data is
		Audience []Role `json:"audience,omitempty"`
		// Describes how important this data is for operating the server (0-1)
		Priority *float64 `json:"priority,omitempty"`
	}

	// Content represents one block of a tool result
	Content struct {
		Type        string       `json:"type"`
		Text        string       `json:"text,omitempty"`
		Annotations *Annotations `json:"annotations,omitempty"`
	}
)

// NewTextContent creates a new text content block with the given text and optional annotations
func NewTextContent(text string, audience []Role, priority *float64) Content {
	return Content{
		Type: "text",
		Text: text,
		Annotations: &Annotations{
			Audience: audience,
			Priority: priority,
		},
	}
}

// Initialize
type (
	// ServerCapabilities represents the server's supported capabilities
	ServerCapabilities struct {
		Tools *struct {
			ListChanged bool `json:"listChanged"`
		} `json:"tools,omitempty"`
	}

	// ServerInfo represents information about an MCP implementation
	ServerInfo struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}

	// InitializeResponse represents the server's response to an initialize request
	InitializeResponse struct {
		ProtocolVersion string             `json:"protocolVersion"`
		Capabilities    ServerCapabilities `json:"capabilities"`
		ServerInfo      ServerInfo         `json:"serverInfo"`
		Instructions    string             `json:"instructions,omitempty"`
	}
)

// Tools
type (
	// Tool represents a single tool in the tools/list response
	Tool struct {
		Name        string             `json:"name"`
		Description string             `json:"description,omitempty"`
		InputSchema *jsonschema.Schema `json:"inputSchema"`
	}

	// ToolsListResponse represents the response for the tools/list method
	ToolsListResponse struct {
		Tools []Tool `json:"tools"`
	}

	// ToolCallParams represents the parameters for the tools/call method
	ToolCallParams struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments,omitempty"`
	}

	// ToolCallResponse represents the response from a tool call. A
	// failed call is still a normal response; IsError marks it and the
	// text content carries "<kind>: <message>".
	ToolCallResponse struct {
		Content []Content `json:"content"`
		IsError bool      `json:"isError,omitempty"`
	}
)
