// Package jsonrpc implements the JSON-RPC 2.0 message shapes used by the
// MCP stdio transport. One line on the wire is one Request or Response.
package jsonrpc

import (
	"context"
	"encoding/json"
)

// Version is the JSON-RPC protocol version carried by every message
const Version = "2.0"

// Handler defines the interface for handling JSON-RPC requests. The
// context is the transport's: it is cancelled when the session ends.
type Handler interface {
	Handle(ctx context.Context, request Request) Response
}

// Request represents a JSON-RPC request object.
// A request without an id is a notification and must not be answered.
type Request struct {
	Version string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	Id      interface{}     `json:"id,omitempty"`
}

// IsNotification reports whether the request carries no id
func (r Request) IsNotification() bool {
	return r.Id == nil
}

// NewRequest creates a new Request object
func NewRequest(method string, params json.RawMessage, id interface{}) Request {
	return Request{
		Version: Version,
		Method:  method,
		Params:  params,
		Id:      id,
	}
}

// Result represents an arbitrary response payload
type Result interface{}

// Response represents a JSON-RPC response object
type Response struct {
	Version string `json:"jsonrpc"`
	Result  Result `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      ID     `json:"id"`
}

// NewResponse creates a new Response object
func NewResponse(id interface{}, result Result, err *Error) Response {
	respID, _ := NewID(id)

	return Response{
		Version: Version,
		ID:      respID,
		Result:  result,
		Error:   err,
	}
}
