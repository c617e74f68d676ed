package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/gitcloneid/crates-mcp/jsonrpc"
)

// Transport handles the communication between stdin/stdout and the MCP
// server: one line in is one frame, one line out is one frame. Writes
// are serialized so two responses never interleave their bytes.
type Transport struct {
	handler jsonrpc.Handler
	scanner *bufio.Scanner
	errOut  io.Writer

	mu     sync.Mutex
	writer *json.Encoder
	bufOut *bufio.Writer
}

// NewStdioTransport creates a new stdio transport
func NewStdioTransport(handler jsonrpc.Handler, in io.Reader, out io.Writer, errOut io.Writer) *Transport {
	scanner := bufio.NewScanner(in)
	// Set a reasonable max size for each line
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	bufOut := bufio.NewWriter(out)
	return &Transport{
		handler: handler,
		scanner: scanner,
		writer:  json.NewEncoder(bufOut),
		bufOut:  bufOut,
		errOut:  errOut,
	}
}

// Run starts the transport loop. It returns nil when the input stream
// closes and the context error when the context is cancelled first.
func (t *Transport) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if !t.scanner.Scan() {
				if err := t.scanner.Err(); err != nil {
					return fmt.Errorf("scanner error: %v", err)
				}
				return nil
			}

			line := t.scanner.Text()
			if line == "" {
				continue
			}

			var request jsonrpc.Request
			if err := json.Unmarshal([]byte(line), &request); err != nil {
				t.write(jsonrpc.NewResponse(nil, nil, jsonrpc.NewError(jsonrpc.ErrParse, err.Error())))
				continue
			}

			response := t.handler.Handle(ctx, request)

			// A request without an id is a notification: the handler
			// may act on it, but no frame goes out.
			if request.IsNotification() {
				continue
			}
			t.write(response)
		}
	}
}

func (t *Transport) write(response jsonrpc.Response) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.writer.Encode(response); err != nil {
		fmt.Fprintf(t.errOut, "Error encoding response: %v\n", err)
	}
	if err := t.bufOut.Flush(); err != nil {
		fmt.Fprintf(t.errOut, "Error flushing response: %v\n", err)
	}
}
