package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ironsheep/color-picker-mcp/internal/browser"
	"github.com/ironsheep/color-picker-mcp/internal/config"
	"github.com/ironsheep/color-picker-mcp/internal/dom"
	"github.com/ironsheep/color-picker-mcp/internal/imaging"
	"github.com/ironsheep/color-picker-mcp/internal/logging"
	"github.com/ironsheep/color-picker-mcp/internal/resolve"
)

// Version is reported in the initialize handshake.
var Version = "0.1.0"

// Document is an open page. Close releases whatever backs it.
type Document interface {
	dom.Document
	Close() error
}

// BrowserOpener opens a live page.
type BrowserOpener func(ctx context.Context, url string, s config.Settings) (Document, error)

// Server handles MCP protocol communication
type Server struct {
	settings    config.Settings
	loader      *imaging.Loader
	pipeline    *resolve.Pipeline
	openBrowser BrowserOpener
	history     resolve.History

	mu     sync.Mutex
	pages  map[string]*openPage
	nextID int
}

// openPage is a registered document and its picker session.
type openPage struct {
	id      string
	source  string
	backend string
	doc     Document
	session *resolve.Session
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Option customizes a Server.
type Option func(*Server)

// WithBrowserOpener replaces the chromedp opener used for the browser backend.
func WithBrowserOpener(f BrowserOpener) Option {
	return func(s *Server) { s.openBrowser = f }
}

// New creates a new MCP server instance
func New(settings config.Settings, opts ...Option) *Server {
	loader := imaging.NewLoader(settings.LoadTimeout)
	s := &Server{
		settings: settings,
		loader:   loader,
		pipeline: resolve.NewPipeline(resolve.Options{
			Sampler:     imaging.NewSampler(loader, settings.Policy()),
			Native:      settings.Native,
			Backgrounds: settings.BackgroundImages,
		}),
		openBrowser: openChrome,
		pages:       map[string]*openPage{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func openChrome(ctx context.Context, url string, s config.Settings) (Document, error) {
	return browser.Open(ctx, url, browser.Options{
		Width:    s.ViewportWidth,
		Height:   s.ViewportHeight,
		ExecPath: s.BrowserExecPath,
		Headless: s.Headless,
		Loader:   imaging.NewLoader(s.LoadTimeout),
	})
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to
// w until r is exhausted or ctx is done. Open pages are closed on return.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	defer s.Close()
	log := logging.Logger()

	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Warn("failed to parse request", "error", err)
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				log.Error("failed to encode response", "error", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// Close stops every picker and closes every open page.
func (s *Server) Close() {
	s.mu.Lock()
	pages := s.pages
	s.pages = map[string]*openPage{}
	s.mu.Unlock()

	for _, p := range pages {
		p.session.Cancel()
		if err := p.doc.Close(); err != nil {
			logging.Logger().Warn("failed to close page", "page", p.id, "error", err)
		}
	}
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "color-picker-mcp",
				"version": Version,
			},
		},
	}
}
