// Package mcp exposes the input core over MCP (Model Context Protocol)
// so external AI clients can drive emulator windows.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"

	"Marionette/pkg/types"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Type aliases from shared types package
type (
	WindowSummary   = types.WindowSummary
	InstanceSummary = types.InstanceSummary
	TextResult      = types.TextResult
	TextAttempt     = types.TextAttempt
)

// MarionetteApp defines the methods the MCP server needs from the main
// App. The interface keeps the coupling loose and makes the handlers
// testable against a mock.
type MarionetteApp interface {
	// Enumeration
	ListTargetWindows() ([]WindowSummary, error)
	ListInstances() ([]InstanceSummary, error)

	// Input
	Click(handle uint64, x, y int, button string) error
	DoubleClick(handle uint64, x, y int, button string) error
	Drag(handle uint64, x1, y1, x2, y2, durationMs int) error
	Scroll(handle uint64, x, y, delta int) error
	SendKey(handle uint64, key string) error
	SendKeyCombination(handle uint64, keys []string) error
	SendText(handle uint64, text string) error
	SendTextToInstance(index int, text string) (TextResult, error)
	Shortcut(index int, cmd string) error

	// Mode control
	SetOperationMode(mode string) error
	SetExecutionMode(mode string) error
	SetTextInputMode(mode string) error
	RebindSession()

	GetAppVersion() string
}

// MCPServer wraps the MCP server around a MarionetteApp.
type MCPServer struct {
	app       MarionetteApp
	server    *server.MCPServer
	stdio     *server.StdioServer
	mu        sync.Mutex
	isRunning bool
}

// NewMCPServer creates a new MCP server for the input core.
func NewMCPServer(app MarionetteApp) *MCPServer {
	mcpServer := server.NewMCPServer(
		"marionette-input",
		app.GetAppVersion(),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
		server.WithLogging(),
	)

	s := &MCPServer{
		app:    app,
		server: mcpServer,
	}

	s.registerWindowTools()
	s.registerInputTools()
	s.registerResources()

	return s
}

func (s *MCPServer) registerResources() {
	s.server.AddResource(
		mcp.NewResource(
			"marionette://windows",
			"Candidate target windows",
			mcp.WithMIMEType("application/json"),
		),
		s.handleWindowsResource,
	)

	s.server.AddResource(
		mcp.NewResource(
			"marionette://instances",
			"Emulator instances known to the manager console",
			mcp.WithMIMEType("application/json"),
		),
		s.handleInstancesResource,
	)
}

func (s *MCPServer) handleWindowsResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	windows, err := s.app.ListTargetWindows()
	if err != nil {
		return nil, fmt.Errorf("failed to list windows: %w", err)
	}
	data, err := json.MarshalIndent(windows, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *MCPServer) handleInstancesResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	instances, err := s.app.ListInstances()
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	data, err := json.MarshalIndent(instances, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// Start starts the MCP server (blocking - for CLI mode).
func (s *MCPServer) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("MCP server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	return s.run()
}

// StartAsync starts the MCP server in a goroutine (non-blocking).
func (s *MCPServer) StartAsync() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("MCP server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	go s.run()
	return nil
}

func (s *MCPServer) run() error {
	s.stdio = server.NewStdioServer(s.server)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	go func() {
		<-sigChan
		cancel()
	}()

	fmt.Fprintln(os.Stderr, "[MCP] Marionette MCP Server started")
	err := s.stdio.Listen(ctx, os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[MCP] Server error: %v\n", err)
	}

	s.mu.Lock()
	s.isRunning = false
	s.mu.Unlock()

	return err
}

// Stop stops the MCP server.
func (s *MCPServer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isRunning = false
}

// IsRunning returns whether the MCP server is running.
func (s *MCPServer) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
