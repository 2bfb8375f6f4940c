package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerWindowTools registers enumeration and mode-control tools
func (s *MCPServer) registerWindowTools() {
	// window_list - List candidate target windows
	s.server.AddTool(
		mcp.NewTool("window_list",
			mcp.WithDescription("List visible top-level windows with their classification and, for emulator windows, the resolved instance index"),
		),
		s.handleWindowList,
	)

	// instance_list - List emulator instances
	s.server.AddTool(
		mcp.NewTool("instance_list",
			mcp.WithDescription("List emulator instances known to the manager console"),
		),
		s.handleInstanceList,
	)

	// set_operation_mode - Force window treatment
	s.server.AddTool(
		mcp.NewTool("set_operation_mode",
			mcp.WithDescription("Set the default operation mode: standard_window, emulator_window or auto"),
			mcp.WithString("mode",
				mcp.Required(),
				mcp.Description("Operation mode: standard_window, emulator_window, auto"),
			),
		),
		s.handleSetOperationMode,
	)

	// set_execution_mode - Choose delivery path
	s.server.AddTool(
		mcp.NewTool("set_execution_mode",
			mcp.WithDescription("Set the default execution mode: background delivers window messages without focus, foreground injects at driver level"),
			mcp.WithString("mode",
				mcp.Required(),
				mcp.Description("Execution mode: background, foreground"),
			),
		),
		s.handleSetExecutionMode,
	)

	// set_text_input_mode - Choose text addressing
	s.server.AddTool(
		mcp.NewTool("set_text_input_mode",
			mcp.WithDescription("Set text addressing: indexed targets one instance, broadcast_all sends to every running instance"),
			mcp.WithString("mode",
				mcp.Required(),
				mcp.Description("Text input mode: indexed, broadcast_all"),
			),
		),
		s.handleSetTextInputMode,
	)

	// rebind_session - Drop all cached bindings
	s.server.AddTool(
		mcp.NewTool("rebind_session",
			mcp.WithDescription("Invalidate every cached window-to-instance binding; use after creating, deleting or reordering emulator instances"),
		),
		s.handleRebindSession,
	)
}

func (s *MCPServer) handleWindowList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	windows, err := s.app.ListTargetWindows()
	if err != nil {
		return nil, fmt.Errorf("failed to list windows: %w", err)
	}

	data, err := json.MarshalIndent(windows, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(string(data)),
		},
	}, nil
}

func (s *MCPServer) handleInstanceList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instances, err := s.app.ListInstances()
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}

	data, err := json.MarshalIndent(instances, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(string(data)),
		},
	}, nil
}

func (s *MCPServer) handleSetOperationMode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	mode, ok := args["mode"].(string)
	if !ok || mode == "" {
		return nil, fmt.Errorf("mode is required")
	}

	if err := s.app.SetOperationMode(mode); err != nil {
		return nil, fmt.Errorf("failed to set operation mode: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(fmt.Sprintf("Operation mode set to %s", mode)),
		},
	}, nil
}

func (s *MCPServer) handleSetExecutionMode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	mode, ok := args["mode"].(string)
	if !ok || mode == "" {
		return nil, fmt.Errorf("mode is required")
	}

	if err := s.app.SetExecutionMode(mode); err != nil {
		return nil, fmt.Errorf("failed to set execution mode: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(fmt.Sprintf("Execution mode set to %s", mode)),
		},
	}, nil
}

func (s *MCPServer) handleSetTextInputMode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	mode, ok := args["mode"].(string)
	if !ok || mode == "" {
		return nil, fmt.Errorf("mode is required")
	}

	if err := s.app.SetTextInputMode(mode); err != nil {
		return nil, fmt.Errorf("failed to set text input mode: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(fmt.Sprintf("Text input mode set to %s", mode)),
		},
	}, nil
}

func (s *MCPServer) handleRebindSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.app.RebindSession()
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent("Binding session rebound, all cached bindings dropped"),
		},
	}, nil
}
