package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerInputTools registers input simulation tools
func (s *MCPServer) registerInputTools() {
	// sim_click - Click in a window
	s.server.AddTool(
		mcp.NewTool("sim_click",
			mcp.WithDescription("Click at client coordinates in a target window without stealing focus"),
			mcp.WithString("window",
				mcp.Required(),
				mcp.Description("Window handle (decimal or 0x-prefixed hex)"),
			),
			mcp.WithNumber("x", mcp.Required(), mcp.Description("Client X coordinate")),
			mcp.WithNumber("y", mcp.Required(), mcp.Description("Client Y coordinate")),
			mcp.WithString("button", mcp.Description("Mouse button: left, right, middle (default: left)")),
		),
		s.handleClick,
	)

	// sim_double_click - Double click in a window
	s.server.AddTool(
		mcp.NewTool("sim_double_click",
			mcp.WithDescription("Double-click at client coordinates in a target window"),
			mcp.WithString("window",
				mcp.Required(),
				mcp.Description("Window handle (decimal or 0x-prefixed hex)"),
			),
			mcp.WithNumber("x", mcp.Required(), mcp.Description("Client X coordinate")),
			mcp.WithNumber("y", mcp.Required(), mcp.Description("Client Y coordinate")),
			mcp.WithString("button", mcp.Description("Mouse button: left, right, middle (default: left)")),
		),
		s.handleDoubleClick,
	)

	// sim_drag - Drag gesture
	s.server.AddTool(
		mcp.NewTool("sim_drag",
			mcp.WithDescription("Drag from one point to another in a target window"),
			mcp.WithString("window",
				mcp.Required(),
				mcp.Description("Window handle (decimal or 0x-prefixed hex)"),
			),
			mcp.WithNumber("x1", mcp.Required(), mcp.Description("Start X")),
			mcp.WithNumber("y1", mcp.Required(), mcp.Description("Start Y")),
			mcp.WithNumber("x2", mcp.Required(), mcp.Description("End X")),
			mcp.WithNumber("y2", mcp.Required(), mcp.Description("End Y")),
			mcp.WithNumber("duration_ms", mcp.Description("Gesture duration in milliseconds (default: 300)")),
		),
		s.handleDrag,
	)

	// sim_scroll - Scroll wheel
	s.server.AddTool(
		mcp.NewTool("sim_scroll",
			mcp.WithDescription("Scroll at client coordinates; positive delta scrolls up, negative down"),
			mcp.WithString("window",
				mcp.Required(),
				mcp.Description("Window handle (decimal or 0x-prefixed hex)"),
			),
			mcp.WithNumber("x", mcp.Required(), mcp.Description("Client X coordinate")),
			mcp.WithNumber("y", mcp.Required(), mcp.Description("Client Y coordinate")),
			mcp.WithNumber("delta", mcp.Required(), mcp.Description("Scroll notches, positive is up")),
		),
		s.handleScroll,
	)

	// sim_key - Tap one key
	s.server.AddTool(
		mcp.NewTool("sim_key",
			mcp.WithDescription("Tap a key in a target window; accepts key names like enter, escape, a, f5, android_back"),
			mcp.WithString("window",
				mcp.Required(),
				mcp.Description("Window handle (decimal or 0x-prefixed hex)"),
			),
			mcp.WithString("key", mcp.Required(), mcp.Description("Key name")),
		),
		s.handleKey,
	)

	// sim_key_combo - Key combination
	s.server.AddTool(
		mcp.NewTool("sim_key_combo",
			mcp.WithDescription("Press a key combination, e.g. ctrl+a: modifiers held, final key tapped, released in reverse order"),
			mcp.WithString("window",
				mcp.Required(),
				mcp.Description("Window handle (decimal or 0x-prefixed hex)"),
			),
			mcp.WithString("keys",
				mcp.Required(),
				mcp.Description("Keys joined with '+', e.g. ctrl+shift+s"),
			),
		),
		s.handleKeyCombo,
	)

	// sim_text - Text into a window
	s.server.AddTool(
		mcp.NewTool("sim_text",
			mcp.WithDescription("Type text into a target window; emulator windows route through the multi-strategy delivery chain"),
			mcp.WithString("window",
				mcp.Required(),
				mcp.Description("Window handle (decimal or 0x-prefixed hex)"),
			),
			mcp.WithString("text", mcp.Required(), mcp.Description("Text to type")),
		),
		s.handleText,
	)

	// instance_text - Text straight to an instance
	s.server.AddTool(
		mcp.NewTool("instance_text",
			mcp.WithDescription("Type text into an emulator instance by index, returning the per-strategy audit trail"),
			mcp.WithNumber("index", mcp.Required(), mcp.Description("Instance index")),
			mcp.WithString("text", mcp.Required(), mcp.Description("Text to type")),
		),
		s.handleInstanceText,
	)

	// instance_shortcut - Console shortcut command
	s.server.AddTool(
		mcp.NewTool("instance_shortcut",
			mcp.WithDescription("Fire a console shortcut on an emulator instance"),
			mcp.WithNumber("index", mcp.Required(), mcp.Description("Instance index")),
			mcp.WithString("command",
				mcp.Required(),
				mcp.Description("Shortcut: go_home, go_back, go_menu, volume_up, volume_down"),
			),
		),
		s.handleInstanceShortcut,
	)
}

// windowArg parses a window handle argument: decimal or 0x-prefixed hex.
func windowArg(args map[string]interface{}) (uint64, error) {
	raw, ok := args["window"].(string)
	if !ok || raw == "" {
		return 0, fmt.Errorf("window is required")
	}
	raw = strings.TrimSpace(raw)
	base := 10
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		raw = raw[2:]
		base = 16
	}
	h, err := strconv.ParseUint(raw, base, 64)
	if err != nil || h == 0 {
		return 0, fmt.Errorf("invalid window handle %q", args["window"])
	}
	return h, nil
}

// intArg reads a required numeric argument.
func intArg(args map[string]interface{}, name string) (int, error) {
	v, ok := args[name].(float64)
	if !ok {
		return 0, fmt.Errorf("%s is required", name)
	}
	return int(v), nil
}

// optIntArg reads an optional numeric argument with a default.
func optIntArg(args map[string]interface{}, name string, def int) int {
	if v, ok := args[name].(float64); ok {
		return int(v)
	}
	return def
}

func textResult(format string, a ...interface{}) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(fmt.Sprintf(format, a...)),
		},
	}
}

func (s *MCPServer) handleClick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	h, err := windowArg(args)
	if err != nil {
		return nil, err
	}
	x, err := intArg(args, "x")
	if err != nil {
		return nil, err
	}
	y, err := intArg(args, "y")
	if err != nil {
		return nil, err
	}
	button, _ := args["button"].(string)

	if err := s.app.Click(h, x, y, button); err != nil {
		return nil, fmt.Errorf("failed to click: %w", err)
	}
	return textResult("Clicked at (%d,%d) in window 0x%X", x, y, h), nil
}

func (s *MCPServer) handleDoubleClick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	h, err := windowArg(args)
	if err != nil {
		return nil, err
	}
	x, err := intArg(args, "x")
	if err != nil {
		return nil, err
	}
	y, err := intArg(args, "y")
	if err != nil {
		return nil, err
	}
	button, _ := args["button"].(string)

	if err := s.app.DoubleClick(h, x, y, button); err != nil {
		return nil, fmt.Errorf("failed to double click: %w", err)
	}
	return textResult("Double-clicked at (%d,%d) in window 0x%X", x, y, h), nil
}

func (s *MCPServer) handleDrag(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	h, err := windowArg(args)
	if err != nil {
		return nil, err
	}
	x1, err := intArg(args, "x1")
	if err != nil {
		return nil, err
	}
	y1, err := intArg(args, "y1")
	if err != nil {
		return nil, err
	}
	x2, err := intArg(args, "x2")
	if err != nil {
		return nil, err
	}
	y2, err := intArg(args, "y2")
	if err != nil {
		return nil, err
	}
	duration := optIntArg(args, "duration_ms", 300)

	if err := s.app.Drag(h, x1, y1, x2, y2, duration); err != nil {
		return nil, fmt.Errorf("failed to drag: %w", err)
	}
	return textResult("Dragged (%d,%d) -> (%d,%d) in window 0x%X", x1, y1, x2, y2, h), nil
}

func (s *MCPServer) handleScroll(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	h, err := windowArg(args)
	if err != nil {
		return nil, err
	}
	x, err := intArg(args, "x")
	if err != nil {
		return nil, err
	}
	y, err := intArg(args, "y")
	if err != nil {
		return nil, err
	}
	delta, err := intArg(args, "delta")
	if err != nil {
		return nil, err
	}

	if err := s.app.Scroll(h, x, y, delta); err != nil {
		return nil, fmt.Errorf("failed to scroll: %w", err)
	}
	return textResult("Scrolled %d notches at (%d,%d) in window 0x%X", delta, x, y, h), nil
}

func (s *MCPServer) handleKey(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	h, err := windowArg(args)
	if err != nil {
		return nil, err
	}
	key, ok := args["key"].(string)
	if !ok || key == "" {
		return nil, fmt.Errorf("key is required")
	}

	if err := s.app.SendKey(h, key); err != nil {
		return nil, fmt.Errorf("failed to send key: %w", err)
	}
	return textResult("Sent key %q to window 0x%X", key, h), nil
}

func (s *MCPServer) handleKeyCombo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	h, err := windowArg(args)
	if err != nil {
		return nil, err
	}
	raw, ok := args["keys"].(string)
	if !ok || raw == "" {
		return nil, fmt.Errorf("keys is required")
	}

	var keys []string
	for _, k := range strings.Split(raw, "+") {
		k = strings.TrimSpace(k)
		if k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("keys is required")
	}

	if err := s.app.SendKeyCombination(h, keys); err != nil {
		return nil, fmt.Errorf("failed to send key combination: %w", err)
	}
	return textResult("Sent %s to window 0x%X", strings.Join(keys, "+"), h), nil
}

func (s *MCPServer) handleText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	h, err := windowArg(args)
	if err != nil {
		return nil, err
	}
	text, ok := args["text"].(string)
	if !ok || text == "" {
		return nil, fmt.Errorf("text is required")
	}

	if err := s.app.SendText(h, text); err != nil {
		return nil, fmt.Errorf("failed to send text: %w", err)
	}
	return textResult("Typed %d characters into window 0x%X", len([]rune(text)), h), nil
}

func (s *MCPServer) handleInstanceText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	index, err := intArg(args, "index")
	if err != nil {
		return nil, err
	}
	text, ok := args["text"].(string)
	if !ok || text == "" {
		return nil, fmt.Errorf("text is required")
	}

	result, err := s.app.SendTextToInstance(index, text)
	if err != nil {
		return nil, fmt.Errorf("failed to send text: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(string(data)),
		},
	}, nil
}

func (s *MCPServer) handleInstanceShortcut(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	index, err := intArg(args, "index")
	if err != nil {
		return nil, err
	}
	cmd, ok := args["command"].(string)
	if !ok || cmd == "" {
		return nil, fmt.Errorf("command is required")
	}

	if err := s.app.Shortcut(index, cmd); err != nil {
		return nil, fmt.Errorf("failed to run shortcut: %w", err)
	}
	return textResult("Ran %s on instance %d", cmd, index), nil
}
