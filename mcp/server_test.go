package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestNewMCPServerNotRunning(t *testing.T) {
	s := NewMCPServer(NewMockApp())
	if s.IsRunning() {
		t.Error("freshly built server reports running")
	}
}

func TestStopClearsRunning(t *testing.T) {
	s := NewMCPServer(NewMockApp())
	s.mu.Lock()
	s.isRunning = true
	s.mu.Unlock()

	s.Stop()
	if s.IsRunning() {
		t.Error("server still reports running after Stop")
	}
}

func TestStartRejectsDoubleStart(t *testing.T) {
	s := NewMCPServer(NewMockApp())
	s.mu.Lock()
	s.isRunning = true
	s.mu.Unlock()

	if err := s.Start(); err == nil {
		t.Error("Start succeeded while already running")
	}
	if err := s.StartAsync(); err == nil {
		t.Error("StartAsync succeeded while already running")
	}
}

func TestWindowsResource(t *testing.T) {
	mock := NewMockApp()
	mock.ListTargetWindowsResult = []WindowSummary{
		{Handle: 0x100, Title: "LDPlayer", Category: "emulator_family_a", Index: 2, HasIndex: true},
	}
	s := NewMCPServer(mock)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "marionette://windows"
	contents, err := s.handleWindowsResource(context.Background(), req)
	if err != nil {
		t.Fatalf("handleWindowsResource: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents[0] is %T", contents[0])
	}
	if tc.URI != "marionette://windows" || tc.MIMEType != "application/json" {
		t.Errorf("contents = URI %q MIME %q", tc.URI, tc.MIMEType)
	}
	if !strings.Contains(tc.Text, "LDPlayer") {
		t.Errorf("resource body %q missing window data", tc.Text)
	}
}

func TestInstancesResource(t *testing.T) {
	mock := NewMockApp()
	mock.ListInstancesResult = []InstanceSummary{{Index: 0, Name: "clone-a", Running: true}}
	s := NewMCPServer(mock)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "marionette://instances"
	contents, err := s.handleInstancesResource(context.Background(), req)
	if err != nil {
		t.Fatalf("handleInstancesResource: %v", err)
	}
	tc := contents[0].(mcp.TextResourceContents)
	if !strings.Contains(tc.Text, "clone-a") {
		t.Errorf("resource body %q missing instance data", tc.Text)
	}
}
