// Package types holds the DTOs shared between the core application and
// the MCP surface, so neither imports the other's internals.
package types

// WindowSummary describes one candidate target window.
type WindowSummary struct {
	Handle   uint64 `json:"handle"`
	Class    string `json:"class"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Index    int    `json:"index"`
	HasIndex bool   `json:"has_index"`
}

// InstanceSummary describes one emulator instance known to the console.
type InstanceSummary struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Running bool   `json:"running"`
	ADBPort int    `json:"adb_port,omitempty"`
}

// TextAttempt is one entry of a text-delivery audit trail.
type TextAttempt struct {
	Strategy   string `json:"strategy"`
	Success    bool   `json:"success"`
	Diagnostic string `json:"diagnostic,omitempty"`
}

// TextResult reports the outcome of a text delivery including every
// strategy that was tried.
type TextResult struct {
	Success  bool          `json:"success"`
	Attempts []TextAttempt `json:"attempts,omitempty"`
}
