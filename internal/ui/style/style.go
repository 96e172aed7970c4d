// Package style provides shared UI styling primitives including colors and
// icons for consistent output across the CLI.
package style

import "github.com/charmbracelet/lipgloss"

// Colors.
var (
	Sky    = lipgloss.Color("#38BDF8")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Dot     = "●"
	Circle  = "○"
)
