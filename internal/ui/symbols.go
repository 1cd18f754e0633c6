package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓" // Source answered
	SymbolFail     = "✗" // Source failed
	SymbolPending  = "○" // Not yet known
	SymbolProgress = "◐" // In progress
	SymbolComplete = "●" // Online / running
	SymbolSkipped  = "⊘" // Stopped
)
