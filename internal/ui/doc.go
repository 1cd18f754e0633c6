// Package ui provides terminal output helpers for pulse's one-shot commands
// and the pieces the dashboard shares with them.
//
// # Components
//
//	Spinner     - Animated status line while `pulse check` waits on sources
//	RenderTable - Static tables built on the Bubbles table component
//	Sparkline   - Block-character trend line on a 0-100 scale
//	Thresholds  - Warning/critical cut-offs that pick a metric's color
//
// # Color Scheme
//
// Semantic colors are ANSI codes so output follows the terminal theme:
//
//	ColorSuccess   (green)  - Healthy values, sources that answered
//	ColorError     (red)    - Critical values, failed sources
//	ColorWarning   (yellow) - Values past the warning threshold
//	ColorMuted     (gray)   - Secondary text, timing info
//
// The neon accents are true-color and match the dashboard palette.
package ui
