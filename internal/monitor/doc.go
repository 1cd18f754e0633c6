// Package monitor implements the pulse terminal dashboard.
//
// The dashboard shows every host and workload the configured data sources
// report, in two side-by-side panels with a detail panel for the selected
// entity and a status bar underneath.
//
// # Architecture
//
// The package uses the Bubble Tea framework (Model-Update-View), but the
// Model holds almost no state of its own. Inventory, filter, sort and
// selection all live in a view.State that the refresh scheduler writes to
// from its own goroutine. The Model:
//
//   - forwards key presses to view.State mutators
//   - reads view.State.Frame() on every paint and never blocks on a refresh
//   - keeps a short CPU history per entity for the detail sparkline
//
// # Message Flow
//
//  1. The scheduler finishes a cycle and applies it to view.State
//  2. Its OnCycle hook sends the scheduler.Cycle to the program
//  3. Update records CPU history for the new snapshot
//  4. View() re-renders from the latest frame
//
// A one-second tickMsg keeps the "refreshed ... ago" text current.
//
// # Keyboard Shortcuts
//
//	q, Ctrl+C   - Quit
//	Tab         - Switch between hosts and workloads
//	j/k, ↑/↓    - Move selection
//	g/G, Home/End - First / last row
//	r           - Refresh now
//	s / S       - Cycle sort column / toggle direction
//	/           - Filter by name (Enter keeps it, Esc clears it)
//	?           - Toggle help overlay
package monitor
