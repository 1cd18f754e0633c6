// Package cli implements the pulse command-line interface.
//
// # Command Structure
//
// The root command runs the dashboard; the subcommands are one-shot:
//
//	pulse              - Live dashboard
//	pulse check        - Poll every source once and print the result
//	pulse init         - Create pulse.toml interactively
//	pulse version      - Print build information
//
// # Dashboard Wiring
//
// dashboardCommand loads and validates the config, opens the log file,
// builds one data source per provider and then wires:
//
//  1. a collector over those sources with the configured fetch timeout
//  2. a view.State the dashboard reads on every paint
//  3. a scheduler that writes each cycle into the view state and sends it
//     to the Bubble Tea program
//
// Quitting the program, SIGINT or SIGTERM cancels the scheduler. The command
// waits for the in-flight cycle to finish before closing the sources.
//
// # Flag Handling
//
// --config and --debug are persistent and apply to every command.
// --interval and --log-file only make sense for the dashboard and are
// defined on the root command alone. Flags override the matching config
// settings after the file has been validated.
package cli
