// Package app wires configuration, logging, the books client, metrics and
// the search session together for the shelf commands.
//
// # Commands
//
//   - Run starts the interactive TUI. Recent searches and the theme are
//     loaded from the prefs file and saved again on exit. When MetricsAddr
//     is set, Prometheus metrics are served alongside the UI and stop with
//     it.
//   - Search runs a single query through the same search session and prints
//     a table or JSON. The empty-result policy from the config applies, so
//     with the default policy zero matches is an error.
//   - Show fetches one volume by id.
//
// # Logging
//
// The interactive session owns the terminal, so it logs to log_file. The
// one-shot commands log to Options.LogWriter when set.
//
// # Errors
//
// Configuration and logger failures are returned before any request is
// made. Search failures are returned wrapped so callers can test them with
// errors.Is against the books sentinels.
package app
