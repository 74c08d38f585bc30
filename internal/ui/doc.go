// Package ui provides the terminal interface for shelf.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program over a Session, normally a *state.Machine.
// It never talks to the network itself: every user action becomes a session
// operation run inside a tea.Cmd, and the snapshot it returns comes back as a
// message. The model also subscribes to the session so that intermediate
// states, such as Loading, show up while an operation is still running.
//
// Snapshots carry a version. The model ignores any snapshot older than the
// one it already shows, so the order in which command results and
// subscription updates arrive does not matter.
//
// # Package Structure
//
//   - model.go: Model, Update loop, key routing, commands and Run
//   - view.go: header, search bar, recent chips, result grid, detail, footer
//   - text.go: truncation, word wrap and HTML-to-text for descriptions
//   - keys.go: key bindings (bubbles/key)
//   - help.go: help overlay
//   - theme.go: Dracula and Slate palettes (lipgloss)
//
// # Screens
//
//   - Loading: spinner and "Loading books..."
//   - List: result cards in as many columns as the terminal width allows
//   - Detail: the selected book in a scrollable viewport
//   - Error: "Failed to load books" and a retry key; the cause is logged,
//     not shown
//   - Empty: "No books found" for the query, when empty results are not
//     treated as errors
//
// # Preferences
//
// The theme and recent searches are saved to the prefs file when the theme
// is cycled and again when the program exits.
package ui
