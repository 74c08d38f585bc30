// Package state holds the search session: which screen is shown, the list
// behind it, and the queries the user ran.
//
// # Overview
//
// A Machine is the single owner of the session state. The presentation layer
// drives it with operations (StartSearch, SelectBook, GoBack, Retry,
// ClearSearch) and renders the Snapshot each operation returns, or the ones
// delivered through Subscribe.
//
// # States
//
// Exactly one Kind is active at a time:
//
//	Loading  a search is in flight
//	List     the last search returned at least one record
//	Detail   one record is shown on its own
//	Error    the last search failed, or matched nothing under EmptyAsError
//	Empty    the last search matched nothing under EmptyAsState
//
// Moving from Detail back to List never issues a request; the machine keeps a
// copy of the last successful list for that. A failed search does not replace
// that copy.
//
// # Concurrency
//
// Every mutation happens under one mutex. The remote call runs outside it.
// Each search takes a sequence number and cancels the context of the one
// before it, so a late response from an older search is dropped instead of
// overwriting newer state.
//
// Subscribe hands out a one-slot channel that always carries the newest
// snapshot. A reader that falls behind skips intermediate states.
//
// # Recent searches
//
// Queries the user runs are kept most recent first, at most MaxRecent of
// them. Duplicates are matched after trimming, NFC normalization and case
// folding. The session-start query and retries are not recorded.
package state
