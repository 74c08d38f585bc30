// Package books provides the book record model and an HTTP client for the
// public volumes search API.
//
// # Overview
//
// A search is a single GET {base}volumes?q={query}. The JSON body is checked
// against a small schema, decoded, and mapped into Book records:
//
//   - items without a volumeInfo payload are dropped silently
//   - an http:// thumbnail becomes https://, a missing one becomes ""
//   - a missing title becomes "No title"
//   - a missing description becomes "No description available"
//   - missing authors become an empty slice, never nil
//
// An absent items array is zero matches, not an error. Whether zero matches
// is shown as an error is decided by the state machine, not here.
//
// # Detail lookups
//
// Volume fetches GET {base}volumes/{id} lazily, one record at a time, when a
// record is opened. There is no per-result fan-out during search.
//
// # Errors
//
// Failures are returned as *Error values that unwrap to one of the
// sentinels:
//
//   - ErrNetwork: transport failure or non-2xx status
//   - ErrDecode: body is not JSON or does not have the expected shape
//   - ErrNotFound: Volume answered 404 or carried no info payload
//
// ErrEmptyResult lives here so callers share one taxonomy.
package books
