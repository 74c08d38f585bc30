// Package config loads the shelf configuration file.
//
// # Overview
//
// Settings live in a single TOML file. Every key is optional: a missing file
// or an empty value falls back to the defaults below, so shelf runs without
// any configuration at all.
//
// # Resolution
//
//  1. If a path is explicitly provided (--config), use it
//  2. Otherwise, use ~/.config/shelf/config.toml
//  3. If the file doesn't exist, use defaults
//
// # Keys and Defaults
//
//	base_url        = "https://www.googleapis.com/books/v1/"
//	default_query   = "jazz+history"
//	empty_results   = "error"    # or "empty"
//	enrich_details  = false
//	request_timeout = "0s"       # Go duration; 0 leaves it to the transport
//	user_agent      = "shelf/0.1"
//	log_file        = "~/.local/state/shelf/shelf.log"
//	log_level       = "info"
//
// Tilde expansion applies to the config path and log_file.
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors (except os.ErrNotExist, which triggers defaults)
//   - TOML parsing errors and unknown keys ("parse config: ...")
//   - Values rejected by validation ("invalid config: ..."), with every
//     failing key listed by its TOML name
package config
