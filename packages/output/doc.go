// Package output provides formatters for displaying decoded requests and
// journal summaries.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output
//   - JSON: Machine-readable JSON output
//
// Both formatters implement Formatter. JSONFormatter accumulates documents
// and writes them on Flush.
package output
