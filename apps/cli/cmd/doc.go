// Package cmd implements the hitfake CLI commands using Cobra.
//
// Available commands:
//   - serve: Serve a YAML routes file (or an echo handler) over HTTP
//   - decode: Normalize raw HTTP requests and print the server-side view
//   - journal: Summarize a persisted request journal
//   - version: Show hitfake version information
package cmd
