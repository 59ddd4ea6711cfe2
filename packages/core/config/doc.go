// Package config handles configuration loading for the hitfake CLI.
//
// It provides functionality for:
//   - Loading configuration from .hitfake.config.json, hitfake.config.json
//     or .hitfakerc files
//   - Default configuration values
//   - Merging command-line overrides on top of the file
package config
