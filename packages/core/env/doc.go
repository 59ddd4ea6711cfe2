// Package env builds the metadata bag that seeds the environment of every
// fake server request.
//
// It provides functionality for:
//   - Loading .env files
//   - Importing prefixed variables from the process environment
//   - Merging several sources with later sources taking precedence
package env
