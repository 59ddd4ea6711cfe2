// Package fake provides an in-process HTTP client backed by a request handler.
//
// A Transport never opens a socket: each outgoing *http.Request is turned
// into a message.ServerRequest and handed to a Handler, whose *http.Response
// is returned to the caller as if it came from the network.
//
// Features:
//   - http.RoundTripper implementation usable with any *http.Client
//   - Adapter for plain http.Handler values
//   - Handler failures and panics reported as NetworkError
//   - Optional dispatch journal
//   - Response helpers for writing handlers
package fake
