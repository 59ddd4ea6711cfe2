// Package message turns a client-side *http.Request into the server-side view a
// handler expects.
//
// A ServerRequest carries:
//   - Canonicalized headers (case-insensitive lookups, multi-valued)
//   - An environment map (REQUEST_URI, QUERY_STRING, HTTP_* entries, credentials)
//   - Cookies, query parameters and the decoded body
//   - Uploaded files extracted from multipart/form-data bodies
//
// Construction never fails on malformed body content; the decoders degrade to
// empty trees instead. Every With* method returns an independent copy.
package message
