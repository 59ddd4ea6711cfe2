// Package builtin provides the functions available to response templates.
//
// Available functions:
//   - uuid(): Random UUID v4
//   - now(), date(layout): Current time, RFC 3339 or a Go layout
//   - timestamp(), timestampMs(): Current Unix time
//   - random(min, max): Random integer in range
//   - randomString(length), randomEmail(): Random text
//   - base64(value), base64Decode(value): Base64 encoding
//   - md5(value), sha256(value): Hex digests
//   - urlEncode(value), urlDecode(value): Query escaping
//
// Templates invoke them with the {{$name(args)}} syntax; the parentheses may
// be omitted for calls without arguments.
package builtin
