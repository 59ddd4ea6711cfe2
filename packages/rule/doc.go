// Package rule matches server requests against declarative conditions.
//
// A Condition inspects one part of a message.ServerRequest (method, URI,
// query parameter, header, body or a JSON path inside the body) with a
// Comparer. Conditions compose with And, Or and Not; the Rule builder
// assembles them from field names such as "uri.path" or "header.accept".
package rule
