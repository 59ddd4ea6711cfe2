// Package journal records the requests dispatched through a fake transport.
//
// A Journal keeps entries in memory and aggregates dispatch latency into an
// HDR histogram. A Store persists entries into SQLite so that a long-running
// mock server can be inspected after the fact.
package journal
