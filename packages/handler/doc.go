// Package handler provides fake.Handler implementations for scripted HTTP
// fakes.
//
// SpecHandler answers with the response of the first route whose rule
// matches; routes can be built in code with Builder or loaded from a YAML
// file with LoadRoutesFile. RoutingHandler dispatches on method and URI,
// Throttle rate-limits another handler, and Watcher reloads a route file
// into a Reloadable handler whenever it changes on disk.
package handler
