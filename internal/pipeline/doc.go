// Package pipeline runs gallery discovery: the batched existence scan over
// numbered candidates (discover.go), the session that owns its results and
// viewer state (session.go), and the CLI runner with header and summary
// logging (runner.go).
package pipeline
