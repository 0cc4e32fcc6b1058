// Package console wires the course console together.
//
// New builds every collaborator from a config.Config: telemetry, the token
// store, the API client, an empty cache store, the query client, the
// mutation runner, the course service and the health checks. Nothing is
// process-global; two consoles never share cache entries.
//
// Logout clears the stored token and every cached entry, so the next user
// of the same console cannot see the previous user's data. A 401 from the
// service has the same effect.
package console
