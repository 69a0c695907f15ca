// Package httpserver exposes the replication queue over a small JSON
// HTTP API plus an SSE endpoint for live subscription. It is the only
// remote surface of the node; the CLI client speaks this API.
package httpserver
