// Package replq provides the service facade over the realtime replication
// queue: payload validation at the boundary, the subscribe pump that turns
// pull/ack cycles into a streamed feed for a transport sink, and snapshot
// accessors used by the HTTP API and CLI.
package replq
