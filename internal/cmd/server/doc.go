// Package serverrun wires config, logging, the runtime, and the HTTP
// server into a blocking Run used by the CLI's server command.
package serverrun
