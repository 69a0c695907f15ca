// Package config loads riak-repl configuration from a JSON file with env
// overrides (RIAK_REPL_*). Defaults are suitable for a local single-node
// queue.
package config
