package client

import (
	"github.com/spf13/cobra"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// NewRoot constructs a root Cobra command for the riak-repl client.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "riak-repl",
		Short: "riak-repl client commands",
	}
	root.AddCommand(NewQueueCommand(baseURL))
	return root
}
