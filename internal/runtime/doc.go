// Package runtime wires storage, config, and the realtime queue into a
// single-node riak-repl instance. It exposes Open/Close and a basic health
// check.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
//	seq, _ := rt.Queue().Push(ctx, payload)
package runtime
