// Package process spawns child processes with per-stream redirection, waits
// for them and translates their termination into the errors taxonomy.
//
// A Command describes one child. Each standard stream gets a Redirect; the
// zero value pipes the stream and exposes the caller end on the Command after
// Start:
//
//	cmd := &process.Command{Argv: []string{"git", "status"}, Stdin: process.Null}
//	if err := process.Start(ctx, cmd); err != nil {
//		return err
//	}
//	out, _ := io.ReadAll(cmd.Out)
//	cmd.Out.Close()
//	cmd.Err.Close()
//	err := process.Finish(ctx, cmd)
//
// Run combines Start and Finish; RunV and friends build a Command with all
// streams inherited from a small Options bitmask.
//
// Async producers run a registered function in a child process and stream its
// output back through a pipe. The child is the current executable started
// again, so programs using StartAsync must call DispatchProducer at the top of
// main (or TestMain).
//
// Contexts passed to this package carry logging and tracing scope. They never
// cancel a child: a caller that wants a child gone signals Command.Pid itself
// and still calls Finish to reap it.
package process
