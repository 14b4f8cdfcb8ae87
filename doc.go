/*
Package beanstalkt implements an asynchronous client for the beanstalk
work queue.

Create a Client and connect it:

	client := beanstalkt.NewClient(beanstalkt.Config{Host: "localhost", Port: 11300})
	if err := client.Connect(ctx); err != nil {
		// handle error
	}
	defer client.Close()

	id, err := client.Put(ctx, []byte("Hello World"), beanstalkt.PutParams{
		Priority: beanstalkt.DefaultPriority,
		Delay:    2 * time.Second,
		TTR:      1 * time.Minute,
	})
	if err != nil {
		// handle error
	}

	if _, err = client.Watch(ctx, "example_tube"); err != nil {
		// handle error
	}

	job, err := client.ReserveWithTimeout(ctx, 3*time.Second)
	if err != nil {
		// handle error
	}

	// process job

	if err = client.Delete(ctx, job.ID); err != nil {
		// handle error
	}

The protocol has no request ids, so a reply can only be attributed to a
request when exactly one request is outstanding. The client therefore keeps
a FIFO of submitted commands and has at most one on the wire at any time;
commands issued from multiple goroutines are answered in submission order.
This also means a Reserve without timeout parks the connection until the
server produces a job, and every command submitted in the meantime waits in
line behind it. Use ReserveWithTimeout when that is not acceptable.

A canceled context stops a caller from waiting on its command, but does not
withdraw the command: it stays queued and is still executed in order.

If the connection is lost unexpectedly, the client re-connects on its own
at Config.ReconnectTimeout intervals. After a re-connect it first restores
the session: the watched tubes and the used tube are replayed onto the new
connection before anything that was queued during the outage runs. Requests
that were queued while disconnected wait for the new connection; they fail
only when the client is explicitly closed. A callback registered with
SetReconnectNotify fires each time the session has been restored.

Unsuccessful replies carry a status classification: ErrBuried, ErrTimedOut,
ErrDeadlineSoon, ErrCommandFailed for failures the verb anticipates (like
NOT_FOUND), and ErrUnexpectedResponse for everything else. Match them with
errors.Is, and inspect the RequestError for the raw status line, e.g. to
detect UNKNOWN_COMMAND from a server that predates kick-job:

	if err := client.KickJob(ctx, id); err != nil {
		var reqErr *beanstalkt.RequestError
		if errors.As(err, &reqErr) && reqErr.Status == "UNKNOWN_COMMAND" {
			_, err = client.Kick(ctx, 1)
		}
	}
*/
package beanstalkt
