package beanstalkt

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
)

// pending couples a submitted request with the channel its result is
// delivered on. Every pending resolves exactly once; ordinary requests in
// submission order, resync requests ahead of them.
type pending struct {
	req      *request
	resultC  chan result
	queuedAt time.Time
	sentAt   time.Time
	resync   bool
}

type result struct {
	resp *response
	err  error
}

// run is the engine goroutine. It owns the request queue, the single
// in-flight slot, the session and the reconnect cycle; none of that state
// is touched from anywhere else.
func (c *Client) run(conn net.Conn) {
	defer func() {
		c.mu.Lock()
		c.running = false
		c.connected = false
		c.mu.Unlock()
		close(c.stoppedC)
	}()

	var (
		queue      []*pending
		inflight   *pending
		tp         *transport
		reqC       chan *request
		resultC    chan result
		closedC    chan error
		connC      <-chan net.Conn
		abort      context.CancelFunc
		resyncLeft int
	)

	reconnect := time.NewTimer(time.Second)
	reconnect.Stop()

	// attach hands the connection to a fresh read loop.
	attach := func(conn net.Conn) {
		tp = newTransport(conn)
		reqC = make(chan *request, 1)
		resultC = make(chan result, 1)
		closedC = make(chan error, 1)
		go readLoop(tp, reqC, resultC, closedC)
		c.setConnected(true)
	}

	// complete delivers the result of the in-flight request.
	complete := func(r result) {
		p := inflight
		inflight = nil
		c.finish(p, r)

		if p.resync && resyncLeft > 0 {
			if r.err != nil {
				// Ignored; the next reconnect retries the whole sequence.
				c.config.ErrorLog.Printf("Error replaying session state (%s): %s", p.req.cmd, r.err)
			}

			if resyncLeft--; resyncLeft == 0 {
				c.notifyReconnected()
			}
		}
	}

	// detach drops the transport after a failure, fails the in-flight
	// request and schedules a reconnect attempt.
	detach := func() {
		if tp != nil {
			_ = tp.close()
			tp, reqC, resultC, closedC = nil, nil, nil, nil
		}
		c.setConnected(false)

		// A broken connection aborts the resync cycle; the next one
		// starts afresh.
		resyncLeft = 0
		if inflight != nil {
			complete(result{err: ErrConnectionClosed})
		}

		reconnect.Reset(c.config.ReconnectTimeout)
	}

	attach(conn)

	for {
		// Dispatch the head of the queue whenever the line is idle. The
		// single in-flight slot is what keeps replies attributable, as the
		// protocol carries no request ids. While disconnected, entries
		// simply stay queued.
		if tp != nil && inflight == nil && len(queue) > 0 {
			inflight, queue = queue[0], queue[1:]
			recordQueueLatency(time.Since(inflight.queuedAt))

			// The descriptor goes to the reader before the write, so the
			// reply can never arrive unannounced.
			reqC <- inflight.req
			if err := tp.writeRequest(inflight.req.cmd, inflight.req.body); err != nil {
				c.config.ErrorLog.Printf("Error writing to beanstalk server: %s", err)
				detach()
			} else {
				inflight.sentAt = time.Now()
			}

			continue
		}

		select {
		case p := <-c.submitC:
			queue = append(queue, p)

		case r := <-resultC:
			complete(r)

		case err := <-closedC:
			// The final reply may already be waiting; deliver it before
			// tearing the connection down.
			if inflight != nil {
				select {
				case r := <-resultC:
					complete(r)
				default:
				}
			}

			if err != nil {
				c.config.ErrorLog.Printf("Connection to beanstalk server lost: %s", err)
			}
			detach()

		case <-reconnect.C:
			connC, abort = dialRetry(c.config)

		case conn := <-connC:
			connC, abort = nil, nil
			attach(conn)
			recordReconnect()

			// Stale resync entries from a previous cycle are dropped; this
			// connection gets a fresh sequence. Resync requests go to the
			// front of the queue, so the session is restored before any
			// requests that callers queued during the outage.
			queue = dropResync(queue)
			reqs := c.session.resyncRequests()
			if len(reqs) == 0 {
				c.notifyReconnected()
				break
			}

			head := make([]*pending, 0, len(reqs)+len(queue))
			for _, req := range reqs {
				head = append(head, &pending{req: req, resultC: make(chan result, 1), queuedAt: time.Now(), resync: true})
			}
			queue = append(head, queue...)
			resyncLeft = len(reqs)

		case <-c.stopC:
			if abort != nil {
				abort()
			}
			if tp != nil {
				_ = tp.writeRequest("quit", nil)
				_ = tp.close()
			}

			if inflight != nil {
				inflight.resultC <- result{err: ErrConnectionClosed}
			}
			for _, p := range queue {
				p.resultC <- result{err: ErrConnectionClosed}
			}

			return
		}
	}
}

// finish applies a confirmed reply to the session, records metrics and
// delivers the result to the submitter.
func (c *Client) finish(p *pending, r result) {
	if r.err == nil && p.req.tube != "" {
		c.session.update(p.req)
	}

	recordCommand(p.req.op, p.sentAt, r.err)
	p.resultC <- r
}

// dropResync removes resync entries left over from a previous connection.
func dropResync(queue []*pending) []*pending {
	kept := queue[:0]
	for _, p := range queue {
		if !p.resync {
			kept = append(kept, p)
		}
	}

	return kept
}

// readLoop reads replies off the transport until it fails. The engine puts
// the in-flight request descriptor on reqC before writing the command, so a
// status line can always be matched to the request that provoked it. A line
// arriving with nothing in flight means the server broke protocol.
func readLoop(tp *transport, reqC <-chan *request, resultC chan<- result, closedC chan<- error) {
	for {
		line, err := tp.readLine()
		if err != nil {
			closedC <- err
			return
		}

		var req *request
		select {
		case req = <-reqC:
		default:
			closedC <- fmt.Errorf("unsolicited data from server: %q", line)
			return
		}

		r, fatal := decode(tp, req, line)
		resultC <- r
		if fatal != nil {
			closedC <- fatal
			return
		}
	}
}

// decode performs the two-stage read of a reply: the status line has
// already been read and is classified first; a length-prefixed body follows
// only when the reply is a success and the request expects one. The second
// return value is non-nil when the transport failed mid-reply, which is
// unrecoverable.
func decode(tp *transport, req *request, line string) (result, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return result{err: &RequestError{Op: req.op, kind: ErrUnexpectedResponse}}, nil
	}

	resp := &response{status: fields[0], values: fields[1:]}
	if reqErr := classify(req, resp.status, resp.values); reqErr != nil {
		// Error replies never carry a success-shaped body.
		return result{resp: resp, err: reqErr}, nil
	}
	if !req.readBody {
		return result{resp: resp}, nil
	}

	unexpected := func() (result, error) {
		return result{resp: resp, err: &RequestError{Op: req.op, Status: resp.status, Values: resp.values, kind: ErrUnexpectedResponse}}, nil
	}

	// A job-shaped reply announces the job id and the body length, a YAML
	// reply just the length.
	var size int
	if req.parseYAML {
		if len(resp.values) != 1 {
			return unexpected()
		}

		n, err := strconv.Atoi(resp.values[0])
		if err != nil {
			return unexpected()
		}
		size = n
	} else {
		if len(resp.values) != 2 {
			return unexpected()
		}

		id, err := strconv.ParseUint(resp.values[0], 10, 64)
		if err != nil {
			return unexpected()
		}
		n, err := strconv.Atoi(resp.values[1])
		if err != nil {
			return unexpected()
		}
		resp.jobID, size = id, n
	}

	body, err := tp.readBody(size)
	if err != nil {
		return result{resp: resp, err: ErrConnectionClosed}, err
	}
	resp.body = body

	if req.parseYAML {
		doc, err := parseYAML(body)
		if err != nil {
			return result{resp: resp, err: err}, nil
		}
		resp.yaml = doc
	}

	return result{resp: resp}, nil
}

// dialRetry establishes a new connection to the configured server in the
// background, retrying at a fixed interval until it succeeds or the
// returned cancel function is called.
func dialRetry(config Config) (<-chan net.Conn, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	connC := make(chan net.Conn)

	go func() {
		var conn net.Conn

		policy := backoff.WithContext(backoff.NewConstantBackOff(config.ReconnectTimeout), ctx)
		err := backoff.Retry(func() error {
			dialer := net.Dialer{Timeout: config.ConnectTimeout}

			var err error
			if conn, err = dialer.DialContext(ctx, "tcp", config.socket()); err != nil {
				config.ErrorLog.Printf("Unable to connect to beanstalk server %s: %s", config.socket(), err)
			}

			return err
		}, policy)
		if err != nil {
			return
		}

		config.InfoLog.Printf("New beanstalk connection to %s (local=%s)", conn.RemoteAddr(), conn.LocalAddr())

		select {
		case connC <- conn:
		case <-ctx.Done():
			_ = conn.Close()
		}
	}()

	return connC, cancel
}
