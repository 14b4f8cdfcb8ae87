package beanstalkt

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"go.opencensus.io/trace"
)

// Client implements an asynchronous beanstalk client on a single
// connection. Any number of goroutines can issue commands concurrently; the
// client queues them and talks to the server one request at a time, in
// submission order.
//
// If the connection is lost unexpectedly, the client keeps re-connecting at
// ReconnectTimeout intervals and replays the used tube and watch list onto
// the new connection. Requests queued in the meantime wait; they do not
// fail.
type Client struct {
	config  Config
	session *session

	mu        sync.Mutex
	running   bool
	connected bool
	notify    func()
	submitC   chan *pending
	stopC     chan struct{}
	stoppedC  chan struct{}
}

// NewClient returns a new beanstalk Client. Call Connect to establish the
// connection.
func NewClient(config Config) *Client {
	return &Client{config: config.normalize(), session: newSession()}
}

// Dial creates a Client for the specified host and port and connects it.
func Dial(host string, port int) (*Client, error) {
	client := NewClient(Config{Host: host, Port: port})
	if err := client.Connect(context.Background()); err != nil {
		return nil, err
	}

	return client, nil
}

// Connect to the beanstalk server. Connect is a no-op when the client is
// already connected, or busy re-connecting on its own.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	dialer := net.Dialer{Timeout: c.config.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.config.socket())
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.running {
		// Lost the race against a concurrent Connect.
		c.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	c.running = true
	c.connected = true
	c.submitC = make(chan *pending)
	c.stopC = make(chan struct{}, 1)
	c.stoppedC = make(chan struct{})
	c.mu.Unlock()

	c.config.InfoLog.Printf("New beanstalk connection to %s (local=%s)", conn.RemoteAddr(), conn.LocalAddr())

	go c.run(conn)
	return nil
}

// Close the connection to the beanstalk server. A quit command is sent as a
// courtesy. Requests that are queued or in flight fail with
// ErrConnectionClosed.
func (c *Client) Close() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	stopC, stoppedC := c.stopC, c.stoppedC
	c.mu.Unlock()

	select {
	case stopC <- struct{}{}:
	case <-stoppedC:
	}
	<-stoppedC

	c.config.InfoLog.Printf("Closed connection to beanstalk server %s", c.config.socket())
}

// Closed reports whether the client currently has no established
// connection.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return !c.connected
}

// SetReconnectNotify registers fn to be called after a lost connection has
// been re-established and the used tube and watch list have been replayed.
func (c *Client) SetReconnectNotify(fn func()) {
	c.mu.Lock()
	c.notify = fn
	c.mu.Unlock()
}

func (c *Client) notifyReconnected() {
	c.mu.Lock()
	notify := c.notify
	c.mu.Unlock()

	c.config.InfoLog.Printf("Re-established session with beanstalk server %s", c.config.socket())
	if notify != nil {
		go notify()
	}
}

func (c *Client) setConnected(connected bool) {
	c.mu.Lock()
	c.connected = connected
	c.mu.Unlock()
}

// do submits a request and waits for its completion. A canceled context
// stops the wait, but not the request itself: it stays queued and is still
// performed in submission order.
func (c *Client) do(ctx context.Context, req *request) (*response, error) {
	c.mu.Lock()
	running, submitC, stoppedC := c.running, c.submitC, c.stoppedC
	c.mu.Unlock()

	if !running {
		return nil, ErrNotConnected
	}

	p := &pending{req: req, resultC: make(chan result, 1), queuedAt: time.Now()}

	select {
	case submitC <- p:
	case <-stoppedC:
		return nil, ErrConnectionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-p.resultC:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// doUint performs a request whose reply carries a numeric scalar.
func (c *Client) doUint(ctx context.Context, req *request) (uint64, error) {
	resp, err := c.do(ctx, req)
	if err != nil {
		return 0, err
	}

	n, err := strconv.ParseUint(resp.value(), 10, 64)
	if err != nil {
		return 0, &RequestError{Op: req.op, Status: resp.status, Values: resp.values, kind: ErrUnexpectedResponse}
	}

	return n, nil
}

// doJob performs a request whose reply carries a job body.
func (c *Client) doJob(ctx context.Context, req *request) (*Job, error) {
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	return &Job{ID: resp.jobID, Body: resp.body}, nil
}

// doYAMLMap performs a request whose reply carries a YAML mapping.
func (c *Client) doYAMLMap(ctx context.Context, req *request) (map[string]interface{}, error) {
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	dict, ok := resp.yaml.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("reply to %s is not a yaml mapping", req.op)
	}

	return dict, nil
}

// doYAMLList performs a request whose reply carries a YAML list.
func (c *Client) doYAMLList(ctx context.Context, req *request) ([]string, error) {
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	list, ok := resp.yaml.([]string)
	if !ok {
		return nil, fmt.Errorf("reply to %s is not a yaml list", req.op)
	}

	return list, nil
}

// Put a job into the currently used tube. It returns the id the server
// assigned to the job. The job is buried on insertion when the server is
// out of memory; that surfaces as ErrBuried carrying the job id.
func (c *Client) Put(ctx context.Context, body []byte, params PutParams) (uint64, error) {
	ctx, span := trace.StartSpan(ctx, "github.com/nephics/beanstalkt/Client.Put")
	defer span.End()

	if params.TTR == 0 {
		params.TTR = DefaultTTR
	}

	return c.doUint(ctx, &request{
		op:        "put",
		cmd:       fmt.Sprintf("put %d %d %d %d", params.Priority, dur(params.Delay), dur(params.TTR), len(body)),
		body:      body,
		ok:        []string{"INSERTED"},
		err:       []string{"BURIED", "JOB_TOO_BIG", "DRAINING"},
		readValue: true,
	})
}

// Use the tube with the given name for upcoming put requests. It returns
// the name of the tube now being used.
func (c *Client) Use(ctx context.Context, tube string) (string, error) {
	resp, err := c.do(ctx, useRequest(tube))
	if err != nil {
		return "", err
	}

	return resp.value(), nil
}

// Reserve a job from one of the watched tubes. Without a deadline this
// holds the connection until a job becomes available; commands issued in
// the meantime are queued and sent, in order, once communication resumes.
func (c *Client) Reserve(ctx context.Context) (*Job, error) {
	ctx, span := trace.StartSpan(ctx, "github.com/nephics/beanstalkt/Client.Reserve")
	defer span.End()

	return c.doJob(ctx, &request{
		op:       "reserve",
		cmd:      "reserve",
		ok:       []string{"RESERVED"},
		err:      []string{"DEADLINE_SOON", "TIMED_OUT"},
		readBody: true,
	})
}

// ReserveWithTimeout reserves a job from one of the watched tubes, waiting
// for at most the given timeout. A zero timeout makes the server respond
// immediately, with either a job or ErrTimedOut.
func (c *Client) ReserveWithTimeout(ctx context.Context, timeout time.Duration) (*Job, error) {
	ctx, span := trace.StartSpan(ctx, "github.com/nephics/beanstalkt/Client.ReserveWithTimeout")
	defer span.End()

	return c.doJob(ctx, &request{
		op:       "reserve-with-timeout",
		cmd:      fmt.Sprintf("reserve-with-timeout %d", dur(timeout)),
		ok:       []string{"RESERVED"},
		err:      []string{"DEADLINE_SOON", "TIMED_OUT"},
		readBody: true,
	})
}

// Delete a job. This is done after successfully processing a reserved job.
func (c *Client) Delete(ctx context.Context, id uint64) error {
	_, err := c.do(ctx, &request{
		op:  "delete",
		cmd: fmt.Sprintf("delete %d", id),
		ok:  []string{"DELETED"},
		err: []string{"NOT_FOUND"},
	})

	return err
}

// Release a reserved job back into the ready queue, with a new priority and
// an optional delay before it becomes ready.
func (c *Client) Release(ctx context.Context, id uint64, priority uint32, delay time.Duration) error {
	_, err := c.do(ctx, &request{
		op:  "release",
		cmd: fmt.Sprintf("release %d %d %d", id, priority, dur(delay)),
		ok:  []string{"RELEASED"},
		err: []string{"BURIED", "NOT_FOUND"},
	})

	return err
}

// Bury a reserved job, assigning it a new priority.
func (c *Client) Bury(ctx context.Context, id uint64, priority uint32) error {
	_, err := c.do(ctx, &request{
		op:  "bury",
		cmd: fmt.Sprintf("bury %d %d", id, priority),
		ok:  []string{"BURIED"},
		err: []string{"NOT_FOUND"},
	})

	return err
}

// Touch a reserved job, requesting more time to work on it before it
// expires.
func (c *Client) Touch(ctx context.Context, id uint64) error {
	_, err := c.do(ctx, &request{
		op:  "touch",
		cmd: fmt.Sprintf("touch %d", id),
		ok:  []string{"TOUCHED"},
		err: []string{"NOT_FOUND"},
	})

	return err
}

// Watch adds the tube with the given name to the watch list. It returns the
// number of tubes now being watched.
func (c *Client) Watch(ctx context.Context, tube string) (int, error) {
	n, err := c.doUint(ctx, watchRequest(tube))
	return int(n), err
}

// Ignore removes the tube with the given name from the watch list. It
// returns the number of tubes still being watched. Ignoring the last
// watched tube fails with ErrCommandFailed and leaves the watch list
// untouched.
func (c *Client) Ignore(ctx context.Context, tube string) (int, error) {
	n, err := c.doUint(ctx, ignoreRequest(tube))
	return int(n), err
}

// Peek at the job with the given id.
func (c *Client) Peek(ctx context.Context, id uint64) (*Job, error) {
	return c.doJob(ctx, &request{
		op:       "peek",
		cmd:      fmt.Sprintf("peek %d", id),
		ok:       []string{"FOUND"},
		err:      []string{"NOT_FOUND"},
		readBody: true,
	})
}

// PeekReady peeks at the next ready job in the currently used tube.
func (c *Client) PeekReady(ctx context.Context) (*Job, error) {
	return c.doJob(ctx, &request{
		op:       "peek-ready",
		cmd:      "peek-ready",
		ok:       []string{"FOUND"},
		err:      []string{"NOT_FOUND"},
		readBody: true,
	})
}

// PeekDelayed peeks at the delayed job with the shortest delay left in the
// currently used tube.
func (c *Client) PeekDelayed(ctx context.Context) (*Job, error) {
	return c.doJob(ctx, &request{
		op:       "peek-delayed",
		cmd:      "peek-delayed",
		ok:       []string{"FOUND"},
		err:      []string{"NOT_FOUND"},
		readBody: true,
	})
}

// PeekBuried peeks at the next buried job in the currently used tube.
func (c *Client) PeekBuried(ctx context.Context) (*Job, error) {
	return c.doJob(ctx, &request{
		op:       "peek-buried",
		cmd:      "peek-buried",
		ok:       []string{"FOUND"},
		err:      []string{"NOT_FOUND"},
		readBody: true,
	})
}

// Kick moves at most bound buried or delayed jobs in the currently used
// tube back to the ready queue. It returns the number of jobs actually
// kicked.
func (c *Client) Kick(ctx context.Context, bound int) (int, error) {
	n, err := c.doUint(ctx, &request{
		op:        "kick",
		cmd:       fmt.Sprintf("kick %d", bound),
		ok:        []string{"KICKED"},
		readValue: true,
	})

	return int(n), err
}

// KickJob kicks the job with the given id back to the ready queue. Requires
// beanstalkd 1.8 or newer; older servers reply UNKNOWN_COMMAND, which
// surfaces as ErrUnexpectedResponse and can be used to fall back to Kick.
func (c *Client) KickJob(ctx context.Context, id uint64) error {
	_, err := c.do(ctx, &request{
		op:  "kick-job",
		cmd: fmt.Sprintf("kick-job %d", id),
		ok:  []string{"KICKED"},
		err: []string{"NOT_FOUND"},
	})

	return err
}

// Stats returns a mapping of statistics about the server.
func (c *Client) Stats(ctx context.Context) (map[string]interface{}, error) {
	return c.doYAMLMap(ctx, statsRequest())
}

// StatsTube returns a mapping of statistics about the tube with the given
// name.
func (c *Client) StatsTube(ctx context.Context, tube string) (map[string]interface{}, error) {
	return c.doYAMLMap(ctx, statsTubeRequest(tube))
}

// StatsJob returns a mapping of statistics about the job with the given id.
func (c *Client) StatsJob(ctx context.Context, id uint64) (map[string]interface{}, error) {
	return c.doYAMLMap(ctx, statsJobRequest(id))
}

// ListTubes returns the names of all tubes that currently exist on the
// server.
func (c *Client) ListTubes(ctx context.Context) ([]string, error) {
	return c.doYAMLList(ctx, &request{
		op:        "list-tubes",
		cmd:       "list-tubes",
		ok:        []string{"OK"},
		readBody:  true,
		parseYAML: true,
	})
}

// ListTubesWatched returns the names of the tubes in the watch list.
func (c *Client) ListTubesWatched(ctx context.Context) ([]string, error) {
	return c.doYAMLList(ctx, &request{
		op:        "list-tubes-watched",
		cmd:       "list-tubes-watched",
		ok:        []string{"OK"},
		readBody:  true,
		parseYAML: true,
	})
}

// ListTubeUsed returns the name of the tube currently being used.
func (c *Client) ListTubeUsed(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, &request{
		op:        "list-tube-used",
		cmd:       "list-tube-used",
		ok:        []string{"USING"},
		readValue: true,
	})
	if err != nil {
		return "", err
	}

	return resp.value(), nil
}

// PauseTube stops new jobs from being reserved from the tube with the given
// name for the duration of the delay.
func (c *Client) PauseTube(ctx context.Context, tube string, delay time.Duration) error {
	_, err := c.do(ctx, &request{
		op:  "pause-tube",
		cmd: fmt.Sprintf("pause-tube %s %d", tube, dur(delay)),
		ok:  []string{"PAUSED"},
		err: []string{"NOT_FOUND"},
	})

	return err
}
