package channel

import (
	"context"
	"errors"
	"time"

	"github.com/dnp3go/dnp3/dnplog"
)

// Session is the upper-layer protocol logic a Channel drives. A Channel
// owns the Transport and the connect/reconnect state machine; Session
// owns everything above the wire (link framing, transport reassembly,
// the master task engine or the outstation responder).
//
// All methods are called from the single goroutine Channel.Run runs on —
// a Session implementation never needs its own locking.
type Session interface {
	// HandleBytes processes newly read bytes and returns bytes to write
	// immediately in response, if any (e.g. a link-layer ACK).
	HandleBytes(now time.Time, data []byte) (toWrite []byte, err error)
	// Tick runs on every scheduler wake-up — a timer firing or bytes
	// having just been handled — so the session can check its own
	// deadlines (response timeout, confirm timeout, poll due) and
	// produce its next outgoing fragment. nextWake is when Channel must
	// call Tick again even if no bytes arrive before then.
	Tick(now time.Time) (toWrite []byte, nextWake time.Time)
	// OnConnected lets the session reset protocol state that only makes
	// sense for a live transport (e.g. re-arming a master association's
	// startup task sequence).
	OnConnected(now time.Time)
	// OnDisconnected notifies the session the transport is gone.
	OnDisconnected()
}

// Channel supervises one physical transport: connect/reconnect backoff,
// the Disabled/Connecting/Connected/Failed state machine, and driving a
// Session's single-threaded event loop while connected.
type Channel struct {
	name      string
	strategy  ConnectStrategy
	connector Connector
	session   Session
	listener  StateListener
	log       dnplog.Logger

	state    State
	disabled bool
	enable   chan struct{}

	readBufSize int
}

// NewChannel creates a Channel. name identifies it in logs; it need not be
// unique. The channel starts enabled — Run begins connecting immediately;
// call Disable first to hold off until Enable is called.
func NewChannel(name string, strategy ConnectStrategy, connector Connector, session Session, listener StateListener) *Channel {
	if listener == nil {
		listener = NopStateListener{}
	}
	return &Channel{
		name:        name,
		strategy:    strategy,
		connector:   connector,
		session:     session,
		listener:    listener,
		log:         dnplog.NewLogger(nil),
		state:       StateDisabled,
		enable:      make(chan struct{}, 1),
		readBufSize: 2048,
	}
}

// SetLogger replaces the channel's logger.
func (c *Channel) SetLogger(l dnplog.Logger) { c.log = l }

// State returns the channel's current state.
func (c *Channel) State() State { return c.state }

func (c *Channel) setState(s State) {
	if s == c.state {
		return
	}
	from := c.state
	c.state = s
	c.listener.OnStateChange(from, s)
}

// Enable lets Run's connect loop resume after Disable; a new channel
// starts enabled.
func (c *Channel) Enable() {
	select {
	case c.enable <- struct{}{}:
	default:
	}
}

// Disable stops the connect loop after the current transport (if any) is
// torn down; Run keeps running and waits for Enable.
func (c *Channel) Disable() {
	c.disabled = true
	c.setState(StateDisabled)
}

// Run drives the connect/reconnect loop until ctx is cancelled. It never
// returns nil; ctx.Err() is returned on a clean shutdown.
func (c *Channel) Run(ctx context.Context) error {
	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.disabled {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.enable:
				c.disabled = false
			}
			continue
		}

		c.setState(StateConnecting)
		tr, err := c.connector.Connect()
		if err != nil {
			c.log.Warn("%s: connect failed: %v", c.name, err)
			c.setState(StateFailed)
			if errors.Is(err, ErrFatal) {
				return err
			}
			attempt = c.backoff(ctx, attempt)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}

		attempt = 0
		c.setState(StateConnected)
		now := time.Now()
		c.session.OnConnected(now)
		runErr := c.runConnected(ctx, tr)
		c.session.OnDisconnected()
		_ = tr.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if runErr != nil {
			c.log.Warn("%s: transport closed: %v", c.name, runErr)
			c.setState(StateFailed)
			if errors.Is(runErr, ErrFatal) {
				return runErr
			}
			attempt = c.backoff(ctx, attempt)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}

// backoff waits out strategy.Next(attempt), or until ctx is cancelled,
// and returns the incremented attempt count.
func (c *Channel) backoff(ctx context.Context, attempt int) int {
	delay := c.strategy.Next(attempt)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
	return attempt + 1
}

// readResult is what the background reader goroutine posts for every
// Transport.Read call.
type readResult struct {
	n   int
	buf []byte
	err error
}

// runConnected drives Session against tr until a read error, a Session
// error, or ctx cancellation. The blocking Read call runs on its own
// goroutine so the select loop can also watch ctx and the Tick timer;
// this is the one goroutine-per-connection a Transport forces on us
// (io.Reader has no cancellable variant), everything else in Channel is
// single-threaded.
func (c *Channel) runConnected(ctx context.Context, tr Transport) error {
	reads := make(chan readResult, 1)
	readCtx, cancelRead := context.WithCancel(ctx)
	defer cancelRead()
	go func() {
		buf := make([]byte, c.readBufSize)
		for {
			n, err := tr.Read(buf)
			select {
			case reads <- readResult{n: n, buf: append([]byte(nil), buf[:n]...), err: err}:
			case <-readCtx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	now := time.Now()
	toWrite, nextWake := c.session.Tick(now)
	if len(toWrite) > 0 {
		if _, err := tr.Write(toWrite); err != nil {
			return err
		}
	}

	for {
		timer := time.NewTimer(time.Until(nextWake))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case rr := <-reads:
			timer.Stop()
			now = time.Now()
			if rr.n > 0 {
				toWrite, err := c.session.HandleBytes(now, rr.buf)
				if err != nil {
					return err
				}
				if len(toWrite) > 0 {
					if _, werr := tr.Write(toWrite); werr != nil {
						return werr
					}
				}
			}
			if rr.err != nil {
				return rr.err
			}
			toWrite, nextWake = c.session.Tick(now)
			if len(toWrite) > 0 {
				if _, err := tr.Write(toWrite); err != nil {
					return err
				}
			}
		case <-timer.C:
			now = time.Now()
			toWrite, nextWake = c.session.Tick(now)
			if len(toWrite) > 0 {
				if _, err := tr.Write(toWrite); err != nil {
					return err
				}
			}
		}
	}
}
