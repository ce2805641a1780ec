package master

import (
	"time"

	"github.com/dnp3go/dnp3/apdu"
	"github.com/dnp3go/dnp3/channel"
	"github.com/dnp3go/dnp3/link"
	"github.com/dnp3go/dnp3/objects"
	"github.com/dnp3go/dnp3/transport"
)

// sessionState is the request/response driver's state, layered on top of
// Association's scheduling decisions: Association only ever picks the next
// task to run, Session owns actually sending it and waiting for its
// response.
type sessionState int

const (
	stateIdle sessionState = iota
	stateAwaitingResponse
)

// Session adapts an Association to channel.Session: per connection it owns
// the data-link/transport layers, asks the association what to send next,
// matches the response (or times it out and retries), dispatches decoded
// object headers to a ReadHandler, confirms fragments that ask for it, and
// handles unsolicited responses as a side channel independent of whatever
// task is currently outstanding.
//
// Select-before-operate echo validation (CompareCROBEcho) is not wired
// in here: a submitted Task carries only its already-encoded Body, not the
// structured CROB it was built from, so there is nothing here to compare
// the echo against. Exercising CompareCROBEcho needs a richer
// SubmitSelect/SubmitOperate entry point that remembers the CROB alongside
// the Task, which this package does not yet expose.
type Session struct {
	assoc   *Association
	handler ReadHandler
	ah      AssociationHandler
	local   link.Address
	remote  link.Address
	rxBufferSize int
	tickPeriod   time.Duration

	ll    *link.Layer
	rx    *transport.Reassembler
	txSeq byte

	state      sessionState
	current    *Task
	currentSeq byte
	deadline   time.Time

	haveUnsolSeq bool
	lastUnsolSeq byte
}

var _ channel.Session = (*Session)(nil)

// NewSession creates a Session driving assoc, answering on local and
// talking to the outstation at remote. tickPeriod bounds how often Tick
// runs with nothing to send, so a response timeout is noticed without
// depending on the next inbound byte.
func NewSession(assoc *Association, handler ReadHandler, ah AssociationHandler, local, remote link.Address, rxBufferSize int, tickPeriod time.Duration) *Session {
	if handler == nil {
		handler = NopReadHandler{}
	}
	if tickPeriod <= 0 {
		tickPeriod = 100 * time.Millisecond
	}
	return &Session{
		assoc: assoc, handler: handler, ah: ah,
		local: local, remote: remote,
		rxBufferSize: rxBufferSize, tickPeriod: tickPeriod,
	}
}

// OnConnected rebuilds the link and transport layers for the new
// connection and returns the task state machine to idle: any task that
// was in flight on the previous connection is gone with it.
func (s *Session) OnConnected(now time.Time) {
	s.ll = link.NewLayer(s.local, s.remote, false, link.Discard)
	s.rx = transport.NewReassembler(s.rxBufferSize)
	s.txSeq = 0
	s.state = stateIdle
	s.current = nil
	s.haveUnsolSeq = false
}

// OnDisconnected drops the per-connection link/transport state.
func (s *Session) OnDisconnected() {
	s.ll = nil
	s.rx = nil
}

// HandleBytes feeds data through the link layer and transport reassembler,
// dispatching every completed application fragment.
func (s *Session) HandleBytes(now time.Time, data []byte) ([]byte, error) {
	received, toSend, _ := s.ll.Feed(data) // Discard mode never errors.
	out := append([]byte(nil), toSend...)
	for _, r := range received {
		frag, done, err := s.rx.Feed(r.UserData)
		if err != nil || !done {
			continue
		}
		out = append(out, s.handleFragment(now, frag)...)
	}
	return out, nil
}

// Tick resolves a timed-out response wait and, once idle, asks the
// association for the next thing to send.
func (s *Session) Tick(now time.Time) ([]byte, time.Time) {
	if s.state == stateAwaitingResponse {
		if now.Before(s.deadline) {
			return nil, s.deadline
		}
		s.timeout(now)
	}
	action := s.assoc.NextAction(now)
	if action.Task == nil {
		return nil, action.SleepTil
	}
	out := s.send(now, action.Task)
	return out, s.deadline
}

// timeout abandons the in-flight task: a retryable task (auto-task or
// poll) goes back on the queue, everything else is dropped and reported.
func (s *Session) timeout(now time.Time) {
	t := s.current
	s.current = nil
	s.state = stateIdle
	if t == nil {
		return
	}
	s.assoc.info.TaskFail(t.Type, t.ID, ErrResponseTimeout)
	if t.Retryable {
		s.assoc.Requeue(t)
	}
}

// send builds and transmits t's request fragment and arms the
// response-wait deadline.
func (s *Session) send(now time.Time, t *Task) []byte {
	hdr := s.assoc.Assign(t)
	if t.Type == TaskAutoTimeSync && t.Function != apdu.FuncWrite && s.ah != nil {
		s.assoc.BeginTimeSync(s.ah.CurrentTimeMillis())
	}
	fragment := append(hdr.Value(), t.Body...)

	s.current = t
	s.currentSeq = hdr.Control.Seq
	s.state = stateAwaitingResponse
	s.deadline = now.Add(s.assoc.cfg.ResponseTimeout)
	return s.wrap(fragment)
}

// handleFragment parses one complete application fragment from the
// outstation and routes it to the unsolicited or solicited-response path.
func (s *Session) handleFragment(now time.Time, frag []byte) []byte {
	hdr, err := apdu.ParseHeader(frag)
	if err != nil || len(frag) < 4 {
		return nil
	}
	iin := apdu.IIN{IIN1: frag[2], IIN2: frag[3]}
	body := frag[4:]

	switch hdr.Function {
	case apdu.FuncUnsolicitedResponse:
		return s.handleUnsolicited(now, hdr, iin, body)
	case apdu.FuncResponse:
		return s.handleResponse(now, hdr, iin, body)
	default:
		return nil
	}
}

// handleUnsolicited dispatches an unsolicited response independent of
// whatever task the association currently has outstanding, deduping
// retransmissions by sequence number and confirming immediately when
// asked.
func (s *Session) handleUnsolicited(now time.Time, hdr apdu.Header, iin apdu.IIN, body []byte) []byte {
	s.assoc.RecordActivity(now)
	s.assoc.info.UnsolicitedReceived()
	if iin.Has1(apdu.IIN1DeviceRestart) {
		s.assoc.OnRestartObserved()
	}

	dup := s.haveUnsolSeq && hdr.Control.Seq == s.lastUnsolSeq
	s.haveUnsolSeq = true
	s.lastUnsolSeq = hdr.Control.Seq
	if !dup {
		s.dispatch(ReadTypeUnsolicited, body)
	}

	if !hdr.Control.CON {
		return nil
	}
	return s.wrap(s.confirm(hdr.Control.Seq))
}

// handleResponse matches a solicited response against the currently
// awaited task, dispatches it, confirms if asked, and either extends the
// wait (a non-final fragment of a multi-fragment response) or completes
// the task (FIN=1).
//
// A non-final fragment (FIN=0) is accepted without re-checking its
// sequence against the original request: DNP3 only guarantees the
// sequence is stable across a multi-fragment response, and by the time a
// second fragment arrives the wait has already been validated once. This
// is a simplification; a host relying on strict per-fragment sequence
// checks across a multi-fragment response would need more bookkeeping
// here.
func (s *Session) handleResponse(now time.Time, hdr apdu.Header, iin apdu.IIN, body []byte) []byte {
	if s.state != stateAwaitingResponse || s.current == nil {
		return nil
	}
	if err := ValidateResponse(s.currentSeq, hdr); err != nil {
		return nil
	}

	s.assoc.RecordActivity(now)
	if iin.Has1(apdu.IIN1DeviceRestart) {
		s.assoc.OnRestartObserved()
	}

	t := s.current
	if t.Type == TaskAutoTimeSync && t.Function != apdu.FuncWrite && s.ah != nil {
		if err := s.assoc.CompleteTimeSync(now, s.ah.CurrentTimeMillis(), delayFromBody(body)); err != nil {
			s.assoc.info.TaskFail(t.Type, t.ID, err)
		}
	}

	s.dispatch(t.ReadType, body)

	var out []byte
	if hdr.Control.CON {
		out = s.wrap(s.confirm(hdr.Control.Seq))
	}
	if !hdr.Control.FIN {
		s.deadline = now.Add(s.assoc.cfg.ResponseTimeout)
		return out
	}

	s.current = nil
	s.state = stateIdle
	s.assoc.info.TaskSuccess(t.Type, t.ID)
	return out
}

// dispatch decodes body's object headers and hands each one to the read
// handler, bracketed by BeginReadFragment/EndReadFragment.
func (s *Session) dispatch(rt ReadType, body []byte) {
	headers, err := objects.DecodeResponse(body, &objects.CTOState{})
	if err != nil {
		return
	}
	s.handler.BeginReadFragment(rt)
	for _, h := range headers {
		_ = objects.Dispatch(h, s.handler)
	}
	s.handler.EndReadFragment(rt)
}

// confirm builds a Confirm fragment echoing seq.
func (s *Session) confirm(seq byte) []byte {
	hdr := apdu.Header{Control: apdu.Control{FIR: true, FIN: true, Seq: seq}, Function: apdu.FuncConfirm}
	return hdr.Value()
}

// wrap segments an application fragment into transport segments and link
// frames, advancing the transport send sequence across calls.
func (s *Session) wrap(fragment []byte) []byte {
	var out []byte
	for _, seg := range transport.Segment(fragment, s.txSeq) {
		s.txSeq = (s.txSeq + 1) & 0x3F
		frame, err := s.ll.Wrap(seg)
		if err != nil {
			continue
		}
		out = append(out, frame...)
	}
	return out
}

// delayFromBody extracts the outstation's self-reported processing delay
// from a group 52 variation 2 object, used by the non-LAN time-sync
// procedure; 0 (no delay reported) if the body carries none, which is
// correct for the LAN procedure's RECORD_CURRENT_TIME response.
func delayFromBody(body []byte) uint16 {
	headers, err := objects.DecodeResponse(body, &objects.CTOState{})
	if err != nil {
		return 0
	}
	for _, h := range headers {
		if h.Kind != objects.KindTimeDelay {
			continue
		}
		for _, item := range h.Items {
			if td, ok := item.Value.(objects.TimeDelayInfo); ok {
				return td.Value
			}
		}
	}
	return 0
}
