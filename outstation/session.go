package outstation

import (
	"time"

	"github.com/dnp3go/dnp3/channel"
	"github.com/dnp3go/dnp3/link"
	"github.com/dnp3go/dnp3/transport"
)

// Session adapts an Outstation to channel.Session: it owns the
// per-connection data-link layer and transport reassembler/segmenter,
// translating raw bytes to and from application fragments. A fresh
// Session is rebuilt on every connect (OnConnected), matching the
// data-link layer's "reset on new physical connection" convention — stale
// FCB/sequence state from a previous TCP session must never leak into a
// new one.
type Session struct {
	o            *Outstation
	local        link.Address
	remote       link.Address
	rxBufferSize int
	tickPeriod   time.Duration

	ll    *link.Layer
	rx    *transport.Reassembler
	txSeq byte
}

var _ channel.Session = (*Session)(nil)

// NewSession creates a Session for outstation o, answering on local and
// expecting requests from remote. tickPeriod bounds how often Tick runs
// even with no bytes arriving, so a confirm-wait timeout or an unsolicited
// response is noticed without depending on the next inbound byte.
func NewSession(o *Outstation, local, remote link.Address, rxBufferSize int, tickPeriod time.Duration) *Session {
	if tickPeriod <= 0 {
		tickPeriod = 100 * time.Millisecond
	}
	return &Session{o: o, local: local, remote: remote, rxBufferSize: rxBufferSize, tickPeriod: tickPeriod}
}

// OnConnected rebuilds the link and transport layers for the new
// connection.
func (s *Session) OnConnected(now time.Time) {
	s.ll = link.NewLayer(s.local, s.remote, true, link.Discard)
	s.rx = transport.NewReassembler(s.rxBufferSize)
	s.txSeq = 0
}

// OnDisconnected drops the per-connection link/transport state.
func (s *Session) OnDisconnected() {
	s.ll = nil
	s.rx = nil
}

// HandleBytes feeds data through the link layer (answering link-management
// frames in place) and the transport reassembler, dispatching any
// completed application fragment to the outstation and segmenting its
// response back onto the wire.
func (s *Session) HandleBytes(now time.Time, data []byte) ([]byte, error) {
	received, toSend, _ := s.ll.Feed(data) // Discard mode never errors.
	out := append([]byte(nil), toSend...)
	for _, r := range received {
		frag, done, err := s.rx.Feed(r.UserData)
		if err != nil || !done {
			continue
		}
		if resp, ok := s.o.HandleFragment(now, r.Broadcast, frag); ok {
			out = append(out, s.wrap(resp)...)
		}
	}
	return out, nil
}

// Tick checks the confirm-wait deadline and offers the outstation a chance
// to emit an unsolicited response.
func (s *Session) Tick(now time.Time) ([]byte, time.Time) {
	s.o.CheckConfirmTimeout(now)
	var out []byte
	if resp, ok := s.o.CheckUnsolicited(now); ok {
		out = s.wrap(resp)
	}
	return out, now.Add(s.tickPeriod)
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
