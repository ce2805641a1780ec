package link

// Layer drives one data-link-layer station endpoint over a byte stream:
// frame reassembly/resync via Parser, addressed routing, and the
// secondary-station responses every station must produce when it receives
// a primary-station frame (DNP3 is balanced — master and outstation are
// each a primary station when sending and a secondary station when
// replying). Unconfirmed user data is the common case and needs no
// secondary-station bookkeeping at all; FCB tracking only engages when the
// peer actually sends ConfirmedUserData.
type Layer struct {
	Local        Address
	Remote       Address
	isOutstation bool
	parser       *Parser

	haveFCB bool
	lastFCB bool
}

// NewLayer creates a Layer for one association. isOutstation selects the
// DIR bit convention for frames this layer originates: DIR is set on
// frames addressed to the outstation, so an outstation-side layer always
// sends with DIR clear and a master-side layer always sends with DIR set.
func NewLayer(local, remote Address, isOutstation bool, mode ErrorMode) *Layer {
	return &Layer{Local: local, Remote: remote, isOutstation: isOutstation, parser: NewParser(mode)}
}

// Received is one user-data payload delivered out of Feed, tagged with
// whether it arrived addressed to the broadcast address.
type Received struct {
	UserData  []byte
	Broadcast bool
}

// Feed parses newly read bytes, answers link-management frames addressed
// to Local (ResetLinkStates, TestLinkStates, RequestLinkStatus,
// ConfirmedUserData) without involving the caller, and returns every
// user-data payload that should be passed up to the transport layer plus
// the raw bytes of any responses that must be written back.
func (l *Layer) Feed(data []byte) (received []Received, toSend []byte, err error) {
	frames, ferr := l.parser.Feed(data)
	for _, f := range frames {
		if f.Destination != l.Local && !f.Destination.IsBroadcast() {
			continue
		}
		if !f.Control.PRM {
			// Acks/status directed at us belong to a confirmed-send we
			// don't originate by default; nothing to do.
			continue
		}
		switch f.Control.Function {
		case FuncResetLinkStates:
			l.haveFCB = false
			toSend = append(toSend, l.encodeResponse(f.Source, FuncAck, false)...)
		case FuncTestLinkStates:
			toSend = append(toSend, l.encodeResponse(f.Source, FuncAck, false)...)
		case FuncRequestLinkStatus:
			toSend = append(toSend, l.encodeResponse(f.Source, FuncLinkStatus, false)...)
		case FuncConfirmedUserData:
			dup := f.Control.FCVorDFC && l.haveFCB && f.Control.FCB == l.lastFCB
			if f.Control.FCVorDFC {
				l.lastFCB = f.Control.FCB
				l.haveFCB = true
			}
			toSend = append(toSend, l.encodeResponse(f.Source, FuncAck, false)...)
			if !dup {
				received = append(received, Received{UserData: f.UserData, Broadcast: f.Destination.IsBroadcast()})
			}
		case FuncUnconfirmedUserData:
			received = append(received, Received{UserData: f.UserData, Broadcast: f.Destination.IsBroadcast()})
		}
	}
	return received, toSend, ferr
}

// Wrap encodes userData as an unconfirmed-user-data frame from Local to
// Remote — the default, unconfirmed transmission mode.
func (l *Layer) Wrap(userData []byte) ([]byte, error) {
	return Encode(Frame{
		Control:     Control{DIR: !l.isOutstation, PRM: true, Function: FuncUnconfirmedUserData},
		Destination: l.Remote,
		Source:      l.Local,
		UserData:    userData,
	})
}

// encodeResponse builds and serializes a secondary-station response frame;
// a malformed Frame here would mean an internal bug (no user data to
// overflow MaxUserDataSize), so the error is not surfaced to the caller.
func (l *Layer) encodeResponse(dest Address, fn Function, fcb bool) []byte {
	out, err := Encode(Frame{
		Control:     Control{DIR: !l.isOutstation, PRM: false, FCB: fcb, Function: fn},
		Destination: dest,
		Source:      l.Local,
	})
	if err != nil {
		return nil
	}
	return out
}
