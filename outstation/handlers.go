package outstation

import "github.com/dnp3go/dnp3/objects"

// RestartMode names the kind of delay a restart callback returns.
type RestartMode int

const (
	RestartNotSupported RestartMode = iota
	RestartSeconds
	RestartMillis
)

// RestartDelay is the application callback's answer to a cold/warm restart
// request: either unsupported, or a delay expressed in the variation the
// response should carry (group 52 var 1, time delay coarse, for seconds;
// var 2, time delay fine, for milliseconds; see handleRestart).
type RestartDelay struct {
	Mode  RestartMode
	Value uint16
}

// Application is the host-provided outstation behavior callback set.
type Application interface {
	// ColdRestart and WarmRestart perform the restart and report how long
	// the outstation will be unavailable.
	ColdRestart() RestartDelay
	WarmRestart() RestartDelay
	// WriteAbsoluteTime applies a master-supplied time correction (group 50
	// var 1 write), clearing IIN1.4 (need time) on success.
	WriteAbsoluteTime(ms uint64) error
}

// ControlHandler executes control operations against application logic
// outside the point database, returning the status to echo back. Select
// must not cause any physical action; only Operate may.
type ControlHandler interface {
	SelectCROB(index uint32, crob objects.CROB) objects.CommandStatus
	OperateCROB(index uint32, crob objects.CROB) objects.CommandStatus
}

// Information receives observability callbacks for protocol-level events
// that have no other return path (confirm timeouts, unexpected sequences,
// broadcast activity). All methods are optional; embed NopInformation to
// pick only the ones a host cares about.
type Information interface {
	SolicitedConfirmTimeout()
	UnsolicitedConfirmTimeout()
	WrongSolicitedConfirmSeq(expected, got byte)
	BroadcastReceived(function byte)
}

// NopInformation is a no-op Information a host can embed and override
// selectively.
type NopInformation struct{}

func (NopInformation) SolicitedConfirmTimeout()                    {}
func (NopInformation) UnsolicitedConfirmTimeout()                  {}
func (NopInformation) WrongSolicitedConfirmSeq(expected, got byte) {}
func (NopInformation) BroadcastReceived(function byte)             {}
