package master

import (
	"github.com/dnp3go/dnp3/objects"
)

// ReadType names why a fragment is being dispatched to the read handler,
// passed to BeginReadFragment/EndReadFragment so a host can distinguish an
// unsolicited report from a poll response without inspecting task state.
type ReadType int

const (
	ReadTypeStartupIntegrity ReadType = iota
	ReadTypePoll
	ReadTypeUnsolicited
	ReadTypeCommandResponse
)

// ReadHandler receives the decoded contents of every response fragment.
// It embeds objects.Visitor, dispatched one call per header via
// objects.Dispatch; BeginReadFragment/EndReadFragment bracket a whole
// fragment (which may carry several headers), bracketing it the way a
// begin_fragment/end_fragment pair does.
type ReadHandler interface {
	objects.Visitor
	BeginReadFragment(t ReadType)
	EndReadFragment(t ReadType)
}

// NopReadHandler implements ReadHandler with no-op methods; embed it in a
// host handler that only cares about a few object kinds.
type NopReadHandler struct {
	objects.NopVisitor
}

func (NopReadHandler) BeginReadFragment(ReadType) {}
func (NopReadHandler) EndReadFragment(ReadType)   {}

// AssociationHandler supplies master-side time information needed for
// time synchronization.
type AssociationHandler interface {
	// CurrentTimeMillis returns the master's own clock as DNP3 milliseconds
	// since epoch, used as t_local in both time-sync procedures.
	CurrentTimeMillis() uint64
}

// TaskType names the kind of task AssociationInformation lifecycle hooks
// report on.
type TaskType int

const (
	TaskClearRestartIIN TaskType = iota
	TaskDisableUnsolicited
	TaskEnableUnsolicited
	TaskStartupIntegrity
	TaskAutoTimeSync
	TaskKeepAlive
	TaskPoll
	TaskCommand
)

func (t TaskType) String() string {
	switch t {
	case TaskClearRestartIIN:
		return "ClearRestartIIN"
	case TaskDisableUnsolicited:
		return "DisableUnsolicited"
	case TaskEnableUnsolicited:
		return "EnableUnsolicited"
	case TaskStartupIntegrity:
		return "StartupIntegrityPoll"
	case TaskAutoTimeSync:
		return "AutoTimeSync"
	case TaskKeepAlive:
		return "KeepAlive"
	case TaskPoll:
		return "Poll"
	case TaskCommand:
		return "Command"
	default:
		return "Unknown"
	}
}

// AssociationInformation receives task lifecycle and unsolicited-receipt
// observability callbacks. All methods are optional; embed
// NopAssociationInformation to pick only the ones a host cares about.
type AssociationInformation interface {
	TaskStart(t TaskType, id TaskID)
	TaskSuccess(t TaskType, id TaskID)
	TaskFail(t TaskType, id TaskID, err error)
	UnsolicitedReceived()
}

// NopAssociationInformation is a no-op AssociationInformation.
type NopAssociationInformation struct{}

func (NopAssociationInformation) TaskStart(TaskType, TaskID)        {}
func (NopAssociationInformation) TaskSuccess(TaskType, TaskID)      {}
func (NopAssociationInformation) TaskFail(TaskType, TaskID, error)  {}
func (NopAssociationInformation) UnsolicitedReceived()              {}
