package master

import (
	"time"

	"github.com/dnp3go/dnp3/apdu"
	"github.com/dnp3go/dnp3/dnplog"
)

// Action is what the scheduler decided to do at one decision point: send a
// task's request, or sleep until a deadline with nothing ready.
type Action struct {
	Task     *Task
	SleepTil time.Time // valid only when Task is nil
}

// Association tracks one outstation association's auto-task state, poll
// schedule and user-command queue, and decides what to send next following
// priority rule: ready auto-task, else oldest due poll, else head of the
// user-command FIFO, else sleep until the next deadline.
type Association struct {
	cfg AssociationConfig
	log dnplog.Logger
	info AssociationInformation

	seq byte

	needClearRestartIIN    bool
	needDisableUnsolicited bool
	needStartupIntegrity   bool
	needEnableUnsolicited  bool
	needAutoTimeSync       bool
	needTimeSyncWrite      bool
	timeSyncWriteMs        uint64

	// timeSyncSentMs is the master's own clock, in DNP3 milliseconds, at
	// the moment the pending TaskAutoTimeSync request was sent. The
	// caller driving the task lifecycle stamps it via BeginTimeSync so
	// CompleteTimeSync can compute the round trip.
	timeSyncSentMs uint64

	// timeSyncDeadline re-arms needAutoTimeSync once AssociationConfig's
	// TimeSyncPeriod elapses; zero when no periodic re-sync is pending
	// (TimeSyncPeriod == 0, or the first sync after connect hasn't run
	// yet).
	timeSyncDeadline time.Time

	lastActivity     time.Time
	keepAlivePending bool

	polls []*poll

	userCommands []*Task

	lastKnownTimeMs    uint64
	haveLastKnownTime  bool
}

// NewAssociation creates an Association whose startup auto-task sequence
// (disable unsolicited, startup integrity poll, enable unsolicited) is
// already pending, as it would be on first connect.
func NewAssociation(cfg AssociationConfig, info AssociationInformation, now time.Time) *Association {
	if info == nil {
		info = NopAssociationInformation{}
	}
	a := &Association{
		cfg:                    cfg,
		log:                    dnplog.NewLogger(nil),
		info:                   info,
		needDisableUnsolicited: true,
		needStartupIntegrity:   true,
		needEnableUnsolicited:  true,
		needAutoTimeSync:       cfg.AutoTimeSync,
		lastActivity:           now,
	}
	return a
}

// SetLogger replaces the association's logger.
func (a *Association) SetLogger(l dnplog.Logger) { a.log = l }

// AddPoll registers a periodic class scan, due immediately.
func (a *Association) AddPoll(cfg PollConfig, now time.Time) {
	a.polls = append(a.polls, newPoll(cfg, now))
}

// DemandPoll moves poll i's deadline to now, forcing it due on the next
// scheduling decision.
func (a *Association) DemandPoll(i int, now time.Time) {
	if i >= 0 && i < len(a.polls) {
		a.polls[i].demand(now)
	}
}

// SubmitCommand enqueues a user command at the tail of the FIFO.
func (a *Association) SubmitCommand(t *Task) {
	t.Type = TaskCommand
	a.userCommands = append(a.userCommands, t)
}

// Requeue puts a task back at the head of the user-command FIFO after a
// retryable failure (response timeout), without relabeling its Type the
// way SubmitCommand would — an auto-task or poll retried through this path
// must still report under its original TaskType.
func (a *Association) Requeue(t *Task) {
	a.userCommands = append([]*Task{t}, a.userCommands...)
}

// OnRestartObserved records that IIN1.7 (device restart) was seen on a
// response, arming the ClearRestartIIN auto-task and re-running the full
// startup sequence — the outstation has forgotten its session state.
func (a *Association) OnRestartObserved() {
	a.needClearRestartIIN = true
	a.needDisableUnsolicited = true
	a.needStartupIntegrity = true
	a.needEnableUnsolicited = true
}

// RecordActivity resets the keep-alive idle clock; call it whenever any
// response is received for this association.
func (a *Association) RecordActivity(now time.Time) {
	a.lastActivity = now
	a.keepAlivePending = false
}

func (a *Association) nextSeq() byte {
	s := a.seq
	a.seq = apdu.NextSeq(a.seq)
	return s
}

// nextAutoTask returns the highest-priority ready auto-task, or nil if
// none is pending: clear restart IIN, disable unsolicited (startup),
// startup integrity poll, enable unsolicited, auto time sync, then
// keep-alive, in that priority order.
func (a *Association) nextAutoTask(now time.Time) *Task {
	if a.cfg.TimeSyncPeriod > 0 && !a.timeSyncDeadline.IsZero() && !now.Before(a.timeSyncDeadline) {
		a.needAutoTimeSync = true
		a.timeSyncDeadline = time.Time{}
	}
	if a.needClearRestartIIN {
		a.needClearRestartIIN = false
		return &Task{ID: newTaskID(), Type: TaskClearRestartIIN, Function: apdu.FuncWrite,
			Body: clearRestartIINBody(), ReadType: ReadTypeCommandResponse}
	}
	if a.needDisableUnsolicited {
		a.needDisableUnsolicited = false
		return &Task{ID: newTaskID(), Type: TaskDisableUnsolicited, Function: apdu.FuncDisableUnsolicited,
			Body: classScanBody(a.cfg.DisableUnsolClasses), ReadType: ReadTypeCommandResponse}
	}
	if a.needStartupIntegrity {
		a.needStartupIntegrity = false
		return &Task{ID: newTaskID(), Type: TaskStartupIntegrity, Function: apdu.FuncRead,
			Body: classScanBody(a.cfg.StartupIntegrityClasses), ReadType: ReadTypeStartupIntegrity, Retryable: true}
	}
	if a.needEnableUnsolicited {
		a.needEnableUnsolicited = false
		return &Task{ID: newTaskID(), Type: TaskEnableUnsolicited, Function: apdu.FuncEnableUnsolicited,
			Body: classScanBody(a.cfg.EnableUnsolClasses), ReadType: ReadTypeCommandResponse}
	}
	if a.needAutoTimeSync {
		a.needAutoTimeSync = false
		fn := apdu.FuncDelayMeasure
		if !a.cfg.NonLANTimeSync {
			fn = apdu.FuncRecordCurrentTime
		}
		return &Task{ID: newTaskID(), Type: TaskAutoTimeSync, Function: fn, ReadType: ReadTypeCommandResponse, Retryable: true}
	}
	if a.needTimeSyncWrite {
		a.needTimeSyncWrite = false
		build := writeTimeBody
		if !a.cfg.NonLANTimeSync {
			build = lastRecordedTimeBody
		}
		return &Task{ID: newTaskID(), Type: TaskAutoTimeSync, Function: apdu.FuncWrite,
			Body: build(a.timeSyncWriteMs), ReadType: ReadTypeCommandResponse, Retryable: true}
	}
	if a.cfg.KeepAliveTimeout > 0 && !a.keepAlivePending && !now.Before(a.lastActivity.Add(a.cfg.KeepAliveTimeout)) {
		a.keepAlivePending = true
		return &Task{ID: newTaskID(), Type: TaskKeepAlive, Function: apdu.FuncDelayMeasure, ReadType: ReadTypeCommandResponse}
	}
	return nil
}

// BeginTimeSync records the master's own clock, as DNP3 milliseconds, at
// the moment a TaskAutoTimeSync (or TaskKeepAlive) request is sent. Call it
// right before sending that request; CompleteTimeSync needs the value to
// compute the round trip.
func (a *Association) BeginTimeSync(sentMs uint64) {
	a.timeSyncSentMs = sentMs
}

// CompleteTimeSync consumes a TaskAutoTimeSync response and arms the
// follow-up group 50 write that reports the computed outstation time back
// to it. recvMs is the master's own clock when the response arrived;
// delayMs is the outstation's self-reported processing delay (group 52
// var 2, non-LAN procedure only — pass 0 for the LAN procedure, where
// RECORD_CURRENT_TIME carries no objects and the written time is simply
// the value BeginTimeSync recorded). now re-arms the periodic re-sync
// deadline when AssociationConfig.TimeSyncPeriod is set.
func (a *Association) CompleteTimeSync(now time.Time, recvMs uint64, delayMs uint16) error {
	var result uint64
	var err error
	if a.cfg.NonLANTimeSync {
		result, err = ComputeNonLANTime(a.timeSyncSentMs, recvMs, delayMs, a.lastKnownTimeMs, a.haveLastKnownTime)
	} else {
		result, err = ComputeLANTime(a.timeSyncSentMs, a.lastKnownTimeMs, a.haveLastKnownTime)
	}
	if err != nil {
		return err
	}
	a.lastKnownTimeMs = result
	a.haveLastKnownTime = true
	a.needTimeSyncWrite = true
	a.timeSyncWriteMs = result
	if a.cfg.TimeSyncPeriod > 0 {
		a.timeSyncDeadline = now.Add(a.cfg.TimeSyncPeriod)
	}
	return nil
}

// nextDuePoll returns the oldest poll whose deadline has elapsed, or nil.
func (a *Association) nextDuePoll(now time.Time) (*poll, *Task) {
	var oldest *poll
	for _, p := range a.polls {
		if !p.due(now) {
			continue
		}
		if oldest == nil || p.deadline.Before(oldest.deadline) {
			oldest = p
		}
	}
	if oldest == nil {
		return nil, nil
	}
	return oldest, &Task{ID: newTaskID(), Type: TaskPoll, Function: apdu.FuncRead,
		Body: classScanBody(oldest.cfg.Classes), ReadType: ReadTypePoll, Retryable: true}
}

// NextAction decides what to do next, per the association's scheduling
// priority.
// When it returns a Task, the caller is responsible for building the
// fragment (Task.Function, Task.Body, and a sequence from Assign), sending
// it, and reporting the outcome back via RecordActivity/OnRestartObserved/
// re-enqueueing on retry.
func (a *Association) NextAction(now time.Time) Action {
	if t := a.nextAutoTask(now); t != nil {
		a.info.TaskStart(t.Type, t.ID)
		return Action{Task: t}
	}
	if p, t := a.nextDuePoll(now); t != nil {
		p.reschedule(now)
		a.info.TaskStart(t.Type, t.ID)
		return Action{Task: t}
	}
	if len(a.userCommands) > 0 {
		t := a.userCommands[0]
		a.userCommands = a.userCommands[1:]
		a.info.TaskStart(t.Type, t.ID)
		return Action{Task: t}
	}

	sleepTil := now.Add(time.Hour)
	for _, p := range a.polls {
		if p.deadline.Before(sleepTil) {
			sleepTil = p.deadline
		}
	}
	if a.cfg.KeepAliveTimeout > 0 {
		deadline := a.lastActivity.Add(a.cfg.KeepAliveTimeout)
		if deadline.Before(sleepTil) {
			sleepTil = deadline
		}
	}
	if a.cfg.TimeSyncPeriod > 0 && !a.timeSyncDeadline.IsZero() && a.timeSyncDeadline.Before(sleepTil) {
		sleepTil = a.timeSyncDeadline
	}
	return Action{SleepTil: sleepTil}
}

// Assign stamps t with the next outgoing sequence number and returns the
// 2-byte application header to prefix its Body with.
func (a *Association) Assign(t *Task) apdu.Header {
	ctrl := apdu.Control{FIR: true, FIN: true, Seq: a.nextSeq()}
	if t.Function == apdu.FuncConfirm {
		ctrl.UNS = false
	}
	return apdu.Header{Control: ctrl, Function: t.Function}
}

// ValidateResponse checks the three response-acceptance rules: the
// function code is Response (not UnsolicitedResponse), the sequence
// matches the request, and UNS=0 on a response to a solicited request.
func ValidateResponse(reqSeq byte, resp apdu.Header) error {
	switch resp.Function {
	case apdu.FuncResponse:
		if resp.Control.UNS {
			return ErrUnsolicitedResponse
		}
		if resp.Control.Seq != reqSeq {
			return ErrSequenceMismatch
		}
		return nil
	case apdu.FuncUnsolicitedResponse:
		return ErrWrongFunctionCode
	default:
		return ErrWrongFunctionCode
	}
}
