// Package master implements the DNP3 master station task engine: the
// per-association priority scheduler (auto-tasks, due polls, user
// commands), SBO select/operate byte-compare, and the LAN/non-LAN time
// sync procedures.
package master

import (
	"time"

	"github.com/dnp3go/dnp3/apdu"
	"github.com/google/uuid"
)

// TaskID identifies one task submission across its retries, so
// AssociationInformation hooks and logs can correlate a start with its
// eventual success or failure.
type TaskID uuid.UUID

func newTaskID() TaskID { return TaskID(uuid.New()) }

func (id TaskID) String() string { return uuid.UUID(id).String() }

// Task is one unit of work in an association's queue: a request to send,
// and how to interpret the response.
type Task struct {
	ID       TaskID
	Type     TaskType
	Function apdu.FunctionCode
	ReadType ReadType

	// Body is the object-header bytes (already objects.Encode'd) to
	// append after the 2-byte application header.
	Body []byte

	// Retryable errors (response timeout) cause the task to be
	// resubmitted; a fatal error (bad encoding, shutdown, association
	// removed) drops it.
	Retryable bool
}

// poll is a periodic class scan with its own due-deadline.
type poll struct {
	cfg      PollConfig
	deadline time.Time
}

func newPoll(cfg PollConfig, now time.Time) *poll {
	return &poll{cfg: cfg, deadline: now}
}

func (p *poll) due(now time.Time) bool { return !now.Before(p.deadline) }

// demand moves a poll's deadline to now, forcing it due immediately.
func (p *poll) demand(now time.Time) { p.deadline = now }

func (p *poll) reschedule(now time.Time) { p.deadline = now.Add(p.cfg.Period) }
